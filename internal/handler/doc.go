// Package handler implements the HTTP endpoints: address lookup, cache
// administration and health. Lookup failures are rendered as a JSON error
// body whose status follows the failure code.
package handler
