// Package middleware holds the HTTP middleware shared by every route:
// request id propagation and access logging.
package middleware
