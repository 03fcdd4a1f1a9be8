// Package backend models one upstream address service endpoint: its base URL,
// request timeout budget, health flag, in-flight request count and response
// time tracking. Provider adapters issue their HTTP calls through it.
package backend
