package cep

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a lookup failure. The set is closed: callers only ever see
// one of the four values below.
type Code string

const (
	CodeInvalidCEP          Code = "INVALID_CEP"
	CodeNotFound            Code = "CEP_NOT_FOUND"
	CodeUpstreamUnavailable Code = "UPSTREAM_UNAVAILABLE"
	CodeGatewayTimeout      Code = "GATEWAY_TIMEOUT"
)

var defaultMessages = map[Code]string{
	CodeInvalidCEP:          "Invalid CEP. A CEP must contain 8 numeric digits.",
	CodeNotFound:            "CEP not found in any of the available providers.",
	CodeUpstreamUnavailable: "All CEP providers are temporarily unavailable.",
	CodeGatewayTimeout:      "Timed out while querying the CEP providers. Please try again.",
}

var httpStatuses = map[Code]int{
	CodeInvalidCEP:          http.StatusBadRequest,
	CodeNotFound:            http.StatusNotFound,
	CodeUpstreamUnavailable: http.StatusServiceUnavailable,
	CodeGatewayTimeout:      http.StatusGatewayTimeout,
}

// Message returns the default user-facing message for the code.
func (c Code) Message() string {
	if msg, ok := defaultMessages[c]; ok {
		return msg
	}
	return defaultMessages[CodeUpstreamUnavailable]
}

// HTTPStatus returns the fixed HTTP status mapped to the code.
// Unknown codes map like UPSTREAM_UNAVAILABLE.
func (c Code) HTTPStatus() int {
	if status, ok := httpStatuses[c]; ok {
		return status
	}
	return http.StatusServiceUnavailable
}

// Details is the structured detail bag attached to a LookupError.
type Details map[string]any

// LookupError is a classified lookup failure. It is built once at the point
// of detection and never mutated afterwards.
type LookupError struct {
	Code    Code
	Message string
	Details Details
}

// NewError builds a LookupError. An empty message falls back to the code's
// default message.
func NewError(code Code, details Details, message string) *LookupError {
	if message == "" {
		message = code.Message()
	}
	return &LookupError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches another LookupError by code, so errors.Is(err, ErrNotFound) works
// against any not-found failure.
func (e *LookupError) Is(target error) bool {
	var t *LookupError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidCEP          = &LookupError{Code: CodeInvalidCEP}
	ErrNotFound            = &LookupError{Code: CodeNotFound}
	ErrUpstreamUnavailable = &LookupError{Code: CodeUpstreamUnavailable}
	ErrGatewayTimeout      = &LookupError{Code: CodeGatewayTimeout}
)

// AsLookupError extracts a LookupError from err. Anything outside the
// taxonomy is coerced to UPSTREAM_UNAVAILABLE carrying the original message.
func AsLookupError(err error) *LookupError {
	if err == nil {
		return nil
	}

	var lookupErr *LookupError
	if errors.As(err, &lookupErr) {
		return lookupErr
	}

	return NewError(CodeUpstreamUnavailable, Details{"error": err.Error()}, "")
}
