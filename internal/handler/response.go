package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/angeloszaimis/cep-resolver/internal/cep"
	"github.com/angeloszaimis/cep-resolver/internal/middleware"
)

// CodeRateLimited is returned by the rate limiter; it is not a lookup outcome.
const CodeRateLimited cep.Code = "RATE_LIMITED"

type ErrorResponse struct {
	Code      cep.Code    `json:"code"`
	Message   string      `json:"message"`
	Details   cep.Details `json:"details"`
	RequestID string      `json:"request_id"`
	Timestamp time.Time   `json:"timestamp"`
	Path      string      `json:"path"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError renders err; anything that is not a *cep.LookupError becomes
// UPSTREAM_UNAVAILABLE.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	lookupErr := cep.AsLookupError(err)
	writeJSON(w, logger, lookupErr.Code.HTTPStatus(), newErrorResponse(r, lookupErr.Code, lookupErr.Message, lookupErr.Details))
}

func newErrorResponse(r *http.Request, code cep.Code, message string, details cep.Details) ErrorResponse {
	if len(details) == 0 {
		details = nil
	}
	return ErrorResponse{
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: middleware.RequestIDFrom(r.Context()),
		Timestamp: time.Now().UTC(),
		Path:      r.URL.Path,
	}
}

// RateLimited renders the 429 body used by the rate limiter.
func RateLimited(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusTooManyRequests,
			newErrorResponse(r, CodeRateLimited, "Too many requests. Try again later.", nil))
	}
}
