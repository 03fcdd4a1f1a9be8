package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const DefaultRequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestID reuses the inbound id from header or generates a UUID v4. The id
// is echoed on the response and stored in the request context.
func RequestID(header string) Middleware {
	if header == "" {
		header = DefaultRequestIDHeader
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(header))
			if id == "" {
				id = uuid.NewString()
			}

			w.Header().Set(header, id)
			next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), id)))
		})
	}
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the id stored by RequestID, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
