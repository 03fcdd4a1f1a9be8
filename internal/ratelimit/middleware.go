package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/angeloszaimis/cep-resolver/internal/middleware"
)

type KeyFunc func(r *http.Request) string

type Options struct {
	Store *Store
	KeyFn KeyFunc
	// Reject writes the response for throttled requests. It defaults to a
	// plain 429.
	Reject http.Handler
}

// Middleware admits a request when its client's bucket has a token.
func Middleware(opts Options) middleware.Middleware {
	if opts.KeyFn == nil {
		opts.KeyFn = middleware.ClientIP
	}
	if opts.Reject == nil {
		opts.Reject = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		})
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiter := opts.Store.Limiter(opts.KeyFn(r))

			reservation := limiter.Reserve()
			if !reservation.OK() {
				w.Header().Set("Retry-After", "1")
				opts.Reject.ServeHTTP(w, r)
				return
			}
			if delay := reservation.Delay(); delay > 0 {
				reservation.Cancel()
				w.Header().Set("Retry-After", retryAfter(delay))
				opts.Reject.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func retryAfter(d time.Duration) string {
	return strconv.Itoa(int(math.Ceil(d.Seconds())))
}
