package main

import (
	"net/http"

	"github.com/angeloszaimis/cep-resolver/internal/handler"
	"github.com/angeloszaimis/cep-resolver/internal/middleware"
	"github.com/angeloszaimis/cep-resolver/internal/ratelimit"
)

func (a *app) routes() http.Handler {
	reporters := make([]handler.HealthReporter, 0, len(a.adapters))
	for _, adapter := range a.adapters {
		reporters = append(reporters, adapter)
	}

	cepHandler := handler.NewCEPHandler(a.log, a.service)
	cacheHandler := handler.NewCacheHandler(a.log, a.service)
	healthHandler := handler.NewHealthHandler(a.log, reporters, a.breakers)

	mux := http.NewServeMux()

	mux.Handle("GET /cep/{code}", a.limit(cepHandler))
	mux.HandleFunc("DELETE /cache/{code}", cacheHandler.Invalidate)
	mux.HandleFunc("DELETE /cache", cacheHandler.Purge)
	mux.Handle("GET /health", healthHandler)
	mux.Handle("GET /metrics", a.collector.PrometheusHandler())
	mux.HandleFunc("GET /stats", a.collector.Handler(a.service.SelectorCount))

	return middleware.Chain(mux,
		middleware.RequestID(a.cfg.Server.RequestIDHeader),
		middleware.Logging(a.log),
	)
}

// limit throttles lookups per client when rate limiting is enabled.
func (a *app) limit(next http.Handler) http.Handler {
	if a.limiter == nil {
		return next
	}
	return ratelimit.Middleware(ratelimit.Options{
		Store:  a.limiter,
		Reject: handler.RateLimited(a.log),
	})(next)
}
