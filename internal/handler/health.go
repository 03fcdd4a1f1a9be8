package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/angeloszaimis/cep-resolver/internal/circuitbreaker"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

type HealthReporter interface {
	Name() string
	IsHealthy() bool
}

type ProviderHealth struct {
	Healthy bool   `json:"healthy"`
	Circuit string `json:"circuit,omitempty"`
}

type HealthResponse struct {
	Status    string                    `json:"status"`
	Timestamp time.Time                 `json:"ts"`
	Providers map[string]ProviderHealth `json:"providers"`
}

type HealthHandler struct {
	logger    *slog.Logger
	providers []HealthReporter
	breakers  *circuitbreaker.Registry
}

// NewHealthHandler reports on providers. breakers may be nil when circuit
// breaking is disabled.
func NewHealthHandler(logger *slog.Logger, providers []HealthReporter, breakers *circuitbreaker.Registry) *HealthHandler {
	return &HealthHandler{logger: logger, providers: providers, breakers: breakers}
}

// ServeHTTP handles GET /health. It answers 200 even when degraded.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	res := HealthResponse{
		Status:    StatusDegraded,
		Timestamp: time.Now().UTC(),
		Providers: make(map[string]ProviderHealth, len(h.providers)),
	}

	circuits := h.breakers.Stats()
	for _, p := range h.providers {
		health := ProviderHealth{Healthy: p.IsHealthy()}
		if state, ok := circuits[p.Name()]; ok {
			health.Circuit = state.String()
		}
		if health.Healthy {
			res.Status = StatusOK
		}
		res.Providers[p.Name()] = health
	}

	writeJSON(w, h.logger, http.StatusOK, res)
}
