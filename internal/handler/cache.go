package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/angeloszaimis/cep-resolver/internal/cep"
)

type Invalidator interface {
	Invalidate(ctx context.Context, code string)
	Purge(ctx context.Context)
}

type CacheHandler struct {
	logger      *slog.Logger
	invalidator Invalidator
}

func NewCacheHandler(logger *slog.Logger, invalidator Invalidator) *CacheHandler {
	return &CacheHandler{logger: logger, invalidator: invalidator}
}

// Invalidate handles DELETE /cache/{code}.
func (h *CacheHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	code, err := cep.Normalize(r.PathValue("code"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.invalidator.Invalidate(r.Context(), code)
	w.WriteHeader(http.StatusNoContent)
}

// Purge handles DELETE /cache.
func (h *CacheHandler) Purge(w http.ResponseWriter, r *http.Request) {
	h.invalidator.Purge(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
