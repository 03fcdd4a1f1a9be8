package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/angeloszaimis/cep-resolver/internal/cep"
)

// ProviderHeader names the provider that resolved the address.
const ProviderHeader = "X-Provider"

type Finder interface {
	FindAddress(ctx context.Context, code string) (cep.Address, error)
}

type CEPHandler struct {
	logger *slog.Logger
	finder Finder
}

func NewCEPHandler(logger *slog.Logger, finder Finder) *CEPHandler {
	return &CEPHandler{logger: logger, finder: finder}
}

// ServeHTTP handles GET /cep/{code}.
func (h *CEPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	code, err := cep.Normalize(r.PathValue("code"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	address, err := h.finder.FindAddress(r.Context(), code)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if address.Source != "" {
		w.Header().Set(ProviderHeader, address.Source)
	}
	writeJSON(w, h.logger, http.StatusOK, address)
}
