package provider

import (
	"context"
	"log/slog"

	"github.com/angeloszaimis/cep-resolver/internal/backend"
	"github.com/angeloszaimis/cep-resolver/internal/cep"
)

const brasilAPIName = "BrasilAPI"

type brasilAPIResponse struct {
	CEP          string `json:"cep"`
	State        string `json:"state"`
	City         string `json:"city"`
	Neighborhood string `json:"neighborhood"`
	Street       string `json:"street"`
	Service      string `json:"service"`
}

// BrasilAPI adapts https://brasilapi.com.br (CEP v1). It carries no
// complement or administrative codes, so those fields are always nil.
type BrasilAPI struct {
	*backend.Backend
	logger *slog.Logger
}

func NewBrasilAPI(b *backend.Backend, logger *slog.Logger) *BrasilAPI {
	if logger == nil {
		logger = slog.Default()
	}
	return &BrasilAPI{Backend: b, logger: logger}
}

func (a *BrasilAPI) FindByCep(ctx context.Context, code string) (cep.Address, error) {
	var data brasilAPIResponse
	if err := fetch(ctx, a.Backend, a.logger, a.Endpoint(code), code, &data); err != nil {
		return cep.Address{}, err
	}

	return cep.Address{
		CEP:          cep.CanonicalFromUpstream(data.CEP, code),
		Street:       data.Street,
		Neighborhood: data.Neighborhood,
		City:         data.City,
		State:        data.State,
	}, nil
}

func (a *BrasilAPI) IsAvailable(ctx context.Context) bool {
	return checkAvailability(ctx, a.Backend, a.Endpoint(sampleCEP))
}

var _ Adapter = (*BrasilAPI)(nil)
