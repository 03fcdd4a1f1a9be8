package provider

import (
	"context"
	"log/slog"

	"github.com/angeloszaimis/cep-resolver/internal/backend"
	"github.com/angeloszaimis/cep-resolver/internal/cep"
)

const viaCEPName = "ViaCEP"

type viaCEPResponse struct {
	CEP         string `json:"cep"`
	Logradouro  string `json:"logradouro"`
	Complemento string `json:"complemento"`
	Bairro      string `json:"bairro"`
	Localidade  string `json:"localidade"`
	UF          string `json:"uf"`
	IBGE        string `json:"ibge"`
	GIA         string `json:"gia"`
	DDD         string `json:"ddd"`
	SIAFI       string `json:"siafi"`
	Erro        any    `json:"erro"`
}

// notFound reports ViaCEP's in-body sentinel; it has been sent both as a
// boolean and as the string "true".
func (r viaCEPResponse) notFound() bool {
	switch v := r.Erro.(type) {
	case bool:
		return v
	case string:
		return v == "true"
	default:
		return false
	}
}

// ViaCEP adapts https://viacep.com.br.
type ViaCEP struct {
	*backend.Backend
	logger *slog.Logger
}

func NewViaCEP(b *backend.Backend, logger *slog.Logger) *ViaCEP {
	if logger == nil {
		logger = slog.Default()
	}
	return &ViaCEP{Backend: b, logger: logger}
}

func (v *ViaCEP) FindByCep(ctx context.Context, code string) (cep.Address, error) {
	var data viaCEPResponse
	if err := fetch(ctx, v.Backend, v.logger, v.Endpoint(code, "json/"), code, &data); err != nil {
		return cep.Address{}, err
	}

	if data.notFound() {
		v.logger.Warn("CEP not found by provider",
			slog.String("provider", v.Name()),
			slog.String("cep", code))
		return cep.Address{}, notFound(v.Name(), code, 0)
	}

	return cep.Address{
		CEP:          cep.CanonicalFromUpstream(data.CEP, code),
		Street:       data.Logradouro,
		Complement:   cep.Optional(data.Complemento),
		Neighborhood: data.Bairro,
		City:         data.Localidade,
		State:        data.UF,
		IBGECode:     cep.Optional(data.IBGE),
		GIACode:      cep.Optional(data.GIA),
		DDDCode:      cep.Optional(data.DDD),
		SIAFICode:    cep.Optional(data.SIAFI),
	}, nil
}

func (v *ViaCEP) IsAvailable(ctx context.Context) bool {
	return checkAvailability(ctx, v.Backend, v.Endpoint(sampleCEP, "json/"))
}

var _ Adapter = (*ViaCEP)(nil)
