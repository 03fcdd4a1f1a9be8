package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/angeloszaimis/cep-resolver/internal/backend"
	"github.com/angeloszaimis/cep-resolver/internal/cep"
)

// Provider is the capability the orchestrator consumes.
type Provider interface {
	// Name identifies the provider in logs, metrics and lookup details.
	Name() string

	// FindByCep queries the upstream for a canonical 8-digit code.
	// Failures are *cep.LookupError values.
	FindByCep(ctx context.Context, code string) (cep.Address, error)

	// IsAvailable is a best-effort check. It never fails, it returns false.
	IsAvailable(ctx context.Context) bool
}

// Adapter is a Provider backed by an HTTP upstream with tracked health.
type Adapter interface {
	Provider
	IsHealthy() bool
	SetHealthy(healthy bool) bool
}

const (
	KindViaCEP    = "viacep"
	KindBrasilAPI = "brasilapi"
)

// Kinds lists the registered adapter kinds.
var Kinds = []string{KindViaCEP, KindBrasilAPI}

// DefaultBaseURLs holds the public endpoint of every registered kind.
var DefaultBaseURLs = map[string]string{
	KindViaCEP:    "https://viacep.com.br/ws",
	KindBrasilAPI: "https://brasilapi.com.br/api/cep/v1",
}

const (
	sampleCEP    = "01310100"
	checkTimeout = 3 * time.Second
)

// New builds the adapter registered under kind.
func New(kind string, baseURL *url.URL, timeout time.Duration, logger *slog.Logger, opts ...backend.Option) (Adapter, error) {
	switch kind {
	case KindViaCEP:
		return NewViaCEP(backend.New(viaCEPName, baseURL, timeout, opts...), logger), nil
	case KindBrasilAPI:
		return NewBrasilAPI(backend.New(brasilAPIName, baseURL, timeout, opts...), logger), nil
	default:
		return nil, fmt.Errorf("provider: unknown kind %q", kind)
	}
}
