package provider

import (
	"context"
	"errors"

	"github.com/angeloszaimis/cep-resolver/internal/cep"
	"github.com/angeloszaimis/cep-resolver/internal/circuitbreaker"
)

type breakerProvider struct {
	Provider
	breaker *circuitbreaker.CircuitBreaker
}

// WithBreaker guards p with a circuit breaker. While the circuit is open the
// call fails fast with UPSTREAM_UNAVAILABLE and no upstream traffic is sent.
// Only availability and latency failures count against the circuit.
func WithBreaker(p Provider, breaker *circuitbreaker.CircuitBreaker) Provider {
	return &breakerProvider{Provider: p, breaker: breaker}
}

func (b *breakerProvider) FindByCep(ctx context.Context, code string) (cep.Address, error) {
	if !b.breaker.Allow() {
		return cep.Address{}, cep.NewError(cep.CodeUpstreamUnavailable,
			cep.Details{"cep": code, "provider": b.Name(), "circuit": b.breaker.State().String()},
			"Provider "+b.Name()+" is temporarily unavailable")
	}

	address, err := b.Provider.FindByCep(ctx, code)
	switch {
	case err == nil:
		b.breaker.RecordSuccess()
	case ctx.Err() != nil:
		// the caller gave up; says nothing about the upstream
		b.breaker.Release()
	case errors.Is(err, cep.ErrUpstreamUnavailable), errors.Is(err, cep.ErrGatewayTimeout):
		b.breaker.RecordFailure()
	default:
		b.breaker.RecordSuccess()
	}

	return address, err
}
