package provider_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/cep-resolver/internal/cep"
	"github.com/angeloszaimis/cep-resolver/internal/circuitbreaker"
	"github.com/angeloszaimis/cep-resolver/internal/provider"
)

type stubProvider struct {
	err   error
	calls int
}

func (s *stubProvider) Name() string { return "Stub" }

func (s *stubProvider) FindByCep(ctx context.Context, code string) (cep.Address, error) {
	s.calls++
	if s.err != nil {
		return cep.Address{}, s.err
	}
	return cep.Address{CEP: code}, nil
}

func (s *stubProvider) IsAvailable(ctx context.Context) bool { return s.err == nil }

var _ = Describe("WithBreaker", func() {
	var (
		stub    *stubProvider
		breaker *circuitbreaker.CircuitBreaker
		guarded provider.Provider
		ctx     context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		stub = &stubProvider{}
		breaker = circuitbreaker.NewCircuitBreaker(2, time.Minute)
		guarded = provider.WithBreaker(stub, breaker)
	})

	It("should keep the wrapped provider's name", func() {
		Expect(guarded.Name()).To(Equal("Stub"))
	})

	It("should pass successes through", func() {
		address, err := guarded.FindByCep(ctx, "01310100")
		Expect(err).NotTo(HaveOccurred())
		Expect(address.CEP).To(Equal("01310100"))
		Expect(breaker.State()).To(Equal(circuitbreaker.StateClosed))
	})

	It("should open after repeated availability failures and fail fast", func() {
		stub.err = cep.NewError(cep.CodeUpstreamUnavailable, nil, "")

		for range 2 {
			_, err := guarded.FindByCep(ctx, "01310100")
			Expect(errors.Is(err, cep.ErrUpstreamUnavailable)).To(BeTrue())
		}
		Expect(breaker.State()).To(Equal(circuitbreaker.StateOpen))

		_, err := guarded.FindByCep(ctx, "01310100")
		Expect(errors.Is(err, cep.ErrUpstreamUnavailable)).To(BeTrue())
		Expect(stub.calls).To(Equal(2))

		var lookupErr *cep.LookupError
		Expect(errors.As(err, &lookupErr)).To(BeTrue())
		Expect(lookupErr.Details).To(HaveKeyWithValue("circuit", "OPEN"))
	})

	It("should count timeouts against the circuit", func() {
		stub.err = cep.NewError(cep.CodeGatewayTimeout, nil, "")

		guarded.FindByCep(ctx, "01310100")
		Expect(breaker.Failures()).To(Equal(1))
	})

	It("should not count not found against the circuit", func() {
		stub.err = cep.NewError(cep.CodeNotFound, nil, "")

		for range 5 {
			_, err := guarded.FindByCep(ctx, "01310100")
			Expect(errors.Is(err, cep.ErrNotFound)).To(BeTrue())
		}
		Expect(breaker.State()).To(Equal(circuitbreaker.StateClosed))
		Expect(breaker.Failures()).To(Equal(0))
	})

	It("should not count caller cancellation against the circuit", func() {
		stub.err = cep.NewError(cep.CodeUpstreamUnavailable, nil, "")
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		guarded.FindByCep(cancelled, "01310100")
		Expect(breaker.Failures()).To(Equal(0))
	})

	It("should release a half-open trial abandoned by the caller", func() {
		breaker = circuitbreaker.NewCircuitBreaker(1, 10*time.Millisecond)
		guarded = provider.WithBreaker(stub, breaker)

		stub.err = cep.NewError(cep.CodeUpstreamUnavailable, nil, "")
		guarded.FindByCep(ctx, "01310100")
		Expect(breaker.State()).To(Equal(circuitbreaker.StateOpen))

		time.Sleep(20 * time.Millisecond)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		guarded.FindByCep(cancelled, "01310100")
		Expect(stub.calls).To(Equal(2))
		Expect(breaker.State()).To(Equal(circuitbreaker.StateOpen))
		Expect(breaker.Failures()).To(Equal(1))

		stub.err = nil
		address, err := guarded.FindByCep(ctx, "01310100")
		Expect(err).NotTo(HaveOccurred())
		Expect(address.CEP).To(Equal("01310100"))
		Expect(stub.calls).To(Equal(3))
		Expect(breaker.State()).To(Equal(circuitbreaker.StateClosed))
	})
})
