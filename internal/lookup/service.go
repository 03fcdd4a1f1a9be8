package lookup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/angeloszaimis/cep-resolver/internal/cache"
	"github.com/angeloszaimis/cep-resolver/internal/cep"
	"github.com/angeloszaimis/cep-resolver/internal/metrics"
	"github.com/angeloszaimis/cep-resolver/internal/strategy"
)

// DefaultSuccessTTL is how long a resolved address stays cached.
const DefaultSuccessTTL = 24 * time.Hour

type Service struct {
	descriptors []strategy.Descriptor
	selector    strategy.Strategy
	cache       cache.Cache
	successTTL  time.Duration
	collector   *metrics.Collector
	logger      *slog.Logger
	now         func() time.Time
}

type Option func(*Service)

func WithSuccessTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.successTTL = ttl
		}
	}
}

func WithCollector(collector *metrics.Collector) Option {
	return func(s *Service) { s.collector = collector }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService validates the descriptor set once; it is read-only afterwards.
// A nil store disables caching.
func NewService(descriptors []strategy.Descriptor, selector strategy.Strategy, store cache.Cache, opts ...Option) (*Service, error) {
	if err := strategy.Validate(descriptors); err != nil {
		return nil, fmt.Errorf("lookup: %w", err)
	}
	if selector == nil {
		selector = strategy.NewWeightedRandom(nil)
	}
	if store == nil {
		store = cache.Noop{}
	}

	s := &Service{
		descriptors: append([]strategy.Descriptor(nil), descriptors...),
		selector:    selector,
		cache:       store,
		successTTL:  DefaultSuccessTTL,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// FindAddress resolves a canonical 8-digit code. Every failure is a
// *cep.LookupError.
func (s *Service) FindAddress(ctx context.Context, code string) (cep.Address, error) {
	start := s.now()
	s.collector.Emit(metrics.MetricEvent{Type: metrics.EventLookupReceived})

	key := cache.Key(code)
	if address, ok := s.cached(ctx, key); ok {
		s.complete(start, metrics.OutcomeSuccess)
		return address, nil
	}

	selection, err := s.selector.Order(s.descriptors)
	if err != nil {
		s.logger.Error("Provider selection failed", slog.String("cep", code), slog.String("error", err.Error()))
		lookupErr := cep.NewError(cep.CodeUpstreamUnavailable, cep.Details{"cep": code, "error": err.Error()}, "")
		s.complete(start, string(lookupErr.Code))
		return cep.Address{}, lookupErr
	}

	s.collector.Emit(metrics.MetricEvent{Type: metrics.EventProviderSelected, Provider: selection[0].Name()})
	s.logger.Debug("Provider order selected",
		slog.String("cep", code),
		slog.Any("providers", selection.Names()))

	failures := make([]Failure, 0, len(selection))
	for _, p := range selection {
		if ctx.Err() != nil {
			s.logger.Warn("Lookup abandoned by caller",
				slog.String("cep", code),
				slog.Int("attempts", len(failures)))
			break
		}

		attemptStart := s.now()
		address, err := p.FindByCep(ctx, code)
		elapsed := s.now().Sub(attemptStart)

		if err == nil {
			s.attempted(p.Name(), metrics.OutcomeSuccess, elapsed)

			address = address.WithProvenance(p.Name(), s.now())
			if err := s.cache.Set(ctx, key, address, s.successTTL); err != nil {
				s.logger.Error("Failed to cache address",
					slog.String("cep", code),
					slog.String("error", err.Error()))
			}

			s.logger.Info("CEP resolved",
				slog.String("cep", code),
				slog.String("provider", p.Name()),
				slog.Int("attempt", len(failures)+1),
				slog.Duration("duration", elapsed))
			s.complete(start, metrics.OutcomeSuccess)
			return address, nil
		}

		lookupErr := cep.AsLookupError(err)
		failures = append(failures, Failure{
			Provider: p.Name(),
			Code:     lookupErr.Code,
			Message:  lookupErr.Message,
		})
		s.attempted(p.Name(), string(lookupErr.Code), elapsed)

		s.logger.Warn("Provider failed, trying next",
			slog.String("cep", code),
			slog.String("provider", p.Name()),
			slog.String("code", string(lookupErr.Code)),
			slog.String("message", lookupErr.Message))
	}

	lookupErr := aggregate(ctx, code, failures)
	s.logger.Error("All providers failed",
		slog.String("cep", code),
		slog.String("code", string(lookupErr.Code)),
		slog.Int("attempts", len(failures)))
	s.complete(start, string(lookupErr.Code))

	return cep.Address{}, lookupErr
}

// Invalidate drops one code from the cache. Cache failures are logged only.
func (s *Service) Invalidate(ctx context.Context, code string) {
	if err := s.cache.Delete(ctx, cache.Key(code)); err != nil {
		s.logger.Error("Failed to invalidate cached address",
			slog.String("cep", code),
			slog.String("error", err.Error()))
		return
	}
	s.logger.Info("Cached address invalidated", slog.String("cep", code))
}

// Purge drops every cached code. Cache failures are logged only.
func (s *Service) Purge(ctx context.Context) {
	if err := s.cache.Clear(ctx); err != nil {
		s.logger.Error("Failed to purge cache", slog.String("error", err.Error()))
		return
	}
	s.logger.Info("Cache purged")
}

// SelectorCount reports how many provider orderings have been drawn, when
// the selector tracks it.
func (s *Service) SelectorCount() int64 {
	if counter, ok := s.selector.(interface{ Count() int64 }); ok {
		return counter.Count()
	}
	return 0
}

// Providers returns the configured provider names in configuration order.
func (s *Service) Providers() []string {
	names := make([]string, len(s.descriptors))
	for i, d := range s.descriptors {
		names[i] = d.Provider.Name()
	}
	return names
}

func (s *Service) cached(ctx context.Context, key string) (cep.Address, bool) {
	address, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Cache read failed, treating as miss",
			slog.String("key", key),
			slog.String("error", err.Error()))
		ok = false
	}

	if ok {
		s.collector.Emit(metrics.MetricEvent{Type: metrics.EventCacheHit})
		s.logger.Debug("Cache hit", slog.String("key", key))
		return address, true
	}

	s.collector.Emit(metrics.MetricEvent{Type: metrics.EventCacheMiss})
	s.logger.Debug("Cache miss", slog.String("key", key))
	return cep.Address{}, false
}

func (s *Service) attempted(provider, outcome string, elapsed time.Duration) {
	s.collector.Emit(metrics.MetricEvent{
		Type:     metrics.EventProviderAttempt,
		Provider: provider,
		Outcome:  outcome,
		Duration: elapsed,
	})
}

func (s *Service) complete(start time.Time, outcome string) {
	s.collector.Emit(metrics.MetricEvent{
		Type:     metrics.EventLookupCompleted,
		Outcome:  outcome,
		Duration: s.now().Sub(start),
	})
}
