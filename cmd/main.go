package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/angeloszaimis/cep-resolver/config"
	"github.com/angeloszaimis/cep-resolver/internal/cache"
	"github.com/angeloszaimis/cep-resolver/internal/circuitbreaker"
	"github.com/angeloszaimis/cep-resolver/internal/healthcheck"
	"github.com/angeloszaimis/cep-resolver/internal/httpserver"
	"github.com/angeloszaimis/cep-resolver/internal/lookup"
	"github.com/angeloszaimis/cep-resolver/internal/metrics"
	"github.com/angeloszaimis/cep-resolver/internal/provider"
	"github.com/angeloszaimis/cep-resolver/internal/ratelimit"
	"github.com/angeloszaimis/cep-resolver/internal/strategy"
	"github.com/angeloszaimis/cep-resolver/pkg/logger"
)

const (
	metricsBufferSize    = 1000
	cacheJanitorInterval = time.Minute
	limiterIdleTTL       = 10 * time.Minute
	limiterCleanupEvery  = time.Minute
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env file", slog.Any("err", err))
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, true, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(cfg, log)
	if err != nil {
		log.Error("Failed to initialize resolver", slog.Any("err", err))
		os.Exit(1)
	}

	if err := a.run(ctx); err != nil {
		log.Error("Resolver stopped with error", slog.Any("err", err))
		os.Exit(1)
	}
	log.Info("Resolver stopped")
}

// app holds the wired components. The order of adapters follows the
// configuration.
type app struct {
	cfg       *config.Config
	log       *slog.Logger
	adapters  []provider.Adapter
	breakers  *circuitbreaker.Registry
	store     cache.Cache
	collector *metrics.Collector
	limiter   *ratelimit.Store
	service   *lookup.Service
	server    *httpserver.Server
}

func newApp(cfg *config.Config, log *slog.Logger) (*app, error) {
	a := &app{
		cfg:       cfg,
		log:       log,
		collector: metrics.NewCollector(metricsBufferSize, log),
	}

	if cfg.CircuitBreaker.Enabled {
		a.breakers = circuitbreaker.NewRegistry(cfg.CircuitBreaker.Threshold, cfg.CircuitBreaker.ResetTimeoutDuration())
	}

	descriptors, err := a.initializeProviders()
	if err != nil {
		return nil, err
	}

	a.store, err = cache.New(cache.Config{
		Enabled:       cfg.Cache.Enabled,
		Backend:       cfg.Cache.Backend,
		DefaultTTL:    cfg.Cache.DefaultTTLDuration(),
		MaxEntries:    cfg.Cache.MaxEntries,
		RedisURL:      cfg.Cache.Redis.URL,
		RedisPassword: cfg.Cache.Redis.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}

	a.service, err = lookup.NewService(descriptors, strategy.NewWeightedRandom(nil), a.store,
		lookup.WithSuccessTTL(cfg.Cache.TTLDuration()),
		lookup.WithCollector(a.collector),
		lookup.WithLogger(log),
	)
	if err != nil {
		a.closeStore()
		return nil, err
	}

	if cfg.RateLimit.Enabled {
		a.limiter = ratelimit.NewStore(cfg.RateLimit.RPS, cfg.RateLimit.Burst,
			ratelimit.WithIdleTTL(limiterIdleTTL),
			ratelimit.WithCleanupEvery(limiterCleanupEvery),
		)
	}

	a.server, err = httpserver.New(cfg.Server.Address, a.routes())
	if err != nil {
		a.closeStore()
		return nil, err
	}

	return a, nil
}

// initializeProviders builds one adapter per configured provider. A
// provider without base_url uses its public endpoint.
func (a *app) initializeProviders() ([]strategy.Descriptor, error) {
	descriptors := make([]strategy.Descriptor, 0, len(a.cfg.Providers))

	for _, pc := range a.cfg.Providers {
		rawURL := pc.BaseURL
		if rawURL == "" {
			rawURL = provider.DefaultBaseURLs[pc.Name]
		}

		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", pc.Name, err)
		}

		adapter, err := provider.New(pc.Name, u, pc.TimeoutDuration(), a.log)
		if err != nil {
			return nil, err
		}
		a.adapters = append(a.adapters, adapter)

		var p provider.Provider = adapter
		if a.breakers != nil {
			p = provider.WithBreaker(adapter, a.breakers.GetBreaker(adapter.Name()))
		}

		descriptors = append(descriptors, strategy.Descriptor{Provider: p, Weight: pc.Weight})

		a.log.Info("Provider registered",
			slog.String("provider", adapter.Name()),
			slog.String("url", u.String()),
			slog.Int("weight", pc.Weight))
	}

	if len(descriptors) == 0 {
		return nil, strategy.ErrNoProviders
	}

	return descriptors, nil
}

// run blocks until ctx is cancelled or the server fails. Background
// workers share the group context and stop with it.
func (a *app) run(ctx context.Context) error {
	defer a.closeStore()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.collector.Run(gctx)
		return nil
	})

	interval := a.cfg.HealthCheck.IntervalDuration()
	for _, adapter := range a.adapters {
		g.Go(func() error {
			healthcheck.HealthCheck(gctx, adapter, interval, a.collector, a.log)
			return nil
		})
	}

	if memory, ok := a.store.(*cache.Memory); ok {
		g.Go(func() error {
			memory.Run(gctx, cacheJanitorInterval, a.log)
			return nil
		})
	}

	if a.limiter != nil {
		g.Go(func() error {
			a.limiter.Run(gctx)
			return nil
		})
	}

	g.Go(func() error {
		a.log.Info("CEP resolver listening", slog.String("addr", a.server.Addr()))
		if err := a.server.Run(gctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		a.log.Info("Shutting down gracefully...")
		return nil
	})

	return g.Wait()
}

func (a *app) closeStore() {
	closer, ok := a.store.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		a.log.Error("Failed to close cache", slog.Any("err", err))
	}
}
