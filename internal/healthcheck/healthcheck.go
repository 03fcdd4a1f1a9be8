package healthcheck

import (
	"context"
	"log/slog"
	"time"

	"github.com/angeloszaimis/cep-resolver/internal/metrics"
)

// Target is a provider whose availability can be checked.
type Target interface {
	Name() string
	IsAvailable(ctx context.Context) bool
	SetHealthy(healthy bool) (changed bool)
}

// HealthCheck checks target once immediately and then every interval until
// ctx is cancelled. collector may be nil.
func HealthCheck(
	ctx context.Context,
	target Target,
	interval time.Duration,
	collector *metrics.Collector,
	logger *slog.Logger,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	Check(ctx, target, collector, logger)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Health check stopped",
				slog.String("provider", target.Name()))
			return

		case <-ticker.C:
			Check(ctx, target, collector, logger)
		}
	}
}

// Check runs a single check and reports whether the provider is healthy.
func Check(ctx context.Context, target Target, collector *metrics.Collector, logger *slog.Logger) bool {
	healthy := target.IsAvailable(ctx)
	if ctx.Err() != nil {
		// shutting down; a cancelled check says nothing about the provider
		return healthy
	}

	if target.SetHealthy(healthy) {
		collector.Emit(metrics.MetricEvent{
			Type:     metrics.EventHealthChanged,
			Provider: target.Name(),
			Healthy:  healthy,
		})

		if healthy {
			logger.Info("Provider is back up",
				slog.String("provider", target.Name()))
		} else {
			logger.Warn("Provider is down",
				slog.String("provider", target.Name()))
		}
	}

	return healthy
}
