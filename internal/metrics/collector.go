package metrics

import (
	"context"
	"log/slog"
	"time"
)

type EventType string

const (
	EventLookupReceived   EventType = "lookup_received"
	EventCacheHit         EventType = "cache_hit"
	EventCacheMiss        EventType = "cache_miss"
	EventProviderSelected EventType = "provider_selected"
	EventProviderAttempt  EventType = "provider_attempt"
	EventLookupCompleted  EventType = "lookup_completed"
	EventHealthChanged    EventType = "health_changed"
)

// OutcomeSuccess labels attempts and lookups that produced an address.
// Failures are labelled with their taxonomy code.
const OutcomeSuccess = "OK"

type MetricEvent struct {
	Type      EventType
	Timestamp time.Time
	Provider  string
	Outcome   string
	Duration  time.Duration
	Healthy   bool
}

type Collector struct {
	eventCh    chan MetricEvent
	metrics    *Metrics
	prometheus *prometheusMetrics
	logger     *slog.Logger
	done       chan struct{}
}

func NewCollector(bufferSize int, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}

	return &Collector{
		eventCh:    make(chan MetricEvent, bufferSize),
		metrics:    NewMetrics(),
		prometheus: newPrometheusMetrics(),
		logger:     logger,
		done:       make(chan struct{}),
	}
}

func (c *Collector) EventChannel() chan<- MetricEvent {
	return c.eventCh
}

// Emit queues event without blocking. It reports false when the event was
// dropped. A nil collector accepts and discards everything.
func (c *Collector) Emit(event MetricEvent) bool {
	if c == nil {
		return false
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case c.eventCh <- event:
		return true
	default:
		c.logger.Debug("Metrics buffer full, dropping event", slog.String("type", string(event.Type)))
		return false
	}
}

func (c *Collector) Start(ctx context.Context) {
	go c.Run(ctx)
}

// Run processes events until ctx is cancelled, then drains what is queued.
func (c *Collector) Run(ctx context.Context) {
	c.logger.Info("Metrics collector started")
	defer c.logger.Info("Metrics collector stopped")
	defer close(c.done)

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			c.drain()
			return
		}
	}
}

// Done is closed once Run has drained and returned.
func (c *Collector) Done() <-chan struct{} {
	return c.done
}

func (c *Collector) processEvent(event MetricEvent) {
	switch event.Type {
	case EventLookupReceived:
		c.metrics.IncrementLookups()

	case EventCacheHit:
		c.metrics.RecordCache(true)
		c.prometheus.cacheRequests.WithLabelValues("hit").Inc()

	case EventCacheMiss:
		c.metrics.RecordCache(false)
		c.prometheus.cacheRequests.WithLabelValues("miss").Inc()

	case EventProviderSelected:
		c.metrics.RecordSelection(event.Provider)
		c.prometheus.selections.WithLabelValues(event.Provider).Inc()

	case EventProviderAttempt:
		c.metrics.RecordAttempt(event.Provider, event.Duration, event.Outcome)
		c.prometheus.attempts.WithLabelValues(event.Provider, event.Outcome).Inc()
		c.prometheus.attemptDuration.WithLabelValues(event.Provider).Observe(event.Duration.Seconds())

	case EventLookupCompleted:
		c.metrics.RecordOutcome(event.Outcome)
		c.prometheus.lookups.WithLabelValues(event.Outcome).Inc()
		c.prometheus.lookupDuration.Observe(event.Duration.Seconds())

	case EventHealthChanged:
		c.metrics.UpdateHealthStatus(event.Provider, event.Healthy)
		healthy := 0.0
		if event.Healthy {
			healthy = 1
		}
		c.prometheus.healthy.WithLabelValues(event.Provider).Set(healthy)
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

func (c *Collector) Snapshot(selectorCount int64) Snapshot {
	return c.metrics.Snapshot(selectorCount)
}
