package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cep"

type prometheusMetrics struct {
	registry        *prometheus.Registry
	lookups         *prometheus.CounterVec
	lookupDuration  prometheus.Histogram
	cacheRequests   *prometheus.CounterVec
	selections      *prometheus.CounterVec
	attempts        *prometheus.CounterVec
	attemptDuration *prometheus.HistogramVec
	healthy         *prometheus.GaugeVec
}

// newPrometheusMetrics registers on a private registry so independent
// collectors never collide.
func newPrometheusMetrics() *prometheusMetrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &prometheusMetrics{
		registry: registry,
		lookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lookups_total",
				Help:      "Total number of completed lookups by outcome",
			},
			[]string{"outcome"},
		),
		lookupDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "lookup_duration_seconds",
				Help:      "End-to-end lookup latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		cacheRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_requests_total",
				Help:      "Cache reads by result",
			},
			[]string{"result"},
		),
		selections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_selections_total",
				Help:      "Times a provider was chosen as primary",
			},
			[]string{"provider"},
		),
		attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_attempts_total",
				Help:      "Provider attempts by outcome",
			},
			[]string{"provider", "outcome"},
		),
		attemptDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_attempt_duration_seconds",
				Help:      "Provider attempt latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		healthy: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "provider_healthy",
				Help:      "1 when the last availability check succeeded",
			},
			[]string{"provider"},
		),
	}
}

// PrometheusHandler serves the collector's registry in exposition format.
func (c *Collector) PrometheusHandler() http.Handler {
	return promhttp.HandlerFor(c.prometheus.registry, promhttp.HandlerOpts{})
}

// Registry exposes the private registry for additional collectors.
func (c *Collector) Registry() *prometheus.Registry {
	return c.prometheus.registry
}
