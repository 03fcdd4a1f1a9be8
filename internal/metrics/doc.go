// Package metrics collects lookup metrics off the request path.
//
// Lookups, cache hits and misses, provider selections, provider attempts and
// health transitions are sent as events over a buffered channel. A single
// goroutine folds them into an in-memory snapshot (per-provider counters and
// latency percentiles, served as JSON on /stats) and into Prometheus series
// on a private registry (served on /metrics).
//
// Example usage:
//
//	collector := metrics.NewCollector(1000, logger)
//	collector.Start(ctx)
//
//	collector.Emit(metrics.MetricEvent{
//		Type:     metrics.EventProviderAttempt,
//		Provider: "ViaCEP",
//		Outcome:  metrics.OutcomeSuccess,
//		Duration: 150 * time.Millisecond,
//	})
//
// Emit never blocks; events are dropped when the buffer is full. Remaining
// events are drained when the context is cancelled.
package metrics
