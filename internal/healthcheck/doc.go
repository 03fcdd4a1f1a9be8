// Package healthcheck periodically checks providers and records whether they
// answer. Transitions are logged and reported to the metrics collector.
package healthcheck
