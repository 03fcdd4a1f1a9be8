// Package ratelimit throttles clients with one token bucket per key.
//
// Buckets idle for longer than the idle TTL are removed by a janitor so the
// store does not grow without bound.
package ratelimit
