// Package lookup resolves a canonical CEP to an address.
//
// A lookup reads the cache first. On a miss the providers are tried one at a
// time in the order chosen by the selector; the first success is cached and
// returned. When every provider fails the individual failures are folded into
// a single LookupError:
//
//   - every failure CEP_NOT_FOUND: CEP_NOT_FOUND
//   - any failure GATEWAY_TIMEOUT: GATEWAY_TIMEOUT
//   - otherwise: UPSTREAM_UNAVAILABLE
//
// Failed lookups are never cached.
package lookup
