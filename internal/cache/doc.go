// Package cache stores resolved addresses keyed by "cep:<code>".
//
// Backends are interchangeable behind the Cache interface: an in-memory map
// with lazy expiry and a bounded size, a Redis store holding JSON values, and
// a no-op cache used when caching is disabled.
package cache
