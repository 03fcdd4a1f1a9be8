// Package circuitbreaker implements the circuit breaker pattern for upstream
// address providers.
//
// A breaker stops sending lookups to a provider that keeps failing with
// availability or latency errors. It has three states:
//
//   - CLOSED: Normal operation, lookups pass through
//   - OPEN: Provider failing, lookups fail fast
//   - HALF-OPEN: One trial lookup is let through to test recovery
//
// Usage:
//
//	registry := circuitbreaker.NewRegistry(5, 30*time.Second)
//	cb := registry.GetBreaker("ViaCEP")
//	if cb.Allow() {
//	    // Query the provider...
//	    if err != nil {
//	        cb.RecordFailure()
//	    } else {
//	        cb.RecordSuccess()
//	    }
//	}
package circuitbreaker
