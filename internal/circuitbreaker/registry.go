package circuitbreaker

import (
	"sync"
	"time"
)

// Registry hands out one breaker per provider name.
type Registry struct {
	mutex     sync.RWMutex
	breakers  map[string]*CircuitBreaker
	threshold int
	timeout   time.Duration
}

func NewRegistry(threshold int, timeout time.Duration) *Registry {
	return &Registry{
		breakers:  make(map[string]*CircuitBreaker),
		threshold: threshold,
		timeout:   timeout,
	}
}

func (r *Registry) GetBreaker(provider string) *CircuitBreaker {
	r.mutex.RLock()
	cb, exists := r.breakers[provider]
	r.mutex.RUnlock()

	if exists {
		return cb
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	// Double-check: another goroutine may have created it
	if cb, exists = r.breakers[provider]; exists {
		return cb
	}

	cb = NewCircuitBreaker(r.threshold, r.timeout)
	r.breakers[provider] = cb
	return cb
}

// Stats snapshots the state of every breaker handed out so far. A nil
// registry has none.
func (r *Registry) Stats() map[string]State {
	if r == nil {
		return nil
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	stats := make(map[string]State, len(r.breakers))
	for name, cb := range r.breakers {
		stats[name] = cb.State()
	}
	return stats
}
