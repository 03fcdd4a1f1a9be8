package metrics

import (
	"sort"
	"sync"
	"time"
)

// maxSamples bounds the latency window kept per provider.
const maxSamples = 1000

type Metrics struct {
	mutex         sync.RWMutex
	lookups       int64
	cacheHits     int64
	cacheMisses   int64
	outcomes      map[string]int64
	selections    map[string]int64
	attempts      map[string]map[string]int64
	responseTimes map[string][]time.Duration
	healthStatus  map[string]bool
	startTime     time.Time
}

type Snapshot struct {
	TotalLookups  int64                      `json:"total_lookups"`
	Uptime        time.Duration              `json:"uptime"`
	CacheHits     int64                      `json:"cache_hits"`
	CacheMisses   int64                      `json:"cache_misses"`
	Outcomes      map[string]int64           `json:"outcomes"`
	SelectorCount int64                      `json:"selector_count"`
	Providers     map[string]ProviderMetrics `json:"providers"`
}

type ProviderMetrics struct {
	Selections  int64            `json:"selections"`
	Attempts    int64            `json:"attempts"`
	Outcomes    map[string]int64 `json:"outcomes"`
	Healthy     bool             `json:"healthy"`
	AvgResponse time.Duration    `json:"avg_response"`
	P50Response time.Duration    `json:"p50_response"`
	P95Response time.Duration    `json:"p95_response"`
	P99Response time.Duration    `json:"p99_response"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		outcomes:      make(map[string]int64),
		selections:    make(map[string]int64),
		attempts:      make(map[string]map[string]int64),
		responseTimes: make(map[string][]time.Duration),
		healthStatus:  make(map[string]bool),
		startTime:     time.Now(),
	}
}

func (m *Metrics) IncrementLookups() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.lookups++
}

func (m *Metrics) RecordCache(hit bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if hit {
		m.cacheHits++
	} else {
		m.cacheMisses++
	}
}

func (m *Metrics) RecordOutcome(outcome string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.outcomes[outcome]++
}

func (m *Metrics) RecordSelection(provider string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.selections[provider]++
}

func (m *Metrics) RecordAttempt(provider string, duration time.Duration, outcome string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.responseTimes[provider] = append(m.responseTimes[provider], duration)
	if len(m.responseTimes[provider]) > maxSamples {
		m.responseTimes[provider] = m.responseTimes[provider][1:]
	}

	if m.attempts[provider] == nil {
		m.attempts[provider] = make(map[string]int64)
	}
	m.attempts[provider][outcome]++
}

func (m *Metrics) UpdateHealthStatus(provider string, healthy bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.healthStatus[provider] = healthy
}

func (m *Metrics) Snapshot(selectorCount int64) Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		TotalLookups:  m.lookups,
		Uptime:        time.Since(m.startTime),
		CacheHits:     m.cacheHits,
		CacheMisses:   m.cacheMisses,
		Outcomes:      make(map[string]int64, len(m.outcomes)),
		SelectorCount: selectorCount,
		Providers:     make(map[string]ProviderMetrics),
	}
	for outcome, n := range m.outcomes {
		snap.Outcomes[outcome] = n
	}

	allProviders := make(map[string]bool)
	for p := range m.selections {
		allProviders[p] = true
	}
	for p := range m.attempts {
		allProviders[p] = true
	}
	for p := range m.healthStatus {
		allProviders[p] = true
	}

	for p := range allProviders {
		pm := ProviderMetrics{
			Selections: m.selections[p],
			Healthy:    m.healthStatus[p],
			Outcomes:   make(map[string]int64, len(m.attempts[p])),
		}
		for outcome, n := range m.attempts[p] {
			pm.Outcomes[outcome] = n
			pm.Attempts += n
		}

		durations := m.responseTimes[p]
		if len(durations) > 0 {
			sorted := make([]time.Duration, len(durations))
			copy(sorted, durations)
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i] < sorted[j]
			})

			pm.AvgResponse = average(sorted)
			pm.P50Response = percentile(sorted, 0.50)
			pm.P95Response = percentile(sorted, 0.95)
			pm.P99Response = percentile(sorted, 0.99)
		}

		snap.Providers[p] = pm
	}

	return snap
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
