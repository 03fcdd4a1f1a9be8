package cache

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/angeloszaimis/cep-resolver/internal/cep"
)

// Memory is an in-process cache. Expired entries are dropped lazily on read
// and by the janitor started with Run.
type Memory struct {
	mu         sync.RWMutex
	entries    map[string]memoryEntry
	defaultTTL time.Duration
	maxEntries int
	now        func() time.Time
}

type memoryEntry struct {
	value     cep.Address
	expiresAt time.Time
}

// NewMemory creates a cache holding at most maxEntries addresses. When full,
// the entry closest to expiry is evicted.
func NewMemory(defaultTTL time.Duration, maxEntries int) *Memory {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	return &Memory{
		entries:    make(map[string]memoryEntry),
		defaultTTL: defaultTTL,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) (cep.Address, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return cep.Address{}, false, nil
	}

	if !m.now().Before(entry.expiresAt) {
		m.mu.Lock()
		// another writer may have refreshed it
		if current, ok := m.entries[key]; ok && !m.now().Before(current.expiresAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return cep.Address{}, false, nil
	}

	return entry.value, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value cep.Address, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		m.evictLocked()
	}

	m.entries[key] = memoryEntry{value: value, expiresAt: m.now().Add(ttl)}
	return nil
}

// Delete is idempotent.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Clear drops every CEP entry.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key := range m.entries {
		if strings.HasPrefix(key, KeyPrefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Run removes expired entries every interval until ctx is done.
func (m *Memory) Run(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := m.removeExpired(); removed > 0 {
				logger.Debug("Removed expired cache entries", slog.Int("count", removed))
			}
		}
	}
}

func (m *Memory) removeExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for key, entry := range m.entries {
		if !now.Before(entry.expiresAt) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

// evictLocked makes room for one entry. Caller holds mu.
func (m *Memory) evictLocked() {
	now := m.now()
	var (
		oldestKey string
		oldest    time.Time
	)

	for key, entry := range m.entries {
		if !now.Before(entry.expiresAt) {
			delete(m.entries, key)
			continue
		}
		if oldestKey == "" || entry.expiresAt.Before(oldest) {
			oldestKey, oldest = key, entry.expiresAt
		}
	}

	if len(m.entries) >= m.maxEntries && oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}

var _ Cache = (*Memory)(nil)
