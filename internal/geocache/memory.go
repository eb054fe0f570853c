package geocache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	key     string
	expires time.Time
}

// Memory is an in-process cache. A zero TTL keeps entries for the process
// lifetime.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemory returns an empty in-process cache.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{entries: make(map[string]memoryEntry), ttl: ttl, now: time.Now}
}

// Lookup implements forecast.KeyCache.
func (m *Memory) Lookup(_ context.Context, city string) (string, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[Normalize(city)]
	m.mu.RUnlock()
	if !ok || (!e.expires.IsZero() && m.now().After(e.expires)) {
		return "", false, nil
	}
	return e.key, true, nil
}

// Store implements forecast.KeyCache.
func (m *Memory) Store(_ context.Context, city, key string) error {
	e := memoryEntry{key: key}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.mu.Lock()
	m.entries[Normalize(city)] = e
	m.mu.Unlock()
	return nil
}
