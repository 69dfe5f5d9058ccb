package ratelimit

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	n       int64
	expires time.Time
}

// MemoryCounter is a process-local Counter, used when no Redis is
// configured. Expired keys are purged lazily and by Sweep.
type MemoryCounter struct {
	mu      sync.Mutex
	entries map[string]*memEntry
	now     func() time.Time
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		entries: make(map[string]*memEntry),
		now:     time.Now,
	}
}

// WithClock replaces the time source. Tests only.
func (m *MemoryCounter) WithClock(now func() time.Time) *MemoryCounter {
	m.now = now
	return m
}

func (m *MemoryCounter) Get(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.live(key)
	if e == nil {
		return 0, nil
	}
	return e.n, nil
}

func (m *MemoryCounter) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.live(key)
	if e == nil {
		e = &memEntry{expires: m.now().Add(ttl)}
		m.entries[key] = e
	}
	e.n++
	return e.n, nil
}

func (m *MemoryCounter) Del(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Sweep drops expired entries and returns how many were removed.
func (m *MemoryCounter) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for k, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, k)
			removed++
		}
	}
	return removed
}

// live returns the entry for key, deleting it if expired. Caller holds mu.
func (m *MemoryCounter) live(key string) *memEntry {
	e, ok := m.entries[key]
	if !ok {
		return nil
	}
	if !m.now().Before(e.expires) {
		delete(m.entries, key)
		return nil
	}
	return e
}
