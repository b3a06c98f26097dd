package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultCapacity bounds the in-process cache; an insert past the bound
// evicts the oldest entry.
const DefaultCapacity = 256

type memoryEntry struct {
	value    []byte
	storedAt time.Time
	expires  time.Time
}

// Memory is a bounded TTL cache for single-process deployments. It is the
// fallback when no redis URL is configured.
type Memory struct {
	mu       sync.Mutex
	entries  map[string]memoryEntry
	capacity int
	now      func() time.Time
}

func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Memory{
		entries:  make(map[string]memoryEntry),
		capacity: capacity,
		now:      time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	if m.now().After(entry.expires) {
		delete(m.entries, key)
		return nil, ErrMiss
	}
	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.capacity {
		m.evictOldest()
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	now := m.now()
	m.entries[key] = memoryEntry{
		value:    stored,
		storedAt: now,
		expires:  now.Add(ttl),
	}
	return nil
}

// evictOldest removes the entry stored longest ago. Caller holds the lock.
func (m *Memory) evictOldest() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for key, entry := range m.entries {
		if first || entry.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.storedAt
			first = false
		}
	}
	if oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}

func (m *Memory) Invalidate(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *Memory) Close() error {
	return nil
}

func (m *Memory) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
