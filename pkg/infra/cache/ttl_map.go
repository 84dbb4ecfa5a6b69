package cache

import (
	"sync"
	"time"
)

// TTLEntry represents an entry in TTLMap
type TTLEntry[V any] struct {
	Value     V
	ExpiresAt time.Time
}

// TTLMap is a thread-safe map whose entries expire a fixed duration after
// they were stored. Expiry is strict: Set never slides an existing deadline
// forward, and Get on a stale entry deletes it and reports a miss.
type TTLMap[V any] struct {
	mu   sync.RWMutex
	data map[string]*TTLEntry[V]
	ttl  time.Duration
	now  func() time.Time
}

// NewTTLMap creates a new TTLMap with the specified TTL. A nil clock defaults
// to time.Now; tests inject their own.
func NewTTLMap[V any](ttl time.Duration, clock func() time.Time) *TTLMap[V] {
	if clock == nil {
		clock = time.Now
	}
	return &TTLMap[V]{
		data: make(map[string]*TTLEntry[V]),
		ttl:  ttl,
		now:  clock,
	}
}

// Get retrieves a value if it hasn't expired.
func (m *TTLMap[V]) Get(key string) (V, bool) {
	var zero V

	m.mu.RLock()
	entry, exists := m.data[key]
	m.mu.RUnlock()
	if !exists {
		return zero, false
	}

	if m.now().After(entry.ExpiresAt) {
		m.mu.Lock()
		if current, ok := m.data[key]; ok && m.now().After(current.ExpiresAt) {
			delete(m.data, key)
		}
		m.mu.Unlock()
		return zero, false
	}

	return entry.Value, true
}

// Set stores a value. The deadline of an already-present key is preserved so
// rewrites of the same entry never extend its life.
func (m *TTLMap[V]) Set(key string, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	expiresAt := m.now().Add(m.ttl)
	if current, ok := m.data[key]; ok {
		expiresAt = current.ExpiresAt
	}
	m.data[key] = &TTLEntry[V]{
		Value:     value,
		ExpiresAt: expiresAt,
	}
}

// Delete removes a key.
func (m *TTLMap[V]) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
}

// Len reports the number of entries, expired ones included.
func (m *TTLMap[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
