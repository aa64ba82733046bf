// Package cache holds the process-lifetime caches used by the dashboard.
//
// Every read and write first sweeps entries older than the TTL and then trims
// the oldest entries beyond the capacity bound. Nothing is persisted.
package cache

import (
	"sort"
	"sync"
	"time"
)

type item[V any] struct {
	value    V
	cachedAt time.Time
}

// Store is a TTL and capacity bounded map keyed by string.
// It does not de-duplicate concurrent misses for the same key.
type Store[V any] struct {
	mu    sync.Mutex
	ttl   time.Duration
	max   int
	now   func() time.Time
	items map[string]item[V]
}

// New creates a Store. A max of zero or less disables the capacity bound.
func New[V any](ttl time.Duration, max int) *Store[V] {
	return &Store[V]{
		ttl:   ttl,
		max:   max,
		now:   time.Now,
		items: make(map[string]item[V]),
	}
}

// WithClock replaces the time source, for tests
func (s *Store[V]) WithClock(now func() time.Time) *Store[V] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

// Get returns the live value for key
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prune("")
	it, found := s.items[key]
	return it.value, found
}

// Set stores value under key with a fresh timestamp
func (s *Store[V]) Set(key string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prune("")
	s.items[key] = item[V]{value: value, cachedAt: s.now()}
	s.prune(key)
}

// Delete drops key if present
func (s *Store[V]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
}

// Len counts the live entries
func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prune("")
	return len(s.items)
}

// prune must be called with mu held. keep is never trimmed for capacity.
func (s *Store[V]) prune(keep string) {
	now := s.now()
	for key, it := range s.items {
		if s.ttl > 0 && now.Sub(it.cachedAt) > s.ttl {
			delete(s.items, key)
		}
	}

	if s.max <= 0 || len(s.items) <= s.max {
		return
	}

	keys := make([]string, 0, len(s.items))
	for key := range s.items {
		if key != keep {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return s.items[keys[i]].cachedAt.Before(s.items[keys[j]].cachedAt)
	})

	for _, key := range keys {
		if len(s.items) <= s.max {
			break
		}
		delete(s.items, key)
	}
}

// Slot is a single value TTL cell. Set replaces the value wholesale.
type Slot[V any] struct {
	mu       sync.RWMutex
	ttl      time.Duration
	now      func() time.Time
	value    V
	cachedAt time.Time
	filled   bool
}

func NewSlot[V any](ttl time.Duration) *Slot[V] {
	return &Slot[V]{ttl: ttl, now: time.Now}
}

// WithClock replaces the time source, for tests
func (s *Slot[V]) WithClock(now func() time.Time) *Slot[V] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

// Get returns the value while it is younger than the TTL
func (s *Slot[V]) Get() (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.filled || s.now().Sub(s.cachedAt) >= s.ttl {
		var zero V
		return zero, false
	}
	return s.value, true
}

func (s *Slot[V]) Set(value V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.value = value
	s.cachedAt = s.now()
	s.filled = true
}
