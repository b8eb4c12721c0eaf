// Package cache provides an in-memory TTL store used to memoize adapter
// calls. Every upstream source carries its own TTL policy, so callers wrap
// fetches with Do rather than caching inside each adapter.
package cache

import (
	"strings"
	"sync"
	"time"
)

type entry struct {
	value   any
	expires time.Time
}

// Store is a mutex-guarded map of cached values with per-entry expiry.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Key joins call arguments into a cache key.
func Key(parts ...string) string {
	return strings.Join(parts, "|")
}

// Get returns the cached value for key if it has not expired.
func (s *Store) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if s.now().After(e.expires) {
		delete(s.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key for ttl. A non-positive ttl stores nothing,
// which is how the incremental pollers opt out of caching.
func (s *Store) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{value: value, expires: s.now().Add(ttl)}
}

// Clear drops every entry.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]entry)
}

// Do memoizes fn under key for ttl. Errors are never cached, so a failed
// fetch is retried on the next call.
func Do[T any](s *Store, key string, ttl time.Duration, fn func() (T, error)) (T, error) {
	if s == nil {
		return fn()
	}
	if v, ok := s.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	v, err := fn()
	if err != nil {
		return v, err
	}
	s.Set(key, v, ttl)
	return v, nil
}
