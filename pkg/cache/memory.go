package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	DefaultExpiration      = 10 * time.Minute
	DefaultCleanupInterval = 30 * time.Minute
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// MemoryStore is a process-local key/value store with the same surface the
// Redis client offers for sessions and rate-limit counters. It is used when
// no Redis endpoint is configured, so state is lost on restart and not shared
// between replicas.
type MemoryStore struct {
	mu    sync.Mutex
	cache *gocache.Cache
}

func NewMemoryStore(defaultExpiration, cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{cache: gocache.New(defaultExpiration, cleanupInterval)}
}

// Set stores value under key. A non-positive ttl keeps the entry until deleted.
func (m *MemoryStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	m.cache.Set(key, fmt.Sprint(value), ttl)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	value, found := m.cache.Get(key)
	if !found {
		return "", ErrMiss
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("cache key %q holds %T, not a string", key, value)
	}
	return s, nil
}

func (m *MemoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		m.cache.Delete(key)
	}
	return nil
}

// IncrWithTTL increments the counter at key, starting a new window of ttl when
// the key does not exist yet.
func (m *MemoryStore) IncrWithTTL(_ context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.cache.Add(key, int64(1), ttl); err == nil {
		return 1, nil
	}
	return m.cache.IncrementInt64(key, 1)
}

func (m *MemoryStore) AccessSessionKey(accessID string) string { return SessionKey(accessID) }

func (m *MemoryStore) RateLimitKey(scope string) string { return RateLimitKey(scope) }

// Ping always succeeds; it lets the store stand in for Redis in readiness checks.
func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

func (m *MemoryStore) Close() error {
	m.cache.Flush()
	return nil
}
