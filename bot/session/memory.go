package session

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

type memoryStore struct {
	cache *cache.Cache
}

// NewMemoryStore constructs an in-process Store for tests, development, and
// single-instance deployments. Entries expire after ttl so abandoned
// conversations do not accumulate forever.
func NewMemoryStore(ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &memoryStore{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

// Get returns the stored value and whether the key exists.
func (m *memoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	if v, found := m.cache.Get(key); found {
		return v.([]byte), true, nil
	}
	return nil, false, nil
}

// Set stores the value under key, resetting its expiration.
func (m *memoryStore) Set(_ context.Context, key string, value []byte) error {
	buf := make([]byte, len(value))
	copy(buf, value)
	m.cache.Set(key, buf, cache.DefaultExpiration)
	return nil
}

// Delete removes the key if present.
func (m *memoryStore) Delete(_ context.Context, key string) error {
	m.cache.Delete(key)
	return nil
}
