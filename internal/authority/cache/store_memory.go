package cache

import (
	"context"
	"sync"
	"time"

	"github.com/mormegil-cz/nklink/pkg/platform/sentinel"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is a process-local Store with TTL expiration. Entries are not
// shared between instances and are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Find implements Store. Expired entries are reported as missing.
func (s *MemoryStore) Find(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.entries[key]; ok && s.now().Before(e.expiresAt) {
		return e.value, nil
	}
	return nil, sentinel.ErrNotFound
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{value: value, expiresAt: s.now().Add(ttl)}
	return nil
}

// Health implements Store.
func (s *MemoryStore) Health(context.Context) error {
	return nil
}
