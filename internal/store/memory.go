package store

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	snapshot  []byte
	expiresAt time.Time
}

// MemoryStore implements Store with an in-process map. Used in tests and as
// a development fallback when no Redis URL is configured. State is lost on
// restart, which matches the volatile-store contract.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory creates an empty in-memory session store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Put writes the snapshot with a fresh expiry.
func (s *MemoryStore) Put(_ context.Context, id string, snapshot []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(snapshot))
	copy(buf, snapshot)
	s.entries[id] = memoryEntry{snapshot: buf, expiresAt: s.now().Add(ttl)}
	return nil
}

// Get retrieves the snapshot, treating expired entries as absent.
func (s *MemoryStore) Get(_ context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok || s.now().After(entry.expiresAt) {
		return nil, ErrNotFound
	}
	return entry.snapshot, nil
}

// Delete removes the entry.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

// LiveIDs lists unexpired session IDs.
func (s *MemoryStore) LiveIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	ids := make([]string, 0, len(s.entries))
	for id, entry := range s.entries {
		if now.After(entry.expiresAt) {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
