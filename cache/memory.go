package cache

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store for tests and standalone CLI runs.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryStore creates an empty in-memory cache store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

// Get returns the entry for a key, or (nil, nil) when none exists.
func (s *MemoryStore) Get(_ context.Context, contentHash, docType string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, ok := s.entries[entryKey(contentHash, docType)]; ok {
		entry := e
		return &entry, nil
	}
	return nil, nil
}

// Put upserts the entry for a key.
func (s *MemoryStore) Put(_ context.Context, contentHash, docType string, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[entryKey(contentHash, docType)] = e
	return nil
}

// Len returns the number of stored entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
