package quota

import (
	"context"
	"sync"
)

// MemoryCounterStore is an in-process CounterStore. It backs tests and
// standalone CLI runs where no NATS server is configured.
type MemoryCounterStore struct {
	mu       sync.RWMutex
	counters map[string]Counter
}

// NewMemoryCounterStore creates an empty in-memory counter store.
func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{counters: make(map[string]Counter)}
}

// Get returns the counter for a pair, or (nil, nil) when none exists.
func (s *MemoryCounterStore) Get(_ context.Context, userID, docType string) (*Counter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.counters[counterKey(userID, docType)]; ok {
		counter := c
		return &counter, nil
	}
	return nil, nil
}

// Put upserts the counter for a pair.
func (s *MemoryCounterStore) Put(_ context.Context, userID, docType string, c Counter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters[counterKey(userID, docType)] = c
	return nil
}

// StaticRoles is a fixed RoleLookup over an in-memory admin set.
type StaticRoles struct {
	mu     sync.RWMutex
	admins map[string]bool
}

// NewStaticRoles creates a role lookup that treats the given users as admins.
func NewStaticRoles(adminIDs ...string) *StaticRoles {
	admins := make(map[string]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}
	return &StaticRoles{admins: admins}
}

// IsAdmin reports whether the user is in the admin set.
func (r *StaticRoles) IsAdmin(_ context.Context, userID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.admins[userID], nil
}

// SetAdmin adds or removes a user from the admin set.
func (r *StaticRoles) SetAdmin(userID string, admin bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if admin {
		r.admins[userID] = true
	} else {
		delete(r.admins, userID)
	}
}
