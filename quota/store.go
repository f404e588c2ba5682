package quota

import (
	"context"
	"time"
)

// Counter is the persisted premium-usage tuple for one (user, document type)
// pair. It lives for the lifetime of the pair; the rolling window resets the
// count, it never deletes the row.
type Counter struct {
	// Count is the number of premium invocations in the current window.
	Count int `json:"count"`

	// WindowStart is when the current 24h window began.
	WindowStart time.Time `json:"window_start"`
}

// CounterStore persists usage counters keyed by (userID, docType).
// Implementations must support atomic upsert; the tracker holds no lock
// across calls.
type CounterStore interface {
	// Get returns the counter for a pair, or (nil, nil) when none exists.
	Get(ctx context.Context, userID, docType string) (*Counter, error)

	// Put upserts the counter for a pair.
	Put(ctx context.Context, userID, docType string, c Counter) error
}

// RoleLookup reports whether an identity holds elevated privilege.
// The flag is intentionally not cached by the tracker: roles can change
// between requests, so every quota check re-reads it.
type RoleLookup interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}
