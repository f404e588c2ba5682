// Package quota tracks premium-tier usage per user and document type over
// a rolling 24-hour window. The tracker gates access to the premium tier;
// it never blocks generation outright, since a denied check only routes the
// request to the standard tier.
package quota

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Window is the rolling period over which premium usage is counted.
const Window = 24 * time.Hour

// Default daily premium limits. The system distinguishes exactly two limit
// tiers, admin and non-admin; there are no per-user overrides.
const (
	DefaultUserLimit  = 10
	DefaultAdminLimit = 200
)

// DefaultFailOpen permits premium use when the counter store is unreachable.
// Availability of generation is prioritized over strict enforcement; a hard
// failure here would block all premium generation for a transient infra
// problem. Deployments that need strict enforcement flip this per tracker.
const DefaultFailOpen = true

// Limits holds the two daily premium limits.
type Limits struct {
	User  int
	Admin int
}

// Tracker checks and records premium-tier usage.
type Tracker struct {
	store    CounterStore
	roles    RoleLookup
	limits   Limits
	failOpen bool
	logger   *slog.Logger
	now      func() time.Time
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithLimits sets the admin and non-admin daily limits.
func WithLimits(l Limits) TrackerOption {
	return func(t *Tracker) {
		t.limits = l
	}
}

// WithFailOpen sets the policy for counter store errors.
func WithFailOpen(failOpen bool) TrackerOption {
	return func(t *Tracker) {
		t.failOpen = failOpen
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) TrackerOption {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// WithClock sets the time source, for tests.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		t.now = now
	}
}

// NewTracker creates a tracker over the given counter and role stores.
func NewTracker(store CounterStore, roles RoleLookup, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		store:    store,
		roles:    roles,
		limits:   Limits{User: DefaultUserLimit, Admin: DefaultAdminLimit},
		failOpen: DefaultFailOpen,
		logger:   slog.Default(),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// CanUsePremium reports whether the user may make a premium call for the
// given document type. The admin flag is re-read on every check since roles
// can change between requests. A counter whose window is at least 24h old
// counts as zero; the physical reset happens on the next increment, so the
// read never mutates persisted state.
//
// Two concurrent checks for the same key can both observe a stale counter
// and both be approved, overshooting the limit by at most one call per
// window. That race is accepted; it is not worth a distributed lock.
func (t *Tracker) CanUsePremium(ctx context.Context, userID, docType string) bool {
	limit := t.limits.User

	admin, err := t.roles.IsAdmin(ctx, userID)
	if err != nil {
		t.logger.Warn("Role lookup failed, assuming non-admin",
			"user_id", userID,
			"error", err)
	} else if admin {
		limit = t.limits.Admin
	}

	counter, err := t.store.Get(ctx, userID, docType)
	if err != nil {
		if t.failOpen {
			t.logger.Warn("Counter store unreachable, allowing premium (fail-open)",
				"user_id", userID,
				"doc_type", docType,
				"error", err)
			return true
		}
		t.logger.Warn("Counter store unreachable, denying premium (fail-closed)",
			"user_id", userID,
			"doc_type", docType,
			"error", err)
		return false
	}

	if counter == nil {
		return true
	}

	if t.now().Sub(counter.WindowStart) >= Window {
		return true
	}

	return counter.Count < limit
}

// RecordPremiumUse increments the counter for the (userID, docType) pair.
// Call this only after a premium call has actually succeeded; a failed
// premium attempt that falls back to standard must not consume quota.
func (t *Tracker) RecordPremiumUse(ctx context.Context, userID, docType string) error {
	counter, err := t.store.Get(ctx, userID, docType)
	if err != nil {
		return fmt.Errorf("read counter: %w", err)
	}

	now := t.now()
	if counter == nil || now.Sub(counter.WindowStart) >= Window {
		counter = &Counter{WindowStart: now}
	}
	counter.Count++

	if err := t.store.Put(ctx, userID, docType, *counter); err != nil {
		return fmt.Errorf("write counter: %w", err)
	}

	return nil
}
