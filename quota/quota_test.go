package quota

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingStore simulates an unreachable counter store.
type failingStore struct {
	err error
}

func (s *failingStore) Get(context.Context, string, string) (*Counter, error) {
	return nil, s.err
}

func (s *failingStore) Put(context.Context, string, string, Counter) error {
	return s.err
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTracker_CanUsePremium_UnderLimit(t *testing.T) {
	store := NewMemoryCounterStore()
	tracker := NewTracker(store, NewStaticRoles(), WithLimits(Limits{User: 3, Admin: 10}))

	assert.True(t, tracker.CanUsePremium(context.Background(), "user-1", "report"))
}

func TestTracker_CanUsePremium_AtLimitFreshWindow(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	store := NewMemoryCounterStore()
	require.NoError(t, store.Put(context.Background(), "user-1", "report", Counter{
		Count:       3,
		WindowStart: now.Add(-1 * time.Hour),
	}))

	tracker := NewTracker(store, NewStaticRoles(),
		WithLimits(Limits{User: 3, Admin: 10}),
		WithClock(fixedClock(now)))

	assert.False(t, tracker.CanUsePremium(context.Background(), "user-1", "report"))
}

func TestTracker_CanUsePremium_AtLimitStaleWindow(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	store := NewMemoryCounterStore()
	require.NoError(t, store.Put(context.Background(), "user-1", "report", Counter{
		Count:       3,
		WindowStart: now.Add(-Window),
	}))

	tracker := NewTracker(store, NewStaticRoles(),
		WithLimits(Limits{User: 3, Admin: 10}),
		WithClock(fixedClock(now)))

	// A window at least 24h old counts as zero.
	assert.True(t, tracker.CanUsePremium(context.Background(), "user-1", "report"))
}

func TestTracker_CanUsePremium_ReadDoesNotMutateStore(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	stale := Counter{Count: 3, WindowStart: now.Add(-Window - time.Hour)}

	store := NewMemoryCounterStore()
	require.NoError(t, store.Put(context.Background(), "user-1", "report", stale))

	tracker := NewTracker(store, NewStaticRoles(),
		WithLimits(Limits{User: 3, Admin: 10}),
		WithClock(fixedClock(now)))

	tracker.CanUsePremium(context.Background(), "user-1", "report")

	// The physical reset happens on the next increment, not on the read.
	got, err := store.Get(context.Background(), "user-1", "report")
	require.NoError(t, err)
	assert.Equal(t, stale, *got)
}

func TestTracker_CanUsePremium_AdminLimit(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	store := NewMemoryCounterStore()
	require.NoError(t, store.Put(context.Background(), "admin-1", "report", Counter{
		Count:       5,
		WindowStart: now.Add(-1 * time.Hour),
	}))

	tracker := NewTracker(store, NewStaticRoles("admin-1"),
		WithLimits(Limits{User: 3, Admin: 10}),
		WithClock(fixedClock(now)))

	// Over the user limit but under the admin limit.
	assert.True(t, tracker.CanUsePremium(context.Background(), "admin-1", "report"))
}

func TestTracker_CanUsePremium_FailOpen(t *testing.T) {
	tracker := NewTracker(&failingStore{err: errors.New("store down")}, NewStaticRoles())

	assert.True(t, tracker.CanUsePremium(context.Background(), "user-1", "report"),
		"default policy favors availability over strict enforcement")
}

func TestTracker_CanUsePremium_FailClosed(t *testing.T) {
	tracker := NewTracker(&failingStore{err: errors.New("store down")}, NewStaticRoles(),
		WithFailOpen(false))

	assert.False(t, tracker.CanUsePremium(context.Background(), "user-1", "report"))
}

func TestTracker_CanUsePremium_RoleLookupErrorAssumesNonAdmin(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	store := NewMemoryCounterStore()
	require.NoError(t, store.Put(context.Background(), "user-1", "report", Counter{
		Count:       3,
		WindowStart: now.Add(-1 * time.Hour),
	}))

	roles := failingRoles{err: errors.New("profile store down")}
	tracker := NewTracker(store, roles,
		WithLimits(Limits{User: 3, Admin: 10}),
		WithClock(fixedClock(now)))

	assert.False(t, tracker.CanUsePremium(context.Background(), "user-1", "report"))
}

type failingRoles struct {
	err error
}

func (r failingRoles) IsAdmin(context.Context, string) (bool, error) {
	return false, r.err
}

func TestTracker_RecordPremiumUse_Increments(t *testing.T) {
	store := NewMemoryCounterStore()
	tracker := NewTracker(store, NewStaticRoles())

	require.NoError(t, tracker.RecordPremiumUse(context.Background(), "user-1", "report"))
	require.NoError(t, tracker.RecordPremiumUse(context.Background(), "user-1", "report"))

	counter, err := store.Get(context.Background(), "user-1", "report")
	require.NoError(t, err)
	assert.Equal(t, 2, counter.Count)
}

func TestTracker_RecordPremiumUse_ResetsStaleWindow(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	store := NewMemoryCounterStore()
	require.NoError(t, store.Put(context.Background(), "user-1", "report", Counter{
		Count:       7,
		WindowStart: now.Add(-25 * time.Hour),
	}))

	tracker := NewTracker(store, NewStaticRoles(), WithClock(fixedClock(now)))
	require.NoError(t, tracker.RecordPremiumUse(context.Background(), "user-1", "report"))

	counter, err := store.Get(context.Background(), "user-1", "report")
	require.NoError(t, err)
	assert.Equal(t, 1, counter.Count)
	assert.Equal(t, now, counter.WindowStart)
}

func TestTracker_CountersAreIndependentPerDocType(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	store := NewMemoryCounterStore()
	tracker := NewTracker(store, NewStaticRoles(),
		WithLimits(Limits{User: 1, Admin: 10}),
		WithClock(fixedClock(now)))

	require.NoError(t, tracker.RecordPremiumUse(context.Background(), "user-1", "report"))

	assert.False(t, tracker.CanUsePremium(context.Background(), "user-1", "report"))
	assert.True(t, tracker.CanUsePremium(context.Background(), "user-1", "audit"))
	assert.True(t, tracker.CanUsePremium(context.Background(), "user-2", "report"))
}
