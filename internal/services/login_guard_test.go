package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuanvn/tourbook/internal/repositories"
)

func newTestGuard(t *testing.T) (*LoginGuard, *time.Time) {
	t.Helper()

	current := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	guard := NewLoginGuard(repositories.NewMemoryAttemptStore(), DefaultLoginGuardConfig(), testLogger())
	guard.now = func() time.Time { return current }
	return guard, &current
}

func TestLoginGuard_NotLockedBelowThreshold(t *testing.T) {
	guard, _ := newTestGuard(t)

	for i := 0; i < 4; i++ {
		guard.RecordFailure("203.0.113.7")
	}

	locked, remaining := guard.IsLocked("203.0.113.7")
	assert.False(t, locked)
	assert.Zero(t, remaining)
}

func TestLoginGuard_FifthFailureLocks(t *testing.T) {
	guard, _ := newTestGuard(t)

	for i := 0; i < 5; i++ {
		guard.RecordFailure("203.0.113.7")
	}

	locked, remaining := guard.IsLocked("203.0.113.7")
	require.True(t, locked)
	assert.Equal(t, 15*time.Minute, remaining)
}

func TestLoginGuard_RemainingCountsDown(t *testing.T) {
	guard, clock := newTestGuard(t)

	for i := 0; i < 5; i++ {
		guard.RecordFailure("203.0.113.7")
	}

	*clock = clock.Add(14*time.Minute + 59*time.Second + 400*time.Millisecond)

	locked, remaining := guard.IsLocked("203.0.113.7")
	require.True(t, locked)
	// Truncated to whole seconds, never rounded up.
	assert.Equal(t, 0*time.Second, remaining)
}

func TestLoginGuard_LockExpires(t *testing.T) {
	guard, clock := newTestGuard(t)

	for i := 0; i < 5; i++ {
		guard.RecordFailure("203.0.113.7")
	}

	*clock = clock.Add(15*time.Minute + time.Second)

	locked, _ := guard.IsLocked("203.0.113.7")
	assert.False(t, locked)
}

func TestLoginGuard_FailureAfterExpiryRelocksImmediately(t *testing.T) {
	guard, clock := newTestGuard(t)

	for i := 0; i < 5; i++ {
		guard.RecordFailure("203.0.113.7")
	}

	// Lockout lapses but the record survives, so the count is already at
	// the threshold. One more failure re-arms the full lockout window.
	*clock = clock.Add(16 * time.Minute)
	locked, _ := guard.IsLocked("203.0.113.7")
	require.False(t, locked)

	guard.RecordFailure("203.0.113.7")

	locked, remaining := guard.IsLocked("203.0.113.7")
	require.True(t, locked)
	assert.Equal(t, 15*time.Minute, remaining)
}

func TestLoginGuard_FailureWhileLockedExtendsWindow(t *testing.T) {
	guard, clock := newTestGuard(t)

	for i := 0; i < 5; i++ {
		guard.RecordFailure("203.0.113.7")
	}

	*clock = clock.Add(10 * time.Minute)
	guard.RecordFailure("203.0.113.7")

	locked, remaining := guard.IsLocked("203.0.113.7")
	require.True(t, locked)
	assert.Equal(t, 15*time.Minute, remaining)
}

func TestLoginGuard_SuccessResetsCount(t *testing.T) {
	guard, _ := newTestGuard(t)

	for i := 0; i < 4; i++ {
		guard.RecordFailure("203.0.113.7")
	}
	guard.RecordSuccess("203.0.113.7")

	// The record is gone entirely: four more failures still do not lock.
	for i := 0; i < 4; i++ {
		guard.RecordFailure("203.0.113.7")
	}
	locked, _ := guard.IsLocked("203.0.113.7")
	assert.False(t, locked)

	guard.RecordFailure("203.0.113.7")
	locked, _ = guard.IsLocked("203.0.113.7")
	assert.True(t, locked)
}

func TestLoginGuard_ClientsTrackedIndependently(t *testing.T) {
	guard, _ := newTestGuard(t)

	for i := 0; i < 5; i++ {
		guard.RecordFailure("203.0.113.7")
	}
	guard.RecordFailure("198.51.100.9")

	locked, _ := guard.IsLocked("203.0.113.7")
	assert.True(t, locked)

	locked, _ = guard.IsLocked("198.51.100.9")
	assert.False(t, locked)
}

func TestLoginGuard_UnknownClientNotLocked(t *testing.T) {
	guard, _ := newTestGuard(t)

	locked, remaining := guard.IsLocked("203.0.113.7")
	assert.False(t, locked)
	assert.Zero(t, remaining)
}

func TestLoginGuard_SweepEvictsIdleRecords(t *testing.T) {
	guard, clock := newTestGuard(t)
	store := repositories.NewMemoryAttemptStore()
	guard.store = store

	guard.RecordFailure("203.0.113.7")
	*clock = clock.Add(31 * time.Minute)
	guard.RecordFailure("198.51.100.9")

	removed := guard.Sweep()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, store.Len())

	_, ok := store.Get("198.51.100.9")
	assert.True(t, ok)
}
