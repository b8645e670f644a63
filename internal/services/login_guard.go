package services

import (
	"log/slog"
	"time"

	"github.com/tuanvn/tourbook/internal/models"
)

// AttemptStore defines the backing store for login-attempt tracking.
// The default is an in-memory map; a shared cache can be swapped in for
// horizontally scaled deployments.
type AttemptStore interface {
	Get(clientID string) (models.LoginAttempt, bool)
	Increment(clientID string, now time.Time) models.LoginAttempt
	Delete(clientID string)
	DeleteIdleSince(cutoff time.Time) int
}

// LoginGuardConfig holds the lockout policy.
type LoginGuardConfig struct {
	MaxAttempts     int
	LockoutDuration time.Duration
}

// DefaultLoginGuardConfig returns the standard policy: five failures lock
// the client out for fifteen minutes.
func DefaultLoginGuardConfig() LoginGuardConfig {
	return LoginGuardConfig{
		MaxAttempts:     5,
		LockoutDuration: 15 * time.Minute,
	}
}

// LoginGuard rate-limits authentication attempts per client identifier to
// blunt brute-force attacks. It is checked before credential verification
// and never returns errors; denying the request is its only failure mode.
type LoginGuard struct {
	store  AttemptStore
	config LoginGuardConfig
	logger *slog.Logger

	now func() time.Time
}

// NewLoginGuard creates a LoginGuard over the given attempt store.
func NewLoginGuard(store AttemptStore, config LoginGuardConfig, logger *slog.Logger) *LoginGuard {
	return &LoginGuard{
		store:  store,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// RecordFailure increments the failure count for a client identifier and
// refreshes its timestamp, creating the record on first failure. A failure
// while already over the threshold extends the effective lockout window.
func (g *LoginGuard) RecordFailure(clientID string) {
	record := g.store.Increment(clientID, g.now())

	if record.Count == g.config.MaxAttempts {
		g.logger.Warn("client locked out",
			slog.String("client_id", clientID),
			slog.Int("failed_attempts", record.Count),
			slog.Duration("lockout_duration", g.config.LockoutDuration))
	}
}

// IsLocked reports whether the client identifier is currently locked and,
// if so, the remaining lockout time truncated to whole seconds.
func (g *LoginGuard) IsLocked(clientID string) (bool, time.Duration) {
	record, ok := g.store.Get(clientID)
	if !ok || record.Count < g.config.MaxAttempts {
		return false, 0
	}

	lockoutEnd := record.LastAttemptAt.Add(g.config.LockoutDuration)
	remaining := lockoutEnd.Sub(g.now())
	if remaining <= 0 {
		// The record stays; further failures count toward re-triggering
		// the lockout until a success removes it.
		return false, 0
	}

	return true, remaining.Truncate(time.Second)
}

// RecordSuccess removes the tracking record entirely. The next failure
// starts counting from one again.
func (g *LoginGuard) RecordSuccess(clientID string) {
	g.store.Delete(clientID)
}

// Sweep evicts records idle past lockout expiry plus a grace period equal
// to the lockout duration. Returns how many records were removed.
func (g *LoginGuard) Sweep() int {
	cutoff := g.now().Add(-2 * g.config.LockoutDuration)
	removed := g.store.DeleteIdleSince(cutoff)
	if removed > 0 {
		g.logger.Info("login attempt records evicted", slog.Int("removed", removed))
	}
	return removed
}
