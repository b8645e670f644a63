package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/tuanvn/tourbook/internal/auth"
	"github.com/tuanvn/tourbook/internal/repositories"
	"github.com/tuanvn/tourbook/internal/services"
)

// CleanupManager periodically evicts stale login-attempt records, expired
// sessions, and expired remember tokens.
type CleanupManager struct {
	guard    *services.LoginGuard
	sessions *auth.SessionManager
	users    *repositories.UserRepository
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	guard *services.LoginGuard,
	sessions *auth.SessionManager,
	users *repositories.UserRepository,
	logger *slog.Logger,
	interval time.Duration,
) *CleanupManager {
	return &CleanupManager{
		guard:    guard,
		sessions: sessions,
		users:    users,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	attemptsEvicted := cm.guard.Sweep()
	sessionsEvicted := cm.sessions.DeleteExpired()

	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	tokensCleared, err := cm.users.ClearExpiredRememberTokens(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to clear expired remember tokens", slog.Any("error", err))
	}

	if attemptsEvicted > 0 || sessionsEvicted > 0 || tokensCleared > 0 {
		cm.logger.Info("cleanup completed",
			slog.Int("login_attempts_evicted", attemptsEvicted),
			slog.Int("sessions_evicted", sessionsEvicted),
			slog.Int64("remember_tokens_cleared", tokensCleared))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
