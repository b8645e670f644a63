package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tuanvn/tourbook/internal/auth"
	"github.com/tuanvn/tourbook/internal/models"
	pkgauth "github.com/tuanvn/tourbook/pkg/auth"
	"github.com/tuanvn/tourbook/pkg/logger"
)

// UserStore is the persistence surface the auth service needs.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByRememberToken(ctx context.Context, token string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, id int64, user *models.User) (*models.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateRememberToken(ctx context.Context, id int64, token string, expiry time.Time) error
	ClearRememberToken(ctx context.Context, id int64) error
}

// RegisterInput carries a validated registration request.
type RegisterInput struct {
	FullName string
	Email    string
	Phone    string
	Password string
}

// UpdateProfileInput carries a validated profile update.
type UpdateProfileInput struct {
	FullName string
	Phone    string
}

// LoginResult is what a successful authentication hands back to the handler:
// the user plus the cookie values to set.
type LoginResult struct {
	User          *models.User
	SessionToken  string
	RememberToken string
}

// AuthService owns registration, login and account maintenance. Login runs
// through the guard before credentials are ever checked, so a locked client
// learns nothing about whether the password was right.
type AuthService struct {
	users            UserStore
	guard            *LoginGuard
	sessions         *auth.SessionManager
	audit            *logger.AuditLogger
	rememberTokenTTL time.Duration
}

func NewAuthService(
	users UserStore,
	guard *LoginGuard,
	sessions *auth.SessionManager,
	audit *logger.AuditLogger,
	rememberTokenTTL time.Duration,
) *AuthService {
	return &AuthService{
		users:            users,
		guard:            guard,
		sessions:         sessions,
		audit:            audit,
		rememberTokenTTL: rememberTokenTTL,
	}
}

// Register creates a new customer account. Email uniqueness is enforced by
// the database; a duplicate surfaces as ErrConflict.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if err := pkgauth.ValidatePassword(input.Password); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), models.ErrBadRequest)
	}

	hash, err := pkgauth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.Create(ctx, &models.User{
		FullName:     strings.TrimSpace(input.FullName),
		Email:        email,
		Phone:        strings.TrimSpace(input.Phone),
		PasswordHash: hash,
		Role:         models.RoleUser,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, fmt.Errorf("email already registered: %w", models.ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.audit.LogAuthAttempt(logger.AuditEvent{
		EventType: "register",
		UserID:    user.ID,
		Success:   true,
	})

	return user, nil
}

// Login authenticates an email/password pair from the given client address.
// The guard is consulted first: a locked client is refused outright with a
// LockedError carrying the remaining wait. Failed credentials count against
// the client; success clears its record entirely.
func (s *AuthService) Login(ctx context.Context, email, password, clientIP string, rememberMe bool) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if locked, remaining := s.guard.IsLocked(clientIP); locked {
		s.audit.LogAuthAttempt(logger.AuditEvent{
			EventType:     "login",
			IPAddress:     clientIP,
			Success:       false,
			FailureReason: "locked_out",
		})
		return nil, &models.LockedError{RetryAfter: remaining}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, s.failLogin(clientIP, "unknown_email")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, s.failLogin(clientIP, "bad_password")
	}

	s.guard.RecordSuccess(clientIP)

	sessionToken, err := s.sessions.Create(user)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	result := &LoginResult{User: user, SessionToken: sessionToken}

	if rememberMe {
		result.RememberToken, err = s.issueRememberToken(ctx, user.ID)
		if err != nil {
			return nil, err
		}
	}

	s.audit.LogAuthAttempt(logger.AuditEvent{
		EventType: "login",
		UserID:    user.ID,
		IPAddress: clientIP,
		Success:   true,
	})

	return result, nil
}

func (s *AuthService) failLogin(clientIP, reason string) error {
	s.guard.RecordFailure(clientIP)
	s.audit.LogAuthAttempt(logger.AuditEvent{
		EventType:     "login",
		IPAddress:     clientIP,
		Success:       false,
		FailureReason: reason,
	})
	return fmt.Errorf("invalid email or password: %w", models.ErrUnauthorized)
}

// LoginWithRememberToken re-establishes a session from a remember-me cookie.
// The token is single-use: a fresh one is issued on every successful
// auto-login, so a stolen cookie stops working as soon as the owner uses it.
func (s *AuthService) LoginWithRememberToken(ctx context.Context, token string) (*LoginResult, error) {
	if token == "" {
		return nil, models.ErrUnauthorized
	}

	user, err := s.users.GetByRememberToken(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to look up remember token: %w", err)
	}

	sessionToken, err := s.sessions.Create(user)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	rotated, err := s.issueRememberToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.audit.LogAuthAttempt(logger.AuditEvent{
		EventType: "auto_login",
		UserID:    user.ID,
		Success:   true,
	})

	return &LoginResult{User: user, SessionToken: sessionToken, RememberToken: rotated}, nil
}

func (s *AuthService) issueRememberToken(ctx context.Context, userID int64) (string, error) {
	token, err := pkgauth.GenerateRememberToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate remember token: %w", err)
	}

	expiry := time.Now().Add(s.rememberTokenTTL)
	if err := s.users.UpdateRememberToken(ctx, userID, token, expiry); err != nil {
		return "", fmt.Errorf("failed to store remember token: %w", err)
	}
	return token, nil
}

// Logout destroys the server-side session and invalidates the user's
// remember token so neither cookie works again.
func (s *AuthService) Logout(ctx context.Context, session *auth.Session) error {
	s.sessions.Destroy(session.ID)

	if err := s.users.ClearRememberToken(ctx, session.UserID); err != nil && !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to clear remember token: %w", err)
	}

	s.audit.LogAuthAttempt(logger.AuditEvent{
		EventType: "logout",
		UserID:    session.UserID,
		Success:   true,
	})
	return nil
}

// UpdateProfile changes the user's display fields and refreshes the session
// so the new name shows up immediately.
func (s *AuthService) UpdateProfile(ctx context.Context, session *auth.Session, input UpdateProfileInput) (*models.User, error) {
	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	user.FullName = strings.TrimSpace(input.FullName)
	user.Phone = strings.TrimSpace(input.Phone)

	updated, err := s.users.Update(ctx, user.ID, user)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.sessions.Refresh(session.ID, updated)
	return updated, nil
}

// ChangePassword verifies the current password before setting a new one.
func (s *AuthService) ChangePassword(ctx context.Context, session *auth.Session, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return err
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return fmt.Errorf("current password is incorrect: %w", models.ErrUnauthorized)
	}

	if err := pkgauth.ValidatePassword(newPassword); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), models.ErrBadRequest)
	}

	hash, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.audit.LogAccountAction("password_changed", user.ID, "", nil)
	return nil
}
