package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuanvn/tourbook/internal/auth"
	"github.com/tuanvn/tourbook/internal/models"
	"github.com/tuanvn/tourbook/internal/repositories"
	pkgauth "github.com/tuanvn/tourbook/pkg/auth"
)

const testSessionSecret = "0123456789abcdef0123456789abcdef"

func newAuthService(users *MockUserStore) (*AuthService, *LoginGuard) {
	guard := NewLoginGuard(repositories.NewMemoryAttemptStore(), DefaultLoginGuardConfig(), testLogger())
	sessions := auth.NewSessionManager(testSessionSecret, 30*time.Minute)
	return NewAuthService(users, guard, sessions, testAuditLogger(), 7*24*time.Hour), guard
}

func userWithPassword(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := pkgauth.HashPassword(password)
	require.NoError(t, err)
	return &models.User{ID: 7, FullName: "Nguyen Van A", Email: "a@example.com", PasswordHash: hash, Role: models.RoleUser}
}

func TestLogin_Success(t *testing.T) {
	user := userWithPassword(t, "correct-horse-9")
	users := &MockUserStore{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			if email == "a@example.com" {
				return user, nil
			}
			return nil, models.ErrNotFound
		},
	}
	svc, _ := newAuthService(users)

	result, err := svc.Login(context.Background(), "A@Example.com", "correct-horse-9", "203.0.113.7", false)
	require.NoError(t, err)
	assert.Equal(t, int64(7), result.User.ID)
	assert.NotEmpty(t, result.SessionToken)
	assert.Empty(t, result.RememberToken)
}

func TestLogin_WrongPasswordCountsFailure(t *testing.T) {
	user := userWithPassword(t, "correct-horse-9")
	users := &MockUserStore{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) { return user, nil },
	}
	svc, guard := newAuthService(users)

	_, err := svc.Login(context.Background(), "a@example.com", "wrong", "203.0.113.7", false)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	locked, _ := guard.IsLocked("203.0.113.7")
	assert.False(t, locked)
}

func TestLogin_UnknownEmailCountsFailure(t *testing.T) {
	svc, guard := newAuthService(&MockUserStore{})

	for i := 0; i < 5; i++ {
		_, err := svc.Login(context.Background(), "nobody@example.com", "whatever", "203.0.113.7", false)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	}

	locked, _ := guard.IsLocked("203.0.113.7")
	assert.True(t, locked)
}

func TestLogin_LockedClientRefusedBeforeCredentialCheck(t *testing.T) {
	lookups := 0
	user := userWithPassword(t, "correct-horse-9")
	users := &MockUserStore{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			lookups++
			return user, nil
		},
	}
	svc, guard := newAuthService(users)

	for i := 0; i < 5; i++ {
		guard.RecordFailure("203.0.113.7")
	}

	// Even the right password is refused while locked, and the account is
	// never looked up.
	_, err := svc.Login(context.Background(), "a@example.com", "correct-horse-9", "203.0.113.7", false)

	var locked *models.LockedError
	require.ErrorAs(t, err, &locked)
	assert.Greater(t, locked.RetryAfter, 14*time.Minute)
	assert.Zero(t, lookups)
}

func TestLogin_OtherClientsUnaffectedByLockout(t *testing.T) {
	user := userWithPassword(t, "correct-horse-9")
	users := &MockUserStore{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) { return user, nil },
	}
	svc, guard := newAuthService(users)

	for i := 0; i < 5; i++ {
		guard.RecordFailure("203.0.113.7")
	}

	_, err := svc.Login(context.Background(), "a@example.com", "correct-horse-9", "198.51.100.9", false)
	assert.NoError(t, err)
}

func TestLogin_SuccessClearsFailureRecord(t *testing.T) {
	user := userWithPassword(t, "correct-horse-9")
	users := &MockUserStore{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) { return user, nil },
	}
	svc, guard := newAuthService(users)

	for i := 0; i < 4; i++ {
		_, _ = svc.Login(context.Background(), "a@example.com", "wrong", "203.0.113.7", false)
	}

	_, err := svc.Login(context.Background(), "a@example.com", "correct-horse-9", "203.0.113.7", false)
	require.NoError(t, err)

	// Counting starts over: four fresh failures do not lock.
	for i := 0; i < 4; i++ {
		_, _ = svc.Login(context.Background(), "a@example.com", "wrong", "203.0.113.7", false)
	}
	locked, _ := guard.IsLocked("203.0.113.7")
	assert.False(t, locked)
}

func TestLogin_RememberMeIssuesToken(t *testing.T) {
	var storedToken string
	user := userWithPassword(t, "correct-horse-9")
	users := &MockUserStore{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) { return user, nil },
		UpdateRememberTokenFunc: func(ctx context.Context, id int64, token string, expiry time.Time) error {
			storedToken = token
			assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), expiry, time.Minute)
			return nil
		},
	}
	svc, _ := newAuthService(users)

	result, err := svc.Login(context.Background(), "a@example.com", "correct-horse-9", "203.0.113.7", true)
	require.NoError(t, err)
	assert.NotEmpty(t, result.RememberToken)
	assert.Equal(t, storedToken, result.RememberToken)
}

func TestLoginWithRememberToken_RotatesToken(t *testing.T) {
	user := userWithPassword(t, "correct-horse-9")
	var storedToken string
	users := &MockUserStore{
		GetByRememberTokenFunc: func(ctx context.Context, token string) (*models.User, error) {
			if token == "old-token" {
				return user, nil
			}
			return nil, models.ErrNotFound
		},
		UpdateRememberTokenFunc: func(ctx context.Context, id int64, token string, expiry time.Time) error {
			storedToken = token
			return nil
		},
	}
	svc, _ := newAuthService(users)

	result, err := svc.LoginWithRememberToken(context.Background(), "old-token")
	require.NoError(t, err)
	assert.NotEmpty(t, result.SessionToken)
	assert.NotEqual(t, "old-token", result.RememberToken)
	assert.Equal(t, storedToken, result.RememberToken)
}

func TestLoginWithRememberToken_UnknownTokenUnauthorized(t *testing.T) {
	svc, _ := newAuthService(&MockUserStore{})

	_, err := svc.LoginWithRememberToken(context.Background(), "bogus")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestRegister_Success(t *testing.T) {
	users := &MockUserStore{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			user.ID = 8
			return user, nil
		},
	}
	svc, _ := newAuthService(users)

	user, err := svc.Register(context.Background(), RegisterInput{
		FullName: "Tran Thi B",
		Email:    "  B@Example.com ",
		Phone:    "0901234567",
		Password: "strong-pass-22",
	})
	require.NoError(t, err)
	assert.Equal(t, "b@example.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "strong-pass-22", user.PasswordHash)
	assert.NoError(t, pkgauth.ComparePassword(user.PasswordHash, "strong-pass-22"))
}

func TestRegister_DuplicateEmailConflict(t *testing.T) {
	users := &MockUserStore{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			return nil, models.ErrConflict
		},
	}
	svc, _ := newAuthService(users)

	_, err := svc.Register(context.Background(), RegisterInput{
		FullName: "Tran Thi B",
		Email:    "b@example.com",
		Password: "strong-pass-22",
	})
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestRegister_WeakPasswordRejected(t *testing.T) {
	svc, _ := newAuthService(&MockUserStore{})

	_, err := svc.Register(context.Background(), RegisterInput{
		FullName: "Tran Thi B",
		Email:    "b@example.com",
		Password: "short",
	})
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestChangePassword_WrongCurrentRejected(t *testing.T) {
	user := userWithPassword(t, "correct-horse-9")
	users := &MockUserStore{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.User, error) { return user, nil },
	}
	svc, _ := newAuthService(users)

	session := &auth.Session{ID: "sid", UserID: 7}
	err := svc.ChangePassword(context.Background(), session, "wrong", "brand-new-pass-1")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestChangePassword_Success(t *testing.T) {
	user := userWithPassword(t, "correct-horse-9")
	var newHash string
	users := &MockUserStore{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.User, error) { return user, nil },
		UpdatePasswordFunc: func(ctx context.Context, id int64, passwordHash string) error {
			newHash = passwordHash
			return nil
		},
	}
	svc, _ := newAuthService(users)

	session := &auth.Session{ID: "sid", UserID: 7}
	err := svc.ChangePassword(context.Background(), session, "correct-horse-9", "brand-new-pass-1")
	require.NoError(t, err)
	assert.NoError(t, pkgauth.ComparePassword(newHash, "brand-new-pass-1"))
}

func TestLogout_ClearsRememberToken(t *testing.T) {
	cleared := false
	users := &MockUserStore{
		ClearRememberTokenFunc: func(ctx context.Context, id int64) error {
			cleared = true
			return nil
		},
	}
	svc, _ := newAuthService(users)

	err := svc.Logout(context.Background(), &auth.Session{ID: "sid", UserID: 7})
	require.NoError(t, err)
	assert.True(t, cleared)
}

func TestLogout_MissingTokenRecordIgnored(t *testing.T) {
	users := &MockUserStore{
		ClearRememberTokenFunc: func(ctx context.Context, id int64) error {
			return models.ErrNotFound
		},
	}
	svc, _ := newAuthService(users)

	err := svc.Logout(context.Background(), &auth.Session{ID: "sid", UserID: 7})
	assert.NoError(t, err)
}

func TestLockedError_Message(t *testing.T) {
	err := &models.LockedError{RetryAfter: 90 * time.Second}
	assert.Contains(t, err.Error(), "90")

	var locked *models.LockedError
	assert.True(t, errors.As(error(err), &locked))
}
