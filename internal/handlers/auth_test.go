package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuanvn/tourbook/internal/auth"
	"github.com/tuanvn/tourbook/internal/models"
	"github.com/tuanvn/tourbook/internal/services"
)

func newAuthHandler(service AuthServiceInterface) *AuthHandler {
	return NewAuthHandler(service, auth.CookieConfig{}, 7*24*time.Hour)
}

func TestLoginHandler_Success(t *testing.T) {
	service := &MockAuthService{
		LoginFunc: func(ctx context.Context, email, password, clientIP string, rememberMe bool) (*services.LoginResult, error) {
			return &services.LoginResult{
				User:         &models.User{ID: 7, FullName: "Nguyen Van A", Email: email, Role: models.RoleUser},
				SessionToken: "session-token",
			}, nil
		},
	}
	handler := newAuthHandler(service)

	req := NewTestRequest(t, http.MethodPost, "/api/auth/login", LoginRequest{
		Email:    "a@example.com",
		Password: "correct-horse-9",
	})
	w := httptest.NewRecorder()
	handler.Login(w, req)

	var resp UserResponse
	AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, int64(7), resp.ID)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.SessionCookieName, cookies[0].Name)
	assert.Equal(t, "session-token", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestLoginHandler_RememberMeSetsSecondCookie(t *testing.T) {
	service := &MockAuthService{
		LoginFunc: func(ctx context.Context, email, password, clientIP string, rememberMe bool) (*services.LoginResult, error) {
			assert.True(t, rememberMe)
			return &services.LoginResult{
				User:          &models.User{ID: 7, Email: email, Role: models.RoleUser},
				SessionToken:  "session-token",
				RememberToken: "remember-token",
			}, nil
		},
	}
	handler := newAuthHandler(service)

	req := NewTestRequest(t, http.MethodPost, "/api/auth/login", LoginRequest{
		Email:      "a@example.com",
		Password:   "correct-horse-9",
		RememberMe: true,
	})
	w := httptest.NewRecorder()
	handler.Login(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	names := map[string]string{}
	for _, c := range w.Result().Cookies() {
		names[c.Name] = c.Value
	}
	assert.Equal(t, "session-token", names[auth.SessionCookieName])
	assert.Equal(t, "remember-token", names[auth.RememberCookieName])
}

func TestLoginHandler_InvalidCredentials(t *testing.T) {
	handler := newAuthHandler(&MockAuthService{
		LoginFunc: func(ctx context.Context, email, password, clientIP string, rememberMe bool) (*services.LoginResult, error) {
			return nil, models.ErrUnauthorized
		},
	})

	req := NewTestRequest(t, http.MethodPost, "/api/auth/login", LoginRequest{
		Email:    "a@example.com",
		Password: "wrong",
	})
	w := httptest.NewRecorder()
	handler.Login(w, req)

	AssertErrorResponse(t, w, http.StatusUnauthorized, "unauthorized")
	assert.Empty(t, w.Result().Cookies())
}

func TestLoginHandler_LockedOutWithRetryAfter(t *testing.T) {
	handler := newAuthHandler(&MockAuthService{
		LoginFunc: func(ctx context.Context, email, password, clientIP string, rememberMe bool) (*services.LoginResult, error) {
			return nil, &models.LockedError{RetryAfter: 840 * time.Second}
		},
	})

	req := NewTestRequest(t, http.MethodPost, "/api/auth/login", LoginRequest{
		Email:    "a@example.com",
		Password: "whatever",
	})
	w := httptest.NewRecorder()
	handler.Login(w, req)

	AssertErrorResponse(t, w, http.StatusTooManyRequests, "account_locked")
	assert.Equal(t, "840", w.Header().Get("Retry-After"))
}

func TestLoginHandler_ClientIPForwarded(t *testing.T) {
	var seenIP string
	handler := newAuthHandler(&MockAuthService{
		LoginFunc: func(ctx context.Context, email, password, clientIP string, rememberMe bool) (*services.LoginResult, error) {
			seenIP = clientIP
			return nil, models.ErrUnauthorized
		},
	})

	req := NewTestRequest(t, http.MethodPost, "/api/auth/login", LoginRequest{
		Email:    "a@example.com",
		Password: "whatever",
	})
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	w := httptest.NewRecorder()
	handler.Login(w, req)

	assert.Equal(t, "203.0.113.7", seenIP)
}

func TestLoginHandler_MissingFieldsRejected(t *testing.T) {
	handler := newAuthHandler(&MockAuthService{})

	req := NewTestRequest(t, http.MethodPost, "/api/auth/login", LoginRequest{Email: "a@example.com"})
	w := httptest.NewRecorder()
	handler.Login(w, req)

	AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
}

func TestRegisterHandler_Success(t *testing.T) {
	service := &MockAuthService{
		RegisterFunc: func(ctx context.Context, input services.RegisterInput) (*models.User, error) {
			return &models.User{ID: 8, FullName: input.FullName, Email: input.Email, Role: models.RoleUser}, nil
		},
	}
	handler := newAuthHandler(service)

	req := NewTestRequest(t, http.MethodPost, "/api/auth/register", RegisterRequest{
		FullName: "Tran Thi B",
		Email:    "b@example.com",
		Password: "strong-pass-22",
	})
	w := httptest.NewRecorder()
	handler.Register(w, req)

	var resp UserResponse
	AssertJSONResponse(t, w, http.StatusCreated, &resp)
	assert.Equal(t, int64(8), resp.ID)
	assert.Equal(t, models.RoleUser, resp.Role)
}

func TestRegisterHandler_DuplicateEmail(t *testing.T) {
	handler := newAuthHandler(&MockAuthService{
		RegisterFunc: func(ctx context.Context, input services.RegisterInput) (*models.User, error) {
			return nil, models.ErrConflict
		},
	})

	req := NewTestRequest(t, http.MethodPost, "/api/auth/register", RegisterRequest{
		FullName: "Tran Thi B",
		Email:    "b@example.com",
		Password: "strong-pass-22",
	})
	w := httptest.NewRecorder()
	handler.Register(w, req)

	AssertErrorResponse(t, w, http.StatusConflict, "conflict")
}

func TestLogoutHandler_ClearsCookies(t *testing.T) {
	handler := newAuthHandler(&MockAuthService{})

	req := WithSession(NewTestRequest(t, http.MethodPost, "/api/auth/logout", nil), 7, models.RoleUser)
	w := httptest.NewRecorder()
	handler.Logout(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	for _, c := range w.Result().Cookies() {
		assert.Equal(t, -1, c.MaxAge, "cookie %s should be expired", c.Name)
	}
	assert.Len(t, w.Result().Cookies(), 2)
}

func TestMeHandler_RequiresSession(t *testing.T) {
	handler := newAuthHandler(&MockAuthService{})

	req := NewTestRequest(t, http.MethodGet, "/api/auth/me", nil)
	w := httptest.NewRecorder()
	handler.Me(w, req)

	AssertErrorResponse(t, w, http.StatusUnauthorized, "unauthorized")
}

func TestAutoLoginHandler_InvalidTokenClearsCookie(t *testing.T) {
	handler := newAuthHandler(&MockAuthService{
		LoginWithRememberTokenFunc: func(ctx context.Context, token string) (*services.LoginResult, error) {
			return nil, models.ErrUnauthorized
		},
	})

	req := NewTestRequest(t, http.MethodPost, "/api/auth/auto-login", nil)
	req.AddCookie(&http.Cookie{Name: auth.RememberCookieName, Value: "stale"})
	w := httptest.NewRecorder()
	handler.AutoLogin(w, req)

	AssertErrorResponse(t, w, http.StatusUnauthorized, "unauthorized")

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.RememberCookieName, cookies[0].Name)
	assert.Equal(t, -1, cookies[0].MaxAge)
}
