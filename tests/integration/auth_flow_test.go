package integration

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvn/tourbook/internal/auth"
	"github.com/tuanvn/tourbook/internal/models"
	pkghttp "github.com/tuanvn/tourbook/pkg/http"
)

func TestRegisterLoginAndMe(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.CleanupTables(ctx))

	email, password := TestUser("register")

	resp, err := testServer.Request(http.MethodPost, "/api/auth/register", map[string]interface{}{
		"full_name": "Nguyen Van A",
		"email":     email,
		"password":  password,
	}, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	cookie, loginResp, err := testServer.Login(email, password)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	require.NotNil(t, cookie, "login should set a session cookie")
	assert.True(t, cookie.HttpOnly)
	loginResp.Body.Close()

	meResp, err := testServer.Request(http.MethodGet, "/api/auth/me", nil, []*http.Cookie{cookie})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, meResp.StatusCode)

	var me struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	require.NoError(t, ParseJSONResponse(meResp, &me))
	assert.Equal(t, email, me.Email)
	assert.Equal(t, models.RoleUser, me.Role)
}

func TestLoginRequiresSessionForProtectedRoutes(t *testing.T) {
	resp, err := testServer.Request(http.MethodGet, "/api/bookings", nil, nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginLockoutAfterRepeatedFailures(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.CleanupTables(ctx))

	email, password := TestUser("lockout")
	_, err := SeedUser(ctx, testDB.Pool, "Locked Out", email, password, models.RoleUser)
	require.NoError(t, err)

	clientHeaders := map[string]string{"X-Forwarded-For": "198.51.100.10"}

	// Five wrong passwords from the same client
	for i := 0; i < 5; i++ {
		resp, err := testServer.RequestWithHeaders(http.MethodPost, "/api/auth/login", map[string]interface{}{
			"email":    email,
			"password": "wrong-password",
		}, nil, clientHeaders)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	}

	// Even the correct password is refused while locked
	resp, err := testServer.RequestWithHeaders(http.MethodPost, "/api/auth/login", map[string]interface{}{
		"email":    email,
		"password": password,
	}, nil, clientHeaders)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	var errResp pkghttp.ErrorResponse
	require.NoError(t, ParseJSONResponse(resp, &errResp))
	assert.Equal(t, "account_locked", errResp.Error)

	// A different client is unaffected
	otherResp, err := testServer.RequestWithHeaders(http.MethodPost, "/api/auth/login", map[string]interface{}{
		"email":    email,
		"password": password,
	}, nil, map[string]string{"X-Forwarded-For": "198.51.100.11"})
	require.NoError(t, err)
	defer otherResp.Body.Close()
	assert.Equal(t, http.StatusOK, otherResp.StatusCode)
}

func TestRememberMeTokenRotation(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.CleanupTables(ctx))

	email, password := TestUser("remember")
	_, err := SeedUser(ctx, testDB.Pool, "Remember Me", email, password, models.RoleUser)
	require.NoError(t, err)

	resp, err := testServer.Request(http.MethodPost, "/api/auth/login", map[string]interface{}{
		"email":       email,
		"password":    password,
		"remember_me": true,
	}, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rememberCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == auth.RememberCookieName {
			rememberCookie = c
		}
	}
	resp.Body.Close()
	require.NotNil(t, rememberCookie, "remember_me login should set the auth token cookie")

	// Auto-login consumes the token and issues a fresh one
	autoResp, err := testServer.Request(http.MethodPost, "/api/auth/auto-login", nil, []*http.Cookie{rememberCookie})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, autoResp.StatusCode)

	var rotated *http.Cookie
	for _, c := range autoResp.Cookies() {
		if c.Name == auth.RememberCookieName {
			rotated = c
		}
	}
	autoResp.Body.Close()
	require.NotNil(t, rotated)
	assert.NotEqual(t, rememberCookie.Value, rotated.Value, "auto-login should rotate the remember token")

	// The consumed token no longer works
	replayResp, err := testServer.Request(http.MethodPost, "/api/auth/auto-login", nil, []*http.Cookie{rememberCookie})
	require.NoError(t, err)
	defer replayResp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, replayResp.StatusCode)
}
