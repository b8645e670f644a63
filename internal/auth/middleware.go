package auth

import (
	"context"
	"net/http"

	pkghttp "github.com/tuanvn/tourbook/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// SessionContextKey is the key for storing the session in context
	SessionContextKey contextKey = "session"
)

// SessionFromContext extracts the session placed by RequireSession.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(SessionContextKey).(*Session)
	return session, ok
}

// RequireSession validates the session cookie and injects the session into
// the request context.
func RequireSession(sm *SessionManager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookieValue, err := GetSessionCookie(r)
			if err != nil {
				pkghttp.WriteUnauthorized(w, "Authentication required")
				return
			}

			session, err := sm.Validate(cookieValue)
			if err != nil {
				pkghttp.WriteUnauthorized(w, "Invalid or expired session")
				return
			}

			ctx := context.WithValue(r.Context(), SessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin allows only sessions holding the administrator role. Must be
// mounted inside RequireSession.
func RequireAdmin() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := SessionFromContext(r.Context())
			if !ok {
				pkghttp.WriteUnauthorized(w, "Authentication required")
				return
			}
			if !session.IsAdmin() {
				pkghttp.WriteForbidden(w, "Administrator access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
