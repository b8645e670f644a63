package auth

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tuanvn/tourbook/internal/models"
)

// Session holds the server-side state for one logged-in user. The cookie
// only carries a signed session ID; the fields live here.
type Session struct {
	ID        string
	UserID    int64
	FullName  string
	Email     string
	Phone     string
	Role      string
	ExpiresAt time.Time
}

// IsAdmin reports whether the session belongs to an administrator.
func (s *Session) IsAdmin() bool {
	return s.Role == models.RoleAdmin
}

// SessionManager issues and validates session cookies. The cookie value is
// an HS256-signed token wrapping the session ID, so a tampered cookie fails
// before any store lookup. Session data itself stays server-side.
type SessionManager struct {
	secret string
	ttl    time.Duration

	mu       sync.Mutex
	sessions map[string]*Session

	now func() time.Time
}

// NewSessionManager creates a session manager with the given signing secret
// and idle timeout.
func NewSessionManager(secret string, ttl time.Duration) *SessionManager {
	return &SessionManager{
		secret:   secret,
		ttl:      ttl,
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Create starts a fresh session for a user and returns the signed cookie
// value. A new session ID is generated every time, so logging in always
// rotates the session (session-fixation defense).
func (sm *SessionManager) Create(user *models.User) (string, error) {
	sid := uuid.New().String()
	now := sm.now()

	session := &Session{
		ID:        sid,
		UserID:    user.ID,
		FullName:  user.FullName,
		Email:     user.Email,
		Phone:     user.Phone,
		Role:      user.Role,
		ExpiresAt: now.Add(sm.ttl),
	}

	claims := jwt.RegisteredClaims{
		ID:        sid,
		ExpiresAt: jwt.NewNumericDate(now.Add(sm.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(sm.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	sm.mu.Lock()
	sm.sessions[sid] = session
	sm.mu.Unlock()

	return signed, nil
}

// Validate verifies the cookie signature, resolves the session and slides
// its expiry forward. Returns ErrUnauthorized for anything invalid.
func (sm *SessionManager) Validate(cookieValue string) (*Session, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(cookieValue, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(sm.secret), nil
	})
	if err != nil || !token.Valid || claims.ID == "" {
		return nil, models.ErrUnauthorized
	}

	now := sm.now()

	sm.mu.Lock()
	defer sm.mu.Unlock()

	session, ok := sm.sessions[claims.ID]
	if !ok || now.After(session.ExpiresAt) {
		delete(sm.sessions, claims.ID)
		return nil, models.ErrUnauthorized
	}

	// Idle timeout: each authenticated request extends the session.
	session.ExpiresAt = now.Add(sm.ttl)

	copied := *session
	return &copied, nil
}

// Refresh replaces the stored profile fields after a profile update so the
// session reflects the new name/phone without a re-login.
func (sm *SessionManager) Refresh(sid string, user *models.User) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if session, ok := sm.sessions[sid]; ok {
		session.FullName = user.FullName
		session.Phone = user.Phone
		session.Role = user.Role
	}
}

// Destroy removes a session.
func (sm *SessionManager) Destroy(sid string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	delete(sm.sessions, sid)
}

// DeleteExpired evicts sessions past their idle timeout and returns how
// many were removed.
func (sm *SessionManager) DeleteExpired() int {
	now := sm.now()

	sm.mu.Lock()
	defer sm.mu.Unlock()

	removed := 0
	for sid, session := range sm.sessions {
		if now.After(session.ExpiresAt) {
			delete(sm.sessions, sid)
			removed++
		}
	}
	return removed
}
