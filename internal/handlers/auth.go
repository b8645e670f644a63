package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/tuanvn/tourbook/internal/auth"
	"github.com/tuanvn/tourbook/internal/models"
	"github.com/tuanvn/tourbook/internal/services"
	pkghttp "github.com/tuanvn/tourbook/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Register(ctx context.Context, input services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password, clientIP string, rememberMe bool) (*services.LoginResult, error)
	LoginWithRememberToken(ctx context.Context, token string) (*services.LoginResult, error)
	Logout(ctx context.Context, session *auth.Session) error
	UpdateProfile(ctx context.Context, session *auth.Session, input services.UpdateProfileInput) (*models.User, error)
	ChangePassword(ctx context.Context, session *auth.Session, currentPassword, newPassword string) error
}

// AuthHandler handles registration, login and account endpoints.
type AuthHandler struct {
	service          AuthServiceInterface
	cookies          auth.CookieConfig
	rememberTokenTTL time.Duration
}

func NewAuthHandler(service AuthServiceInterface, cookies auth.CookieConfig, rememberTokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		service:          service,
		cookies:          cookies,
		rememberTokenTTL: rememberTokenTTL,
	}
}

// Request/response DTOs

type RegisterRequest struct {
	FullName string `json:"full_name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,min=8,max=20"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"remember_me"`
}

type UpdateProfileRequest struct {
	FullName string `json:"full_name" validate:"required,min=1,max=100"`
	Phone    string `json:"phone" validate:"omitempty,min=8,max=20"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

// UserResponse is the account view returned to clients. The password hash
// and remember token never leave the server.
type UserResponse struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role"`
}

func toUserResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:       user.ID,
		FullName: user.FullName,
		Email:    user.Email,
		Phone:    user.Phone,
		Role:     user.Role,
	}
}

// Register handles account creation
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	user, err := h.service.Register(r.Context(), services.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "Email is already registered")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, err.Error())
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, toUserResponse(user))
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	clientIP := pkghttp.ExtractClientIP(r)

	result, err := h.service.Login(r.Context(), req.Email, req.Password, clientIP, req.RememberMe)
	if err != nil {
		var locked *models.LockedError
		switch {
		case errors.As(err, &locked):
			pkghttp.WriteLocked(w, "Too many failed login attempts. Please try again later.",
				int(locked.RetryAfter.Seconds()))
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteUnauthorized(w, "Invalid email or password")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	auth.SetSessionCookie(w, result.SessionToken, h.cookies)
	if result.RememberToken != "" {
		auth.SetRememberCookie(w, result.RememberToken, h.rememberTokenTTL, h.cookies)
	}

	pkghttp.WriteJSON(w, http.StatusOK, toUserResponse(result.User))
}

// AutoLogin re-establishes a session from the remember-me cookie. Used by
// clients on startup when no session cookie is present.
func (h *AuthHandler) AutoLogin(w http.ResponseWriter, r *http.Request) {
	token, err := auth.GetRememberCookie(r)
	if err != nil {
		pkghttp.WriteUnauthorized(w, "No remember token")
		return
	}

	result, err := h.service.LoginWithRememberToken(r.Context(), token)
	if err != nil {
		auth.ClearRememberCookie(w, h.cookies)
		if errors.Is(err, models.ErrUnauthorized) {
			pkghttp.WriteUnauthorized(w, "Remember token is invalid or expired")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	auth.SetSessionCookie(w, result.SessionToken, h.cookies)
	auth.SetRememberCookie(w, result.RememberToken, h.rememberTokenTTL, h.cookies)

	pkghttp.WriteJSON(w, http.StatusOK, toUserResponse(result.User))
}

// Logout destroys the session and clears both cookies.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	if err := h.service.Logout(r.Context(), session); err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	auth.ClearSessionCookie(w, h.cookies)
	auth.ClearRememberCookie(w, h.cookies)

	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated user's profile as seen by the session.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, UserResponse{
		ID:       session.UserID,
		FullName: session.FullName,
		Email:    session.Email,
		Phone:    session.Phone,
		Role:     session.Role,
	})
}

// UpdateProfile changes the user's display fields.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), session, services.UpdateProfileInput{
		FullName: req.FullName,
		Phone:    req.Phone,
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Account not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// ChangePassword verifies the current password and sets a new one.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	err := h.service.ChangePassword(r.Context(), session, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteUnauthorized(w, "Current password is incorrect")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, err.Error())
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
