package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/tuanvn/tourbook/internal/auth"
	"github.com/tuanvn/tourbook/internal/models"
	pkghttp "github.com/tuanvn/tourbook/pkg/http"
)

// FavoriteServiceInterface defines the interface for favorite business logic
type FavoriteServiceInterface interface {
	ListFavorites(ctx context.Context, userID int64) ([]*models.Favorite, error)
	AddFavorite(ctx context.Context, userID, tourID int64) error
	RemoveFavorite(ctx context.Context, userID, tourID int64) error
	IsFavorite(ctx context.Context, userID, tourID int64) (bool, error)
}

// FavoriteHandler handles the saved-tours endpoints.
type FavoriteHandler struct {
	service FavoriteServiceInterface
}

func NewFavoriteHandler(service FavoriteServiceInterface) *FavoriteHandler {
	return &FavoriteHandler{service: service}
}

// List returns the user's saved tours.
func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	favorites, err := h.service.ListFavorites(r.Context(), session.UserID)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, favorites)
}

// Add saves a tour.
func (h *FavoriteHandler) Add(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	tourID, err := idParam(r, "tourID")
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid tour id")
		return
	}

	if err := h.service.AddFavorite(r.Context(), session.UserID, tourID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Tour not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Remove unsaves a tour.
func (h *FavoriteHandler) Remove(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	tourID, err := idParam(r, "tourID")
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid tour id")
		return
	}

	if err := h.service.RemoveFavorite(r.Context(), session.UserID, tourID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Favorite not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Status reports whether the user saved the tour, for toggling the heart
// button on the tour detail page.
func (h *FavoriteHandler) Status(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	tourID, err := idParam(r, "tourID")
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid tour id")
		return
	}

	saved, err := h.service.IsFavorite(r.Context(), session.UserID, tourID)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]bool{"favorite": saved})
}
