package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/tuanvn/tourbook/internal/auth"
	"github.com/tuanvn/tourbook/internal/models"
	"github.com/tuanvn/tourbook/internal/services"
	pkghttp "github.com/tuanvn/tourbook/pkg/http"
)

// BookingServiceInterface defines the interface for booking business logic
type BookingServiceInterface interface {
	CreateBooking(ctx context.Context, user *models.User, input services.CreateBookingInput) (*models.Booking, error)
	GetBooking(ctx context.Context, user *models.User, bookingID int64) (*models.Booking, error)
	ListUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error)
	CancelBooking(ctx context.Context, user *models.User, bookingID int64) error
}

// BookingHandler handles the customer-facing booking endpoints.
type BookingHandler struct {
	service BookingServiceInterface
}

func NewBookingHandler(service BookingServiceInterface) *BookingHandler {
	return &BookingHandler{service: service}
}

type CreateBookingRequest struct {
	TourID          int64  `json:"tour_id" validate:"required,gt=0"`
	NumParticipants int    `json:"num_participants" validate:"required,gte=1,lte=100"`
	Notes           string `json:"notes" validate:"max=500"`
}

// userFromSession rebuilds the acting user from session data. Booking and
// checkout decisions only need identity and role, not a fresh DB row.
func userFromSession(session *auth.Session) *models.User {
	return &models.User{
		ID:       session.UserID,
		FullName: session.FullName,
		Email:    session.Email,
		Phone:    session.Phone,
		Role:     session.Role,
	}
}

func idParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// Create books a tour for the authenticated user.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	booking, err := h.service.CreateBooking(r.Context(), userFromSession(session), services.CreateBookingInput{
		TourID:          req.TourID,
		NumParticipants: req.NumParticipants,
		Notes:           req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Tour not found")
		case errors.Is(err, models.ErrTourNotActive):
			pkghttp.WriteUnprocessable(w, "tour_not_active", "This tour is not open for booking")
		case errors.Is(err, models.ErrInsufficientCapacity):
			pkghttp.WriteUnprocessable(w, "insufficient_capacity", "Not enough available slots for this tour")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, err.Error())
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, booking)
}

// List returns the authenticated user's bookings, newest first.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	bookings, err := h.service.ListUserBookings(r.Context(), session.UserID)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, bookings)
}

// Get returns a single booking.
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	id, err := idParam(r, "id")
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid booking id")
		return
	}

	booking, err := h.service.GetBooking(r.Context(), userFromSession(session), id)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Booking not found")
		case errors.Is(err, models.ErrForbidden):
			pkghttp.WriteForbidden(w, "You do not have access to this booking")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, booking)
}

// Cancel lets the owner cancel a booking that is still pending.
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	id, err := idParam(r, "id")
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid booking id")
		return
	}

	if err := h.service.CancelBooking(r.Context(), userFromSession(session), id); err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Booking not found")
		case errors.Is(err, models.ErrForbidden):
			pkghttp.WriteForbidden(w, "You do not have access to this booking")
		case errors.Is(err, models.ErrInvalidTransition):
			pkghttp.WriteUnprocessable(w, "not_cancellable", "Only pending bookings can be cancelled")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
