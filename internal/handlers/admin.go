package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/tuanvn/tourbook/internal/auth"
	"github.com/tuanvn/tourbook/internal/models"
	"github.com/tuanvn/tourbook/internal/services"
	pkghttp "github.com/tuanvn/tourbook/pkg/http"
)

// AdminBookingServiceInterface is the booking surface the admin area uses.
type AdminBookingServiceInterface interface {
	ListBookings(ctx context.Context, rawStatus, keyword string) ([]*models.Booking, error)
	UpdateStatus(ctx context.Context, admin *models.User, bookingID int64, rawStatus string) error
	DeleteBooking(ctx context.Context, admin *models.User, bookingID int64) error
	Stats(ctx context.Context) (*services.BookingStats, error)
	RecentBookings(ctx context.Context, limit int) ([]*models.Booking, error)
}

// AdminTourServiceInterface is the tour surface the admin area uses.
type AdminTourServiceInterface interface {
	ListAllTours(ctx context.Context) ([]*models.Tour, error)
	CreateTour(ctx context.Context, tour *models.Tour) (*models.Tour, error)
	UpdateTour(ctx context.Context, id int64, tour *models.Tour) (*models.Tour, error)
	SetTourStatus(ctx context.Context, id int64, rawStatus string) error
	DeleteTour(ctx context.Context, id int64) error
	Counts(ctx context.Context) (total, active int, err error)
}

// AdminUserServiceInterface is the account surface the admin area uses.
type AdminUserServiceInterface interface {
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
	FilterUsers(ctx context.Context, role, keyword string) ([]*models.User, error)
	SetRole(ctx context.Context, admin *models.User, userID int64, role string) (*models.User, error)
	DeleteUser(ctx context.Context, admin *models.User, userID int64) error
	Counts(ctx context.Context) (total, admins int, err error)
}

// AdminOrderServiceInterface is the payment surface the admin area uses.
type AdminOrderServiceInterface interface {
	RefundPayment(ctx context.Context, admin *models.User, orderID int64) (*models.Order, error)
}

// AdminHandler serves the back-office endpoints. Routes mounting it must
// already enforce the admin role.
type AdminHandler struct {
	bookings AdminBookingServiceInterface
	tours    AdminTourServiceInterface
	users    AdminUserServiceInterface
	orders   AdminOrderServiceInterface
}

func NewAdminHandler(bookings AdminBookingServiceInterface, tours AdminTourServiceInterface, users AdminUserServiceInterface, orders AdminOrderServiceInterface) *AdminHandler {
	return &AdminHandler{bookings: bookings, tours: tours, users: users, orders: orders}
}

// DTOs

type TourRequest struct {
	Name            string `json:"name" validate:"required,min=1,max=200"`
	Description     string `json:"description" validate:"max=5000"`
	Destination     string `json:"destination" validate:"required,min=1,max=100"`
	DepartureDate   string `json:"departure_date" validate:"omitempty,datetime=2006-01-02"`
	Duration        int    `json:"duration_days" validate:"required,gte=1,lte=90"`
	Price           int64  `json:"price" validate:"gte=0"`
	MaxParticipants int    `json:"max_participants" validate:"required,gte=1,lte=1000"`
	ImageURL        string `json:"image_url" validate:"omitempty,url,max=500"`
	Status          string `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE active inactive"`
}

func (req *TourRequest) toModel() (*models.Tour, error) {
	tour := &models.Tour{
		Name:            req.Name,
		Description:     req.Description,
		Destination:     req.Destination,
		Duration:        req.Duration,
		Price:           req.Price,
		MaxParticipants: req.MaxParticipants,
		ImageURL:        req.ImageURL,
	}

	if req.DepartureDate != "" {
		departure, err := time.Parse("2006-01-02", req.DepartureDate)
		if err != nil {
			return nil, err
		}
		tour.DepartureDate = &departure
	}

	if req.Status != "" {
		status, err := models.ParseTourStatus(req.Status)
		if err != nil {
			return nil, err
		}
		tour.Status = status
	}

	return tour, nil
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type SetRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=USER ADMIN"`
}

// DashboardResponse aggregates the counters shown on the admin landing page.
type DashboardResponse struct {
	Bookings       *services.BookingStats `json:"bookings"`
	TotalTours     int                    `json:"total_tours"`
	ActiveTours    int                    `json:"active_tours"`
	TotalUsers     int                    `json:"total_users"`
	AdminUsers     int                    `json:"admin_users"`
	RecentBookings []*models.Booking      `json:"recent_bookings"`
}

// Dashboard serves the admin landing page counters.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	bookingStats, err := h.bookings.Stats(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	totalTours, activeTours, err := h.tours.Counts(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	totalUsers, adminUsers, err := h.users.Counts(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	recent, err := h.bookings.RecentBookings(r.Context(), 5)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, DashboardResponse{
		Bookings:       bookingStats,
		TotalTours:     totalTours,
		ActiveTours:    activeTours,
		TotalUsers:     totalUsers,
		AdminUsers:     adminUsers,
		RecentBookings: recent,
	})
}

// Bookings

// ListBookings lists all bookings with optional status and keyword filters.
func (h *AdminHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	bookings, err := h.bookings.ListBookings(r.Context(), q.Get("status"), q.Get("keyword"))
	if err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			pkghttp.WriteBadRequest(w, err.Error())
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, bookings)
}

// UpdateBookingStatus sets a booking to any status, regardless of its
// current one.
func (h *AdminHandler) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
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

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.bookings.UpdateStatus(r.Context(), userFromSession(session), id, req.Status); err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Booking not found")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, err.Error())
		case errors.Is(err, models.ErrInsufficientCapacity):
			pkghttp.WriteUnprocessable(w, "insufficient_capacity", "The tour no longer has slots for this booking")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteBooking removes a booking entirely.
func (h *AdminHandler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
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

	if err := h.bookings.DeleteBooking(r.Context(), userFromSession(session), id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Booking not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RefundOrder reverses a settled payment.
func (h *AdminHandler) RefundOrder(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	id, err := idParam(r, "id")
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid order id")
		return
	}

	order, err := h.orders.RefundPayment(r.Context(), userFromSession(session), id)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Order not found")
		case errors.Is(err, models.ErrInvalidState):
			pkghttp.WriteUnprocessable(w, "not_refundable", "Only paid orders can be refunded")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, order)
}

// Tours

// ListTours lists every tour, active or not.
func (h *AdminHandler) ListTours(w http.ResponseWriter, r *http.Request) {
	tours, err := h.tours.ListAllTours(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, tours)
}

// CreateTour adds a tour to the catalog.
func (h *AdminHandler) CreateTour(w http.ResponseWriter, r *http.Request) {
	var req TourRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	tour, err := req.toModel()
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid tour payload")
		return
	}

	created, err := h.tours.CreateTour(r.Context(), tour)
	if err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			pkghttp.WriteBadRequest(w, err.Error())
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, created)
}

// UpdateTour replaces a tour's editable fields.
func (h *AdminHandler) UpdateTour(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid tour id")
		return
	}

	var req TourRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	tour, err := req.toModel()
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid tour payload")
		return
	}

	updated, err := h.tours.UpdateTour(r.Context(), id, tour)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Tour not found")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, err.Error())
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, updated)
}

// SetTourStatus activates or deactivates a tour.
func (h *AdminHandler) SetTourStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid tour id")
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.tours.SetTourStatus(r.Context(), id, req.Status); err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Tour not found")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, err.Error())
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteTour removes a tour from the catalog.
func (h *AdminHandler) DeleteTour(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid tour id")
		return
	}

	if err := h.tours.DeleteTour(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Tour not found")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteConflict(w, "Tour has bookings and cannot be deleted")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Users

// ListUsers lists accounts, filtered by role/keyword when given, paged
// otherwise.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var users []*models.User
	var err error

	if role, keyword := q.Get("role"), q.Get("keyword"); role != "" || keyword != "" {
		users, err = h.users.FilterUsers(r.Context(), role, keyword)
	} else {
		limit, _ := strconv.Atoi(q.Get("limit"))
		offset, _ := strconv.Atoi(q.Get("offset"))
		users, err = h.users.ListUsers(r.Context(), limit, offset)
	}
	if err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			pkghttp.WriteBadRequest(w, err.Error())
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	out := make([]UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, toUserResponse(user))
	}
	pkghttp.WriteJSON(w, http.StatusOK, out)
}

// SetUserRole promotes or demotes an account.
func (h *AdminHandler) SetUserRole(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	id, err := idParam(r, "id")
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid user id")
		return
	}

	var req SetRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	user, err := h.users.SetRole(r.Context(), userFromSession(session), id, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "User not found")
		case errors.Is(err, models.ErrForbidden):
			pkghttp.WriteForbidden(w, "You cannot change your own role")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, err.Error())
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// DeleteUser removes an account.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	id, err := idParam(r, "id")
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid user id")
		return
	}

	if err := h.users.DeleteUser(r.Context(), userFromSession(session), id); err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "User not found")
		case errors.Is(err, models.ErrForbidden):
			pkghttp.WriteForbidden(w, "You cannot delete your own account")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
