package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tuanvn/tourbook/internal/auth"
	"github.com/tuanvn/tourbook/internal/models"
	"github.com/tuanvn/tourbook/internal/services"
	pkghttp "github.com/tuanvn/tourbook/pkg/http"
)

// CheckoutServiceInterface defines the interface for checkout business logic
type CheckoutServiceInterface interface {
	Summary(ctx context.Context, user *models.User, bookingID int64) (*services.CheckoutSummary, error)
	RecordPayment(ctx context.Context, user *models.User, input services.RecordPaymentInput) (*models.Order, error)
}

// CheckoutHandler handles the payment endpoints.
type CheckoutHandler struct {
	service CheckoutServiceInterface
}

func NewCheckoutHandler(service CheckoutServiceInterface) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

type RecordPaymentRequest struct {
	Quantity        int    `json:"quantity" validate:"required,gte=1,lte=100"`
	Note            string `json:"note" validate:"max=500"`
	PaymentMethod   string `json:"payment_method" validate:"required,oneof=card bank_transfer cash"`
	PaymentProvider string `json:"payment_provider" validate:"max=50"`
}

// Summary returns the checkout view for a confirmed booking.
func (h *CheckoutHandler) Summary(w http.ResponseWriter, r *http.Request) {
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

	summary, err := h.service.Summary(r.Context(), userFromSession(session), id)
	if err != nil {
		h.writeCheckoutError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, summary)
}

// Pay records a payment for a confirmed booking.
func (h *CheckoutHandler) Pay(w http.ResponseWriter, r *http.Request) {
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

	var req RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	order, err := h.service.RecordPayment(r.Context(), userFromSession(session), services.RecordPaymentInput{
		BookingID:       id,
		Quantity:        req.Quantity,
		Note:            req.Note,
		PaymentMethod:   req.PaymentMethod,
		PaymentProvider: req.PaymentProvider,
	})
	if err != nil {
		h.writeCheckoutError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, order)
}

func (h *CheckoutHandler) writeCheckoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Booking not found")
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, "You do not have access to this booking")
	case errors.Is(err, models.ErrAlreadyPaid):
		pkghttp.WriteConflict(w, "This booking has already been paid")
	case errors.Is(err, models.ErrInvalidState):
		pkghttp.WriteUnprocessable(w, "not_payable", "Only confirmed bookings can be paid")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, err.Error())
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
