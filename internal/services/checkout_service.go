package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/tuanvn/tourbook/internal/models"
	"github.com/tuanvn/tourbook/pkg/logger"
)

// OrderStore is the persistence surface the checkout service needs.
type OrderStore interface {
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	HasPaidOrder(ctx context.Context, bookingID int64) (bool, error)
	UpdateStatus(ctx context.Context, id int64, status models.OrderStatus) error
}

// RecordPaymentInput carries the validated checkout submission.
type RecordPaymentInput struct {
	BookingID       int64
	Quantity        int
	Note            string
	PaymentMethod   string
	PaymentProvider string
}

// CheckoutSummary is what the checkout page shows before payment.
type CheckoutSummary struct {
	Booking   *models.Booking `json:"booking"`
	UnitPrice int64           `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Total     int64           `json:"total"`
}

// CheckoutService records payments against confirmed bookings. A booking can
// be paid at most once; repeat submissions are rejected, not duplicated.
type CheckoutService struct {
	orders   OrderStore
	bookings BookingStore
	tours    TourStore
	audit    *logger.AuditLogger

	// bookingLocks serializes payment submissions per booking so two
	// concurrent submissions cannot both pass the paid check.
	bookingLocks sync.Map
}

func NewCheckoutService(orders OrderStore, bookings BookingStore, tours TourStore, audit *logger.AuditLogger) *CheckoutService {
	return &CheckoutService{
		orders:   orders,
		bookings: bookings,
		tours:    tours,
		audit:    audit,
	}
}

// Summary prepares the checkout view for a booking: the tour's current unit
// price and the default total for the booked party size. The quantity is
// re-submitted at payment time and may differ from the booking's.
func (s *CheckoutService) Summary(ctx context.Context, user *models.User, bookingID int64) (*CheckoutSummary, error) {
	booking, err := s.loadOwnedBooking(ctx, user, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status != models.BookingConfirmed {
		return nil, fmt.Errorf("booking is %s, only confirmed bookings can be paid: %w",
			booking.Status, models.ErrInvalidState)
	}

	tour, err := s.tours.GetByID(ctx, booking.TourID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tour: %w", err)
	}

	return &CheckoutSummary{
		Booking:   booking,
		UnitPrice: tour.Price,
		Quantity:  booking.NumParticipants,
		Total:     tour.Price * int64(booking.NumParticipants),
	}, nil
}

// RecordPayment settles a confirmed booking. The order total is the tour's
// current unit price times the submitted quantity, which the customer may
// adjust at checkout. Paying an already-paid booking is rejected with
// ErrAlreadyPaid, so a double-submitted form creates exactly one order.
func (s *CheckoutService) RecordPayment(ctx context.Context, user *models.User, input RecordPaymentInput) (*models.Order, error) {
	if input.Quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1: %w", models.ErrBadRequest)
	}

	unlock := s.lockBooking(input.BookingID)
	defer unlock()

	booking, err := s.loadOwnedBooking(ctx, user, input.BookingID)
	if err != nil {
		return nil, err
	}

	paid, err := s.orders.HasPaidOrder(ctx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check payment status: %w", err)
	}
	if paid {
		return nil, models.ErrAlreadyPaid
	}

	if booking.Status != models.BookingConfirmed {
		return nil, fmt.Errorf("booking is %s, only confirmed bookings can be paid: %w",
			booking.Status, models.ErrInvalidState)
	}

	tour, err := s.tours.GetByID(ctx, booking.TourID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tour: %w", err)
	}

	order := &models.Order{
		UserID:          user.ID,
		BookingID:       booking.ID,
		TourID:          booking.TourID,
		Quantity:        input.Quantity,
		TotalPrice:      tour.Price * int64(input.Quantity),
		Note:            input.Note,
		PaymentMethod:   input.PaymentMethod,
		PaymentProvider: input.PaymentProvider,
		Status:          models.OrderPaid,
	}

	created, err := s.orders.Create(ctx, order)
	if err != nil {
		// The partial unique index on paid orders catches anything that
		// slips past the check above, e.g. submissions racing across
		// processes.
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrAlreadyPaid
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.audit.LogBookingAction("payment_recorded", user.ID, booking.ID, map[string]string{
		"order_id": strconv.FormatInt(created.ID, 10),
		"quantity": strconv.Itoa(input.Quantity),
		"total":    strconv.FormatInt(created.TotalPrice, 10),
		"method":   input.PaymentMethod,
	})

	return created, nil
}

// RefundPayment is the admin reversal of a settled order. Only PAID orders
// can be refunded. A refunded order no longer counts as settlement, so the
// booking becomes payable again.
func (s *CheckoutService) RefundPayment(ctx context.Context, admin *models.User, orderID int64) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("order %d: %w", orderID, models.ErrNotFound)
		}
		return nil, err
	}

	unlock := s.lockBooking(order.BookingID)
	defer unlock()

	if order.Status != models.OrderPaid {
		return nil, fmt.Errorf("order is %s, only paid orders can be refunded: %w",
			order.Status, models.ErrInvalidState)
	}

	if err := s.orders.UpdateStatus(ctx, order.ID, models.OrderRefunded); err != nil {
		return nil, fmt.Errorf("failed to refund order: %w", err)
	}
	order.Status = models.OrderRefunded

	s.audit.LogBookingAction("payment_refunded", admin.ID, order.BookingID, map[string]string{
		"order_id": strconv.FormatInt(order.ID, 10),
		"total":    strconv.FormatInt(order.TotalPrice, 10),
	})

	return order, nil
}

func (s *CheckoutService) lockBooking(bookingID int64) func() {
	muIface, _ := s.bookingLocks.LoadOrStore(bookingID, &sync.Mutex{})
	mu := muIface.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *CheckoutService) loadOwnedBooking(ctx context.Context, user *models.User, bookingID int64) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("booking %d: %w", bookingID, models.ErrNotFound)
		}
		return nil, err
	}

	if booking.UserID != user.ID {
		return nil, models.ErrForbidden
	}
	return booking, nil
}
