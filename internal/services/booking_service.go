package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/tuanvn/tourbook/internal/models"
	"github.com/tuanvn/tourbook/pkg/logger"
)

// BookingStore is the persistence surface the booking service needs.
type BookingStore interface {
	GetByID(ctx context.Context, id int64) (*models.Booking, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Booking, error)
	List(ctx context.Context) ([]*models.Booking, error)
	Filter(ctx context.Context, status models.BookingStatus, keyword string) ([]*models.Booking, error)
	Create(ctx context.Context, booking *models.Booking) (int64, error)
	CreateReservingSlots(ctx context.Context, booking *models.Booking) (int64, error)
	UpdateStatus(ctx context.Context, id int64, status models.BookingStatus) error
	UpdateStatusReservingSlots(ctx context.Context, id int64, status models.BookingStatus, tourID int64, participants int) error
	CancelReleasingSlots(ctx context.Context, id int64, tourID int64, participants int) error
	Delete(ctx context.Context, id int64) error
	DeleteReleasingSlots(ctx context.Context, id int64, tourID int64, participants int) error
	CountByStatus(ctx context.Context, status models.BookingStatus) (int, error)
	Count(ctx context.Context) (int, error)
	TotalRevenue(ctx context.Context) (int64, error)
	Recent(ctx context.Context, limit int) ([]*models.Booking, error)
}

// TourStore is the read surface the booking service needs for tours.
type TourStore interface {
	GetByID(ctx context.Context, id int64) (*models.Tour, error)
}

// PaidOrderChecker answers whether a booking already has a settled order.
type PaidOrderChecker interface {
	HasPaidOrder(ctx context.Context, bookingID int64) (bool, error)
}

// CreateBookingInput carries the validated request for a new booking.
type CreateBookingInput struct {
	TourID          int64
	NumParticipants int
	Notes           string
}

// BookingService owns the booking lifecycle: creation against tour capacity,
// user cancellation, and admin status management.
type BookingService struct {
	bookings BookingStore
	tours    TourStore
	orders   PaidOrderChecker
	email    EmailService
	audit    *logger.AuditLogger
	logger   *slog.Logger

	// enforceCapacity switches slot accounting on: creation reserves slots
	// atomically and cancellation returns them. When off, availability is
	// checked against the stored counter but the counter is not moved.
	enforceCapacity bool

	// tourLocks serializes create requests per tour so two near-simultaneous
	// bookings cannot both pass the availability check when enforcement is off.
	tourLocks sync.Map
}

func NewBookingService(
	bookings BookingStore,
	tours TourStore,
	orders PaidOrderChecker,
	email EmailService,
	audit *logger.AuditLogger,
	log *slog.Logger,
	enforceCapacity bool,
) *BookingService {
	return &BookingService{
		bookings:        bookings,
		tours:           tours,
		orders:          orders,
		email:           email,
		audit:           audit,
		logger:          log,
		enforceCapacity: enforceCapacity,
	}
}

func (s *BookingService) lockTour(tourID int64) func() {
	muIface, _ := s.tourLocks.LoadOrStore(tourID, &sync.Mutex{})
	mu := muIface.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// CreateBooking books a tour for a user. The tour must exist and be active,
// and the party must fit in the remaining slots. The total price is the
// tour's price at this moment times the party size, captured on the booking
// and never recomputed if the tour price later changes.
func (s *BookingService) CreateBooking(ctx context.Context, user *models.User, input CreateBookingInput) (*models.Booking, error) {
	if input.NumParticipants < 1 {
		return nil, fmt.Errorf("number of participants must be at least 1: %w", models.ErrBadRequest)
	}

	unlock := s.lockTour(input.TourID)
	defer unlock()

	tour, err := s.tours.GetByID(ctx, input.TourID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("tour %d: %w", input.TourID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load tour: %w", err)
	}

	if !tour.IsActive() {
		return nil, models.ErrTourNotActive
	}

	if input.NumParticipants > tour.AvailableSlots() {
		return nil, fmt.Errorf("requested %d participants, %d slots available: %w",
			input.NumParticipants, tour.AvailableSlots(), models.ErrInsufficientCapacity)
	}

	booking := &models.Booking{
		UserID:          user.ID,
		TourID:          tour.ID,
		Status:          models.BookingPending,
		NumParticipants: input.NumParticipants,
		TotalPrice:      tour.Price * int64(input.NumParticipants),
		Notes:           input.Notes,
	}

	if s.enforceCapacity {
		_, err = s.bookings.CreateReservingSlots(ctx, booking)
	} else {
		_, err = s.bookings.Create(ctx, booking)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	booking.TourName = tour.Name
	booking.TourDestination = tour.Destination
	booking.TourPrice = tour.Price
	booking.UserName = user.FullName
	booking.UserEmail = user.Email

	s.audit.LogBookingAction("booking_created", user.ID, booking.ID, map[string]string{
		"tour_id":      strconv.FormatInt(tour.ID, 10),
		"participants": strconv.Itoa(input.NumParticipants),
		"total_price":  strconv.FormatInt(booking.TotalPrice, 10),
	})

	return booking, nil
}

// GetBooking loads a booking for its owner. Admins may load any booking.
func (s *BookingService) GetBooking(ctx context.Context, user *models.User, bookingID int64) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.UserID != user.ID && !user.IsAdmin() {
		return nil, models.ErrForbidden
	}

	return s.annotatePaid(ctx, booking)
}

// ListUserBookings lists the user's bookings, newest first, each annotated
// with whether a settled order exists.
func (s *BookingService) ListUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error) {
	bookings, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, booking := range bookings {
		if _, err := s.annotatePaid(ctx, booking); err != nil {
			return nil, err
		}
	}
	return bookings, nil
}

func (s *BookingService) annotatePaid(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	paid, err := s.orders.HasPaidOrder(ctx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check payment status: %w", err)
	}
	booking.Paid = paid
	return booking, nil
}

// CancelBooking lets the owning user cancel a booking that is still PENDING.
// Anything already confirmed, completed or cancelled stays untouched.
func (s *BookingService) CancelBooking(ctx context.Context, user *models.User, bookingID int64) error {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}

	if booking.UserID != user.ID {
		return models.ErrForbidden
	}

	if !booking.Status.UserCancellable() {
		return fmt.Errorf("booking is %s: %w", booking.Status, models.ErrInvalidTransition)
	}

	if s.enforceCapacity {
		err = s.bookings.CancelReleasingSlots(ctx, bookingID, booking.TourID, booking.NumParticipants)
	} else {
		err = s.bookings.UpdateStatus(ctx, bookingID, models.BookingCancelled)
	}
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}

	s.audit.LogBookingAction("booking_cancelled", user.ID, bookingID, nil)
	return nil
}

// UpdateStatus is the admin override: any status may be set from any status.
// The input is normalized to uppercase before validation, so "confirmed" and
// "CONFIRMED" are the same request.
func (s *BookingService) UpdateStatus(ctx context.Context, admin *models.User, bookingID int64, rawStatus string) error {
	status, err := models.ParseBookingStatus(rawStatus)
	if err != nil {
		return err
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}

	if err := s.applyStatus(ctx, booking, status); err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}

	s.audit.LogBookingAction("booking_status_updated", admin.ID, bookingID, map[string]string{
		"from": string(booking.Status),
		"to":   string(status),
	})

	if status == models.BookingConfirmed && booking.Status != models.BookingConfirmed {
		s.sendConfirmationEmail(ctx, booking)
	}

	return nil
}

// applyStatus persists an admin status change. With capacity enforcement on,
// a transition that stops holding slots releases them and a transition that
// starts holding slots must reclaim them, so admin overrides keep the tour
// counter in step with user-initiated cancels.
func (s *BookingService) applyStatus(ctx context.Context, booking *models.Booking, status models.BookingStatus) error {
	if s.enforceCapacity {
		switch {
		case booking.Status.HoldsSlots() && !status.HoldsSlots():
			return s.bookings.CancelReleasingSlots(ctx, booking.ID, booking.TourID, booking.NumParticipants)
		case !booking.Status.HoldsSlots() && status.HoldsSlots():
			return s.bookings.UpdateStatusReservingSlots(ctx, booking.ID, status, booking.TourID, booking.NumParticipants)
		}
	}
	return s.bookings.UpdateStatus(ctx, booking.ID, status)
}

// sendConfirmationEmail notifies the customer that their booking was
// confirmed. Delivery failures are logged, never surfaced: the status change
// already committed.
func (s *BookingService) sendConfirmationEmail(ctx context.Context, booking *models.Booking) {
	if s.email == nil {
		return
	}

	if err := s.email.SendBookingConfirmation(ctx, booking.UserEmail, booking.UserName, booking); err != nil {
		s.logger.Error("failed to send booking confirmation email",
			slog.Int64("booking_id", booking.ID),
			slog.Any("error", err))
	}
}

// ListBookings is the admin listing with optional status and keyword filters.
func (s *BookingService) ListBookings(ctx context.Context, rawStatus, keyword string) ([]*models.Booking, error) {
	var status models.BookingStatus
	if rawStatus != "" {
		parsed, err := models.ParseBookingStatus(rawStatus)
		if err != nil {
			return nil, err
		}
		status = parsed
	}

	if status == "" && keyword == "" {
		return s.bookings.List(ctx)
	}
	return s.bookings.Filter(ctx, status, keyword)
}

// DeleteBooking removes a booking entirely. Admin only; regular users cancel.
// A deleted booking that still held slots gives them back when enforcement
// is on.
func (s *BookingService) DeleteBooking(ctx context.Context, admin *models.User, bookingID int64) error {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}

	if s.enforceCapacity && booking.Status.HoldsSlots() {
		err = s.bookings.DeleteReleasingSlots(ctx, bookingID, booking.TourID, booking.NumParticipants)
	} else {
		err = s.bookings.Delete(ctx, bookingID)
	}
	if err != nil {
		return err
	}

	s.audit.LogBookingAction("booking_deleted", admin.ID, bookingID, nil)
	return nil
}

// BookingStats summarizes bookings for the admin dashboard.
type BookingStats struct {
	Total     int   `json:"total"`
	Pending   int   `json:"pending"`
	Confirmed int   `json:"confirmed"`
	Cancelled int   `json:"cancelled"`
	Completed int   `json:"completed"`
	Revenue   int64 `json:"revenue"`
}

// Stats gathers booking counts per status and total revenue over confirmed
// and completed bookings.
func (s *BookingService) Stats(ctx context.Context) (*BookingStats, error) {
	stats := &BookingStats{}

	var err error
	if stats.Total, err = s.bookings.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}

	counts := []struct {
		status models.BookingStatus
		dest   *int
	}{
		{models.BookingPending, &stats.Pending},
		{models.BookingConfirmed, &stats.Confirmed},
		{models.BookingCancelled, &stats.Cancelled},
		{models.BookingCompleted, &stats.Completed},
	}
	for _, c := range counts {
		if *c.dest, err = s.bookings.CountByStatus(ctx, c.status); err != nil {
			return nil, fmt.Errorf("failed to count %s bookings: %w", c.status, err)
		}
	}

	if stats.Revenue, err = s.bookings.TotalRevenue(ctx); err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}

	return stats, nil
}

// RecentBookings returns the newest bookings for the admin dashboard.
func (s *BookingService) RecentBookings(ctx context.Context, limit int) ([]*models.Booking, error) {
	if limit < 1 || limit > 50 {
		limit = 5
	}
	return s.bookings.Recent(ctx, limit)
}
