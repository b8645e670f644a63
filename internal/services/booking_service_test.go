package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuanvn/tourbook/internal/models"
)

func activeTour() *models.Tour {
	return &models.Tour{
		ID:                  10,
		Name:                "Ha Long Bay Cruise",
		Destination:         "Ha Long",
		Price:               2500000,
		MaxParticipants:     20,
		CurrentParticipants: 15,
		Status:              models.TourActive,
	}
}

func customer() *models.User {
	return &models.User{ID: 7, FullName: "Nguyen Van A", Email: "a@example.com", Role: models.RoleUser}
}

func adminUser() *models.User {
	return &models.User{ID: 1, FullName: "Admin", Email: "admin@example.com", Role: models.RoleAdmin}
}

func newBookingService(bookings *MockBookingStore, tours *MockTourStore, orders *MockOrderStore, email *MockEmailService, enforce bool) *BookingService {
	if bookings == nil {
		bookings = &MockBookingStore{}
	}
	if tours == nil {
		tours = &MockTourStore{}
	}
	if orders == nil {
		orders = &MockOrderStore{}
	}
	var emailSvc EmailService
	if email != nil {
		emailSvc = email
	}
	return NewBookingService(bookings, tours, orders, emailSvc, testAuditLogger(), testLogger(), enforce)
}

func TestCreateBooking_Success(t *testing.T) {
	var created *models.Booking
	bookings := &MockBookingStore{
		CreateFunc: func(ctx context.Context, b *models.Booking) (int64, error) {
			b.ID = 42
			created = b
			return 42, nil
		},
	}
	tours := &MockTourStore{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.Tour, error) {
			return activeTour(), nil
		},
	}

	svc := newBookingService(bookings, tours, nil, nil, false)

	booking, err := svc.CreateBooking(context.Background(), customer(), CreateBookingInput{
		TourID:          10,
		NumParticipants: 3,
		Notes:           "window seats please",
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, int64(42), booking.ID)
	assert.Equal(t, models.BookingPending, booking.Status)
	assert.Equal(t, int64(7500000), booking.TotalPrice)
	assert.Equal(t, "window seats please", created.Notes)
}

func TestCreateBooking_PriceSnapshotUsesCurrentPrice(t *testing.T) {
	tour := activeTour()
	tour.Price = 3000000

	bookings := &MockBookingStore{
		CreateFunc: func(ctx context.Context, b *models.Booking) (int64, error) {
			b.ID = 1
			return 1, nil
		},
	}
	tours := &MockTourStore{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.Tour, error) { return tour, nil },
	}

	svc := newBookingService(bookings, tours, nil, nil, false)

	booking, err := svc.CreateBooking(context.Background(), customer(), CreateBookingInput{TourID: 10, NumParticipants: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(6000000), booking.TotalPrice)
}

func TestCreateBooking_TourNotFound(t *testing.T) {
	svc := newBookingService(nil, &MockTourStore{}, nil, nil, false)

	_, err := svc.CreateBooking(context.Background(), customer(), CreateBookingInput{TourID: 999, NumParticipants: 1})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCreateBooking_InactiveTourRejected(t *testing.T) {
	tour := activeTour()
	tour.Status = models.TourInactive

	tours := &MockTourStore{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.Tour, error) { return tour, nil },
	}
	svc := newBookingService(nil, tours, nil, nil, false)

	_, err := svc.CreateBooking(context.Background(), customer(), CreateBookingInput{TourID: 10, NumParticipants: 1})
	assert.ErrorIs(t, err, models.ErrTourNotActive)
}

func TestCreateBooking_InsufficientCapacityPersistsNothing(t *testing.T) {
	createCalled := false
	bookings := &MockBookingStore{
		CreateFunc: func(ctx context.Context, b *models.Booking) (int64, error) {
			createCalled = true
			return 1, nil
		},
	}
	tours := &MockTourStore{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.Tour, error) {
			return activeTour(), nil // 5 slots left
		},
	}
	svc := newBookingService(bookings, tours, nil, nil, false)

	_, err := svc.CreateBooking(context.Background(), customer(), CreateBookingInput{TourID: 10, NumParticipants: 6})
	assert.ErrorIs(t, err, models.ErrInsufficientCapacity)
	assert.False(t, createCalled)
}

func TestCreateBooking_ExactRemainingCapacityAccepted(t *testing.T) {
	bookings := &MockBookingStore{
		CreateFunc: func(ctx context.Context, b *models.Booking) (int64, error) { b.ID = 1; return 1, nil },
	}
	tours := &MockTourStore{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.Tour, error) { return activeTour(), nil },
	}
	svc := newBookingService(bookings, tours, nil, nil, false)

	booking, err := svc.CreateBooking(context.Background(), customer(), CreateBookingInput{TourID: 10, NumParticipants: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, booking.NumParticipants)
}

func TestCreateBooking_OverfullTourHasZeroSlots(t *testing.T) {
	tour := activeTour()
	tour.CurrentParticipants = 25 // stale counter above the maximum

	tours := &MockTourStore{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.Tour, error) { return tour, nil },
	}
	svc := newBookingService(nil, tours, nil, nil, false)

	_, err := svc.CreateBooking(context.Background(), customer(), CreateBookingInput{TourID: 10, NumParticipants: 1})
	assert.ErrorIs(t, err, models.ErrInsufficientCapacity)
}

func TestCreateBooking_ZeroParticipantsRejected(t *testing.T) {
	svc := newBookingService(nil, nil, nil, nil, false)

	_, err := svc.CreateBooking(context.Background(), customer(), CreateBookingInput{TourID: 10, NumParticipants: 0})
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestCreateBooking_EnforcedModeReservesSlots(t *testing.T) {
	reserved := false
	plainCreate := false
	bookings := &MockBookingStore{
		CreateReservingSlotsFunc: func(ctx context.Context, b *models.Booking) (int64, error) {
			reserved = true
			b.ID = 1
			return 1, nil
		},
		CreateFunc: func(ctx context.Context, b *models.Booking) (int64, error) {
			plainCreate = true
			return 1, nil
		},
	}
	tours := &MockTourStore{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.Tour, error) { return activeTour(), nil },
	}
	svc := newBookingService(bookings, tours, nil, nil, true)

	_, err := svc.CreateBooking(context.Background(), customer(), CreateBookingInput{TourID: 10, NumParticipants: 2})
	require.NoError(t, err)
	assert.True(t, reserved)
	assert.False(t, plainCreate)
}

func TestCancelBooking_PendingByOwner(t *testing.T) {
	var updatedTo models.BookingStatus
	bookings := &MockBookingStore{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.Booking, error) {
			return &models.Booking{ID: id, UserID: 7, TourID: 10, Status: models.BookingPending, NumParticipants: 2}, nil
		},
		UpdateStatusFunc: func(ctx context.Context, id int64, status models.BookingStatus) error {
			updatedTo = status
			return nil
		},
	}
	svc := newBookingService(bookings, nil, nil, nil, false)

	err := svc.CancelBooking(context.Background(), customer(), 42)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, updatedTo)
}

func TestCancelBooking_NotOwnerForbidden(t *testing.T) {
	bookings := &MockBookingStore{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.Booking, error) {
			return &models.Booking{ID: id, UserID: 99, Status: models.BookingPending}, nil
		},
	}
	svc := newBookingService(bookings, nil, nil, nil, false)

	err := svc.CancelBooking(context.Background(), customer(), 42)
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestCancelBooking_NonPendingRejected(t *testing.T) {
	for _, status := range []models.BookingStatus{models.BookingConfirmed, models.BookingCancelled, models.BookingCompleted} {
		t.Run(string(status), func(t *testing.T) {
			bookings := &MockBookingStore{
				GetByIDFunc: func(ctx context.Context, id int64) (*models.Booking, error) {
					return &models.Booking{ID: id, UserID: 7, Status: status}, nil
				},
			}
			svc := newBookingService(bookings, nil, nil, nil, false)

			err := svc.CancelBooking(context.Background(), customer(), 42)
			assert.ErrorIs(t, err, models.ErrInvalidTransition)
		})
	}
}

func TestCancelBooking_NotFound(t *testing.T) {
	svc := newBookingService(&MockBookingStore{}, nil, nil, nil, false)

	err := svc.CancelBooking(context.Background(), customer(), 404)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCancelBooking_EnforcedModeReleasesSlots(t *testing.T) {
	released := false
	bookings := &MockBookingStore{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.Booking, error) {
			return &models.Booking{ID: id, UserID: 7, TourID: 10, Status: models.BookingPending, NumParticipants: 3}, nil
		},
		CancelReleasingSlotsFunc: func(ctx context.Context, id, tourID int64, participants int) error {
			released = true
			assert.Equal(t, int64(10), tourID)
			assert.Equal(t, 3, participants)
			return nil
		},
	}
	svc := newBookingService(bookings, nil, nil, nil, true)

	err := svc.CancelBooking(context.Background(), customer(), 42)
	require.NoError(t, err)
	assert.True(t, released)
}

func TestUpdateStatus_NormalizesLowercase(t *testing.T) {
	var updatedTo models.BookingStatus
	bookings := &MockBookingStore{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.Booking, error) {
			return &models.Booking{ID: id, UserID: 7, Status: models.BookingPending}, nil
		},
		UpdateStatusFunc: func(ctx context.Context, id int64, status models.BookingStatus) error {
			updatedTo = status
			return nil
		},
	}
	svc := newBookingService(bookings, nil, nil, nil, false)

	err := svc.UpdateStatus(context.Background(), adminUser(), 42, "completed")
	require.NoError(t, err)
	assert.Equal(t, models.BookingCompleted, updatedTo)
}

func TestUpdateStatus_AnyTransitionAllowed(t *testing.T) {
	// Admin override ignores the lifecycle: even cancelled back to pending.
	bookings := &MockBookingStore{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.Booking, error) {
			return &models.Booking{ID: id, UserID: 7, Status: models.BookingCancelled}, nil
		},
		UpdateStatusFunc: func(ctx context.Context, id int64, status models.BookingStatus) error { return nil },
	}
	svc := newBookingService(bookings, nil, nil, nil, false)

	err := svc.UpdateStatus(context.Background(), adminUser(), 42, "PENDING")
	assert.NoError(t, err)
}

func TestUpdateStatus_UnknownStatusRejected(t *testing.T) {
	svc := newBookingService(nil, nil, nil, nil, false)

	err := svc.UpdateStatus(context.Background(), adminUser(), 42, "SHIPPED")
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestUpdateStatus_ConfirmationSendsEmail(t *testing.T) {
	bookings := &MockBookingStore{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.Booking, error) {
			return &models.Booking{ID: id, UserID: 7, Status: models.BookingPending, UserEmail: "a@example.com", UserName: "Nguyen Van A"}, nil
		},
		UpdateStatusFunc: func(ctx context.Context, id int64, status models.BookingStatus) error { return nil },
	}
	email := &MockEmailService{}
	svc := newBookingService(bookings, nil, nil, email, false)

	err := svc.UpdateStatus(context.Background(), adminUser(), 42, "CONFIRMED")
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com"}, email.SentTo)
}

func TestUpdateStatus_ReconfirmationSendsNoEmail(t *testing.T) {
	bookings := &MockBookingStore{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.Booking, error) {
			return &models.Booking{ID: id, UserID: 7, Status: models.BookingConfirmed}, nil
		},
		UpdateStatusFunc: func(ctx context.Context, id int64, status models.BookingStatus) error { return nil },
	}
	email := &MockEmailService{}
	svc := newBookingService(bookings, nil, nil, email, false)

	err := svc.UpdateStatus(context.Background(), adminUser(), 42, "CONFIRMED")
	require.NoError(t, err)
	assert.Empty(t, email.SentTo)
}

func TestListUserBookings_AnnotatesPaid(t *testing.T) {
	bookings := &MockBookingStore{
		ListByUserFunc: func(ctx context.Context, userID int64) ([]*models.Booking, error) {
			return []*models.Booking{
				{ID: 1, UserID: userID, Status: models.BookingConfirmed},
				{ID: 2, UserID: userID, Status: models.BookingPending},
			}, nil
		},
	}
	orders := &MockOrderStore{
		HasPaidOrderFunc: func(ctx context.Context, bookingID int64) (bool, error) {
			return bookingID == 1, nil
		},
	}
	svc := newBookingService(bookings, nil, orders, nil, false)

	result, err := svc.ListUserBookings(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.True(t, result[0].Paid)
	assert.False(t, result[1].Paid)
}

func TestGetBooking_OwnerAndAdminAccess(t *testing.T) {
	bookings := &MockBookingStore{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.Booking, error) {
			return &models.Booking{ID: id, UserID: 7, Status: models.BookingPending}, nil
		},
	}
	svc := newBookingService(bookings, nil, nil, nil, false)

	_, err := svc.GetBooking(context.Background(), customer(), 42)
	assert.NoError(t, err)

	_, err = svc.GetBooking(context.Background(), adminUser(), 42)
	assert.NoError(t, err)

	stranger := &models.User{ID: 55, Role: models.RoleUser}
	_, err = svc.GetBooking(context.Background(), stranger, 42)
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestStats_AggregatesCounts(t *testing.T) {
	bookings := &MockBookingStore{
		CountFunc: func(ctx context.Context) (int, error) { return 10, nil },
		CountByStatusFunc: func(ctx context.Context, status models.BookingStatus) (int, error) {
			switch status {
			case models.BookingPending:
				return 4, nil
			case models.BookingConfirmed:
				return 3, nil
			case models.BookingCancelled:
				return 2, nil
			default:
				return 1, nil
			}
		},
		TotalRevenueFunc: func(ctx context.Context) (int64, error) { return 12000000, nil },
	}
	svc := newBookingService(bookings, nil, nil, nil, false)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Total)
	assert.Equal(t, 4, stats.Pending)
	assert.Equal(t, 3, stats.Confirmed)
	assert.Equal(t, 2, stats.Cancelled)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, int64(12000000), stats.Revenue)
}

func TestUpdateStatus_EnforcedModeAdminCancelReleasesSlots(t *testing.T) {
	released := false
	plainUpdates := 0
	bookings := &MockBookingStore{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.Booking, error) {
			return &models.Booking{ID: id, UserID: 7, TourID: 10, Status: models.BookingConfirmed, NumParticipants: 4}, nil
		},
		CancelReleasingSlotsFunc: func(ctx context.Context, id, tourID int64, participants int) error {
			released = true
			assert.Equal(t, int64(10), tourID)
			assert.Equal(t, 4, participants)
			return nil
		},
		UpdateStatusFunc: func(ctx context.Context, id int64, status models.BookingStatus) error {
			plainUpdates++
			return nil
		},
	}
	svc := newBookingService(bookings, nil, nil, nil, true)

	err := svc.UpdateStatus(context.Background(), adminUser(), 42, "cancelled")
	require.NoError(t, err)
	assert.True(t, released, "admin cancel must go through the releasing transaction")
	assert.Equal(t, 0, plainUpdates)
}

func TestUpdateStatus_EnforcedModeReinstateReservesSlots(t *testing.T) {
	var reservedStatus models.BookingStatus
	bookings := &MockBookingStore{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.Booking, error) {
			return &models.Booking{ID: id, UserID: 7, TourID: 10, Status: models.BookingCancelled, NumParticipants: 2, UserEmail: "b@example.com"}, nil
		},
		UpdateStatusReservingSlotsFunc: func(ctx context.Context, id int64, status models.BookingStatus, tourID int64, participants int) error {
			reservedStatus = status
			assert.Equal(t, int64(10), tourID)
			assert.Equal(t, 2, participants)
			return nil
		},
	}
	email := &MockEmailService{}
	svc := newBookingService(bookings, nil, nil, email, true)

	err := svc.UpdateStatus(context.Background(), adminUser(), 42, "confirmed")
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, reservedStatus)
	// Reinstating straight into CONFIRMED still notifies the customer.
	assert.Equal(t, []string{"b@example.com"}, email.SentTo)
}

func TestUpdateStatus_EnforcedModeReinstateFailsWhenTourFull(t *testing.T) {
	bookings := &MockBookingStore{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.Booking, error) {
			return &models.Booking{ID: id, UserID: 7, TourID: 10, Status: models.BookingCancelled, NumParticipants: 5}, nil
		},
		UpdateStatusReservingSlotsFunc: func(ctx context.Context, id int64, status models.BookingStatus, tourID int64, participants int) error {
			return models.ErrInsufficientCapacity
		},
	}
	svc := newBookingService(bookings, nil, nil, nil, true)

	err := svc.UpdateStatus(context.Background(), adminUser(), 42, "pending")
	assert.ErrorIs(t, err, models.ErrInsufficientCapacity)
}

func TestUpdateStatus_EnforcedModeStatusChangeKeepingSlotsIsPlain(t *testing.T) {
	released := false
	var updatedTo models.BookingStatus
	bookings := &MockBookingStore{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.Booking, error) {
			return &models.Booking{ID: id, UserID: 7, TourID: 10, Status: models.BookingPending, NumParticipants: 2}, nil
		},
		CancelReleasingSlotsFunc: func(ctx context.Context, id, tourID int64, participants int) error {
			released = true
			return nil
		},
		UpdateStatusFunc: func(ctx context.Context, id int64, status models.BookingStatus) error {
			updatedTo = status
			return nil
		},
	}
	svc := newBookingService(bookings, nil, nil, nil, true)

	err := svc.UpdateStatus(context.Background(), adminUser(), 42, "completed")
	require.NoError(t, err)
	assert.False(t, released)
	assert.Equal(t, models.BookingCompleted, updatedTo)
}

func TestDeleteBooking_EnforcedModeReleasesSlots(t *testing.T) {
	released := false
	plainDeletes := 0
	bookings := &MockBookingStore{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.Booking, error) {
			return &models.Booking{ID: id, UserID: 7, TourID: 10, Status: models.BookingPending, NumParticipants: 3}, nil
		},
		DeleteReleasingSlotsFunc: func(ctx context.Context, id, tourID int64, participants int) error {
			released = true
			assert.Equal(t, int64(10), tourID)
			assert.Equal(t, 3, participants)
			return nil
		},
		DeleteFunc: func(ctx context.Context, id int64) error {
			plainDeletes++
			return nil
		},
	}
	svc := newBookingService(bookings, nil, nil, nil, true)

	err := svc.DeleteBooking(context.Background(), adminUser(), 42)
	require.NoError(t, err)
	assert.True(t, released, "deleting a slot-holding booking must release its slots")
	assert.Equal(t, 0, plainDeletes)
}

func TestDeleteBooking_EnforcedModeCancelledBookingDeletesPlainly(t *testing.T) {
	released := false
	plainDeletes := 0
	bookings := &MockBookingStore{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.Booking, error) {
			return &models.Booking{ID: id, UserID: 7, TourID: 10, Status: models.BookingCancelled, NumParticipants: 3}, nil
		},
		DeleteReleasingSlotsFunc: func(ctx context.Context, id, tourID int64, participants int) error {
			released = true
			return nil
		},
		DeleteFunc: func(ctx context.Context, id int64) error {
			plainDeletes++
			return nil
		},
	}
	svc := newBookingService(bookings, nil, nil, nil, true)

	err := svc.DeleteBooking(context.Background(), adminUser(), 42)
	require.NoError(t, err)
	assert.False(t, released, "cancelled bookings hold no slots to release")
	assert.Equal(t, 1, plainDeletes)
}
