package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/tuanvn/tourbook/internal/models"
	"github.com/tuanvn/tourbook/pkg/logger"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func testAuditLogger() *logger.AuditLogger {
	return logger.NewAuditLogger(testLogger())
}

// MockBookingStore implements BookingStore for testing
type MockBookingStore struct {
	GetByIDFunc                    func(ctx context.Context, id int64) (*models.Booking, error)
	ListByUserFunc                 func(ctx context.Context, userID int64) ([]*models.Booking, error)
	ListFunc                       func(ctx context.Context) ([]*models.Booking, error)
	FilterFunc                     func(ctx context.Context, status models.BookingStatus, keyword string) ([]*models.Booking, error)
	CreateFunc                     func(ctx context.Context, booking *models.Booking) (int64, error)
	CreateReservingSlotsFunc       func(ctx context.Context, booking *models.Booking) (int64, error)
	UpdateStatusFunc               func(ctx context.Context, id int64, status models.BookingStatus) error
	UpdateStatusReservingSlotsFunc func(ctx context.Context, id int64, status models.BookingStatus, tourID int64, participants int) error
	CancelReleasingSlotsFunc       func(ctx context.Context, id int64, tourID int64, participants int) error
	DeleteFunc                     func(ctx context.Context, id int64) error
	DeleteReleasingSlotsFunc       func(ctx context.Context, id int64, tourID int64, participants int) error
	CountByStatusFunc              func(ctx context.Context, status models.BookingStatus) (int, error)
	CountFunc                      func(ctx context.Context) (int, error)
	TotalRevenueFunc               func(ctx context.Context) (int64, error)
	RecentFunc                     func(ctx context.Context, limit int) ([]*models.Booking, error)
}

func (m *MockBookingStore) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockBookingStore) ListByUser(ctx context.Context, userID int64) ([]*models.Booking, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	return []*models.Booking{}, nil
}

func (m *MockBookingStore) List(ctx context.Context) ([]*models.Booking, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*models.Booking{}, nil
}

func (m *MockBookingStore) Filter(ctx context.Context, status models.BookingStatus, keyword string) ([]*models.Booking, error) {
	if m.FilterFunc != nil {
		return m.FilterFunc(ctx, status, keyword)
	}
	return []*models.Booking{}, nil
}

func (m *MockBookingStore) Create(ctx context.Context, booking *models.Booking) (int64, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, booking)
	}
	return 0, models.ErrInternalServer
}

func (m *MockBookingStore) CreateReservingSlots(ctx context.Context, booking *models.Booking) (int64, error) {
	if m.CreateReservingSlotsFunc != nil {
		return m.CreateReservingSlotsFunc(ctx, booking)
	}
	return 0, models.ErrInternalServer
}

func (m *MockBookingStore) UpdateStatus(ctx context.Context, id int64, status models.BookingStatus) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *MockBookingStore) UpdateStatusReservingSlots(ctx context.Context, id int64, status models.BookingStatus, tourID int64, participants int) error {
	if m.UpdateStatusReservingSlotsFunc != nil {
		return m.UpdateStatusReservingSlotsFunc(ctx, id, status, tourID, participants)
	}
	return nil
}

func (m *MockBookingStore) CancelReleasingSlots(ctx context.Context, id int64, tourID int64, participants int) error {
	if m.CancelReleasingSlotsFunc != nil {
		return m.CancelReleasingSlotsFunc(ctx, id, tourID, participants)
	}
	return nil
}

func (m *MockBookingStore) Delete(ctx context.Context, id int64) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockBookingStore) DeleteReleasingSlots(ctx context.Context, id int64, tourID int64, participants int) error {
	if m.DeleteReleasingSlotsFunc != nil {
		return m.DeleteReleasingSlotsFunc(ctx, id, tourID, participants)
	}
	return nil
}

func (m *MockBookingStore) CountByStatus(ctx context.Context, status models.BookingStatus) (int, error) {
	if m.CountByStatusFunc != nil {
		return m.CountByStatusFunc(ctx, status)
	}
	return 0, nil
}

func (m *MockBookingStore) Count(ctx context.Context) (int, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, nil
}

func (m *MockBookingStore) TotalRevenue(ctx context.Context) (int64, error) {
	if m.TotalRevenueFunc != nil {
		return m.TotalRevenueFunc(ctx)
	}
	return 0, nil
}

func (m *MockBookingStore) Recent(ctx context.Context, limit int) ([]*models.Booking, error) {
	if m.RecentFunc != nil {
		return m.RecentFunc(ctx, limit)
	}
	return []*models.Booking{}, nil
}

// MockTourStore implements TourCatalogStore for testing
type MockTourStore struct {
	GetByIDFunc       func(ctx context.Context, id int64) (*models.Tour, error)
	ListFunc          func(ctx context.Context) ([]*models.Tour, error)
	ListByStatusFunc  func(ctx context.Context, status models.TourStatus) ([]*models.Tour, error)
	FilterFunc        func(ctx context.Context, keyword, destination string, minPrice, maxPrice int64) ([]*models.Tour, error)
	RelatedFunc       func(ctx context.Context, destination string, excludeTourID int64, limit int) ([]*models.Tour, error)
	DestinationsFunc  func(ctx context.Context) ([]string, error)
	CreateFunc        func(ctx context.Context, tour *models.Tour) (*models.Tour, error)
	UpdateFunc        func(ctx context.Context, id int64, tour *models.Tour) (*models.Tour, error)
	UpdateStatusFunc  func(ctx context.Context, id int64, status models.TourStatus) error
	DeleteFunc        func(ctx context.Context, id int64) error
	CountByStatusFunc func(ctx context.Context, status models.TourStatus) (int, error)
	CountFunc         func(ctx context.Context) (int, error)
}

func (m *MockTourStore) GetByID(ctx context.Context, id int64) (*models.Tour, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockTourStore) List(ctx context.Context) ([]*models.Tour, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*models.Tour{}, nil
}

func (m *MockTourStore) ListByStatus(ctx context.Context, status models.TourStatus) ([]*models.Tour, error) {
	if m.ListByStatusFunc != nil {
		return m.ListByStatusFunc(ctx, status)
	}
	return []*models.Tour{}, nil
}

func (m *MockTourStore) Filter(ctx context.Context, keyword, destination string, minPrice, maxPrice int64) ([]*models.Tour, error) {
	if m.FilterFunc != nil {
		return m.FilterFunc(ctx, keyword, destination, minPrice, maxPrice)
	}
	return []*models.Tour{}, nil
}

func (m *MockTourStore) Related(ctx context.Context, destination string, excludeTourID int64, limit int) ([]*models.Tour, error) {
	if m.RelatedFunc != nil {
		return m.RelatedFunc(ctx, destination, excludeTourID, limit)
	}
	return []*models.Tour{}, nil
}

func (m *MockTourStore) Destinations(ctx context.Context) ([]string, error) {
	if m.DestinationsFunc != nil {
		return m.DestinationsFunc(ctx)
	}
	return []string{}, nil
}

func (m *MockTourStore) Create(ctx context.Context, tour *models.Tour) (*models.Tour, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tour)
	}
	return nil, models.ErrInternalServer
}

func (m *MockTourStore) Update(ctx context.Context, id int64, tour *models.Tour) (*models.Tour, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, tour)
	}
	return nil, models.ErrInternalServer
}

func (m *MockTourStore) UpdateStatus(ctx context.Context, id int64, status models.TourStatus) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *MockTourStore) Delete(ctx context.Context, id int64) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockTourStore) CountByStatus(ctx context.Context, status models.TourStatus) (int, error) {
	if m.CountByStatusFunc != nil {
		return m.CountByStatusFunc(ctx, status)
	}
	return 0, nil
}

func (m *MockTourStore) Count(ctx context.Context) (int, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, nil
}

// MockOrderStore implements OrderStore for testing
type MockOrderStore struct {
	GetByIDFunc      func(ctx context.Context, id int64) (*models.Order, error)
	CreateFunc       func(ctx context.Context, order *models.Order) (*models.Order, error)
	HasPaidOrderFunc func(ctx context.Context, bookingID int64) (bool, error)
	UpdateStatusFunc func(ctx context.Context, id int64, status models.OrderStatus) error
}

func (m *MockOrderStore) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockOrderStore) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, order)
	}
	return nil, models.ErrInternalServer
}

func (m *MockOrderStore) HasPaidOrder(ctx context.Context, bookingID int64) (bool, error) {
	if m.HasPaidOrderFunc != nil {
		return m.HasPaidOrderFunc(ctx, bookingID)
	}
	return false, nil
}

func (m *MockOrderStore) UpdateStatus(ctx context.Context, id int64, status models.OrderStatus) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil
}

// MockUserStore implements UserAdminStore for testing
type MockUserStore struct {
	GetByIDFunc             func(ctx context.Context, id int64) (*models.User, error)
	GetByEmailFunc          func(ctx context.Context, email string) (*models.User, error)
	GetByRememberTokenFunc  func(ctx context.Context, token string) (*models.User, error)
	CreateFunc              func(ctx context.Context, user *models.User) (*models.User, error)
	UpdateFunc              func(ctx context.Context, id int64, user *models.User) (*models.User, error)
	UpdatePasswordFunc      func(ctx context.Context, id int64, passwordHash string) error
	UpdateRememberTokenFunc func(ctx context.Context, id int64, token string, expiry time.Time) error
	ClearRememberTokenFunc  func(ctx context.Context, id int64) error
	ListFunc                func(ctx context.Context, limit, offset int) ([]*models.User, error)
	FilterFunc              func(ctx context.Context, role, keyword string) ([]*models.User, error)
	DeleteFunc              func(ctx context.Context, id int64) error
	CountByRoleFunc         func(ctx context.Context, role string) (int, error)
	CountFunc               func(ctx context.Context) (int, error)
}

func (m *MockUserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserStore) GetByRememberToken(ctx context.Context, token string) (*models.User, error) {
	if m.GetByRememberTokenFunc != nil {
		return m.GetByRememberTokenFunc(ctx, token)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserStore) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserStore) Update(ctx context.Context, id int64, user *models.User) (*models.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserStore) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, id, passwordHash)
	}
	return nil
}

func (m *MockUserStore) UpdateRememberToken(ctx context.Context, id int64, token string, expiry time.Time) error {
	if m.UpdateRememberTokenFunc != nil {
		return m.UpdateRememberTokenFunc(ctx, id, token, expiry)
	}
	return nil
}

func (m *MockUserStore) ClearRememberToken(ctx context.Context, id int64) error {
	if m.ClearRememberTokenFunc != nil {
		return m.ClearRememberTokenFunc(ctx, id)
	}
	return nil
}

func (m *MockUserStore) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.User{}, nil
}

func (m *MockUserStore) Filter(ctx context.Context, role, keyword string) ([]*models.User, error) {
	if m.FilterFunc != nil {
		return m.FilterFunc(ctx, role, keyword)
	}
	return []*models.User{}, nil
}

func (m *MockUserStore) Delete(ctx context.Context, id int64) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockUserStore) CountByRole(ctx context.Context, role string) (int, error) {
	if m.CountByRoleFunc != nil {
		return m.CountByRoleFunc(ctx, role)
	}
	return 0, nil
}

func (m *MockUserStore) Count(ctx context.Context) (int, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, nil
}

// MockFavoriteStore implements FavoriteStore for testing
type MockFavoriteStore struct {
	ListByUserFunc  func(ctx context.Context, userID int64) ([]*models.Favorite, error)
	IsFavoriteFunc  func(ctx context.Context, userID, tourID int64) (bool, error)
	AddFunc         func(ctx context.Context, userID, tourID int64) error
	RemoveFunc      func(ctx context.Context, userID, tourID int64) error
	CountByUserFunc func(ctx context.Context, userID int64) (int, error)
}

func (m *MockFavoriteStore) ListByUser(ctx context.Context, userID int64) ([]*models.Favorite, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	return []*models.Favorite{}, nil
}

func (m *MockFavoriteStore) IsFavorite(ctx context.Context, userID, tourID int64) (bool, error) {
	if m.IsFavoriteFunc != nil {
		return m.IsFavoriteFunc(ctx, userID, tourID)
	}
	return false, nil
}

func (m *MockFavoriteStore) Add(ctx context.Context, userID, tourID int64) error {
	if m.AddFunc != nil {
		return m.AddFunc(ctx, userID, tourID)
	}
	return nil
}

func (m *MockFavoriteStore) Remove(ctx context.Context, userID, tourID int64) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, userID, tourID)
	}
	return nil
}

func (m *MockFavoriteStore) CountByUser(ctx context.Context, userID int64) (int, error) {
	if m.CountByUserFunc != nil {
		return m.CountByUserFunc(ctx, userID)
	}
	return 0, nil
}

// MockEmailService implements EmailService for testing
type MockEmailService struct {
	SendBookingConfirmationFunc func(ctx context.Context, email, name string, booking *models.Booking) error
	SentTo                      []string
}

func (m *MockEmailService) SendBookingConfirmation(ctx context.Context, email, name string, booking *models.Booking) error {
	m.SentTo = append(m.SentTo, email)
	if m.SendBookingConfirmationFunc != nil {
		return m.SendBookingConfirmationFunc(ctx, email, name, booking)
	}
	return nil
}
