package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/tuanvn/tourbook/internal/auth"
	"github.com/tuanvn/tourbook/internal/models"
	"github.com/tuanvn/tourbook/internal/services"
	pkghttp "github.com/tuanvn/tourbook/pkg/http"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithSession attaches a user session to the request context
func WithSession(req *http.Request, userID int64, role string) *http.Request {
	session := &auth.Session{
		ID:        "test-session",
		UserID:    userID,
		FullName:  "Test User",
		Email:     "test@example.com",
		Role:      role,
		ExpiresAt: time.Now().Add(30 * time.Minute),
	}
	ctx := context.WithValue(req.Context(), auth.SessionContextKey, session)
	return req.WithContext(ctx)
}

// WithURLParam attaches a chi route parameter to the request context
func WithURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	t.Helper()

	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	t.Helper()

	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	RegisterFunc               func(ctx context.Context, input services.RegisterInput) (*models.User, error)
	LoginFunc                  func(ctx context.Context, email, password, clientIP string, rememberMe bool) (*services.LoginResult, error)
	LoginWithRememberTokenFunc func(ctx context.Context, token string) (*services.LoginResult, error)
	LogoutFunc                 func(ctx context.Context, session *auth.Session) error
	UpdateProfileFunc          func(ctx context.Context, session *auth.Session, input services.UpdateProfileInput) (*models.User, error)
	ChangePasswordFunc         func(ctx context.Context, session *auth.Session, currentPassword, newPassword string) error
}

func (m *MockAuthService) Register(ctx context.Context, input services.RegisterInput) (*models.User, error) {
	if m.RegisterFunc == nil {
		return nil, models.ErrConflict
	}
	return m.RegisterFunc(ctx, input)
}

func (m *MockAuthService) Login(ctx context.Context, email, password, clientIP string, rememberMe bool) (*services.LoginResult, error) {
	if m.LoginFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.LoginFunc(ctx, email, password, clientIP, rememberMe)
}

func (m *MockAuthService) LoginWithRememberToken(ctx context.Context, token string) (*services.LoginResult, error) {
	if m.LoginWithRememberTokenFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.LoginWithRememberTokenFunc(ctx, token)
}

func (m *MockAuthService) Logout(ctx context.Context, session *auth.Session) error {
	if m.LogoutFunc == nil {
		return nil
	}
	return m.LogoutFunc(ctx, session)
}

func (m *MockAuthService) UpdateProfile(ctx context.Context, session *auth.Session, input services.UpdateProfileInput) (*models.User, error) {
	if m.UpdateProfileFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.UpdateProfileFunc(ctx, session, input)
}

func (m *MockAuthService) ChangePassword(ctx context.Context, session *auth.Session, currentPassword, newPassword string) error {
	if m.ChangePasswordFunc == nil {
		return nil
	}
	return m.ChangePasswordFunc(ctx, session, currentPassword, newPassword)
}

// MockBookingService implements BookingServiceInterface for testing
type MockBookingService struct {
	CreateBookingFunc    func(ctx context.Context, user *models.User, input services.CreateBookingInput) (*models.Booking, error)
	GetBookingFunc       func(ctx context.Context, user *models.User, bookingID int64) (*models.Booking, error)
	ListUserBookingsFunc func(ctx context.Context, userID int64) ([]*models.Booking, error)
	CancelBookingFunc    func(ctx context.Context, user *models.User, bookingID int64) error
}

func (m *MockBookingService) CreateBooking(ctx context.Context, user *models.User, input services.CreateBookingInput) (*models.Booking, error) {
	if m.CreateBookingFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.CreateBookingFunc(ctx, user, input)
}

func (m *MockBookingService) GetBooking(ctx context.Context, user *models.User, bookingID int64) (*models.Booking, error) {
	if m.GetBookingFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetBookingFunc(ctx, user, bookingID)
}

func (m *MockBookingService) ListUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error) {
	if m.ListUserBookingsFunc == nil {
		return []*models.Booking{}, nil
	}
	return m.ListUserBookingsFunc(ctx, userID)
}

func (m *MockBookingService) CancelBooking(ctx context.Context, user *models.User, bookingID int64) error {
	if m.CancelBookingFunc == nil {
		return models.ErrNotFound
	}
	return m.CancelBookingFunc(ctx, user, bookingID)
}

// MockCheckoutService implements CheckoutServiceInterface for testing
type MockCheckoutService struct {
	SummaryFunc       func(ctx context.Context, user *models.User, bookingID int64) (*services.CheckoutSummary, error)
	RecordPaymentFunc func(ctx context.Context, user *models.User, input services.RecordPaymentInput) (*models.Order, error)
}

func (m *MockCheckoutService) Summary(ctx context.Context, user *models.User, bookingID int64) (*services.CheckoutSummary, error) {
	if m.SummaryFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.SummaryFunc(ctx, user, bookingID)
}

func (m *MockCheckoutService) RecordPayment(ctx context.Context, user *models.User, input services.RecordPaymentInput) (*models.Order, error) {
	if m.RecordPaymentFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.RecordPaymentFunc(ctx, user, input)
}

// MockTourService implements TourServiceInterface for testing
type MockTourService struct {
	GetTourFunc      func(ctx context.Context, id int64) (*models.Tour, error)
	SearchToursFunc  func(ctx context.Context, input services.TourSearchInput) ([]*models.Tour, error)
	RelatedToursFunc func(ctx context.Context, tourID int64, limit int) ([]*models.Tour, error)
	DestinationsFunc func(ctx context.Context) ([]string, error)
}

func (m *MockTourService) GetTour(ctx context.Context, id int64) (*models.Tour, error) {
	if m.GetTourFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetTourFunc(ctx, id)
}

func (m *MockTourService) SearchTours(ctx context.Context, input services.TourSearchInput) ([]*models.Tour, error) {
	if m.SearchToursFunc == nil {
		return []*models.Tour{}, nil
	}
	return m.SearchToursFunc(ctx, input)
}

func (m *MockTourService) RelatedTours(ctx context.Context, tourID int64, limit int) ([]*models.Tour, error) {
	if m.RelatedToursFunc == nil {
		return []*models.Tour{}, nil
	}
	return m.RelatedToursFunc(ctx, tourID, limit)
}

func (m *MockTourService) Destinations(ctx context.Context) ([]string, error) {
	if m.DestinationsFunc == nil {
		return []string{}, nil
	}
	return m.DestinationsFunc(ctx)
}
