package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tuanvn/tourbook/internal/auth"
	"github.com/tuanvn/tourbook/internal/config"
	"github.com/tuanvn/tourbook/internal/database"
	"github.com/tuanvn/tourbook/internal/handlers"
	middlewareCustom "github.com/tuanvn/tourbook/internal/middleware"
	"github.com/tuanvn/tourbook/internal/models"
	"github.com/tuanvn/tourbook/internal/repositories"
	"github.com/tuanvn/tourbook/internal/routes"
	"github.com/tuanvn/tourbook/internal/services"
	pkglogger "github.com/tuanvn/tourbook/pkg/logger"
)

// SentEmail represents a captured confirmation email
type SentEmail struct {
	To        string
	Name      string
	BookingID int64
}

// MockEmailService captures sent emails for test assertions
type MockEmailService struct {
	SentEmails []SentEmail
	mu         sync.Mutex
}

// SendBookingConfirmation records the email
func (m *MockEmailService) SendBookingConfirmation(ctx context.Context, email, name string, booking *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SentEmails = append(m.SentEmails, SentEmail{
		To:        email,
		Name:      name,
		BookingID: booking.ID,
	})
	return nil
}

// GetLastEmail returns the most recent email sent
func (m *MockEmailService) GetLastEmail() *SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.SentEmails) == 0 {
		return nil
	}
	return &m.SentEmails[len(m.SentEmails)-1]
}

// Count returns the number of captured emails
func (m *MockEmailService) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.SentEmails)
}

// TestServer wraps httptest.Server with database and all dependencies
type TestServer struct {
	Server       *httptest.Server
	DB           *database.DB
	EmailService *MockEmailService
	Config       *config.Config
	Guard        *services.LoginGuard
	Sessions     *auth.SessionManager

	logger *slog.Logger
}

// NewTestServer initializes a complete HTTP server with real database + mocked email
func NewTestServer(db *database.DB) *TestServer {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg := &config.Config{
		Auth: config.AuthConfig{
			SessionSecret:    "test-secret-32-characters-long!!",
			SessionTTL:       30 * time.Minute,
			MaxLoginAttempts: 5,
			LockoutDuration:  15 * time.Minute,
			RememberTokenTTL: 7 * 24 * time.Hour,
			CleanupInterval:  1 * time.Hour,
		},
		Booking: config.BookingConfig{
			EnforceCapacity: true,
		},
		Server: config.ServerConfig{
			Port:           "0",
			Env:            "test",
			AllowedOrigins: []string{},
		},
	}

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	tourRepo := repositories.NewTourRepository(db)
	bookingRepo := repositories.NewBookingRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	favoriteRepo := repositories.NewFavoriteRepository(db)
	attemptStore := repositories.NewMemoryAttemptStore()

	auditLogger := pkglogger.NewAuditLogger(logger)

	sessions := auth.NewSessionManager(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL)
	guard := services.NewLoginGuard(attemptStore, services.LoginGuardConfig{
		MaxAttempts:     cfg.Auth.MaxLoginAttempts,
		LockoutDuration: cfg.Auth.LockoutDuration,
	}, logger)

	mockEmail := &MockEmailService{}

	// Services
	authService := services.NewAuthService(userRepo, guard, sessions, auditLogger, cfg.Auth.RememberTokenTTL)
	tourService := services.NewTourService(tourRepo)
	bookingService := services.NewBookingService(
		bookingRepo, tourRepo, orderRepo, mockEmail, auditLogger, logger, cfg.Booking.EnforceCapacity)
	checkoutService := services.NewCheckoutService(orderRepo, bookingRepo, tourRepo, auditLogger)
	favoriteService := services.NewFavoriteService(favoriteRepo, tourRepo)
	userService := services.NewUserService(userRepo, auditLogger)

	// Handlers
	cookieConfig := auth.CookieConfig{Secure: false, SameSite: "lax"}
	authHandler := handlers.NewAuthHandler(authService, cookieConfig, cfg.Auth.RememberTokenTTL)
	tourHandler := handlers.NewTourHandler(tourService)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	favoriteHandler := handlers.NewFavoriteHandler(favoriteService)
	adminHandler := handlers.NewAdminHandler(bookingService, tourService, userService, checkoutService)

	// Router mirrors the production stack
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	r.Route("/api", func(api chi.Router) {
		routes.RegisterRoutes(api, authHandler, tourHandler, bookingHandler, checkoutHandler, favoriteHandler, adminHandler, sessions)
	})

	server := httptest.NewServer(r)

	return &TestServer{
		Server:       server,
		DB:           db,
		EmailService: mockEmail,
		Config:       cfg,
		Guard:        guard,
		Sessions:     sessions,
		logger:       logger,
	}
}

// Close shuts down the test server
func (ts *TestServer) Close() {
	if ts.Server != nil {
		ts.Server.Close()
	}
}

// Request makes an HTTP request to the test server
func (ts *TestServer) Request(method, path string, body interface{}, cookies []*http.Cookie) (*http.Response, error) {
	return ts.RequestWithHeaders(method, path, body, cookies, nil)
}

// RequestWithHeaders makes an HTTP request with extra headers, used to
// simulate distinct client IPs via X-Forwarded-For
func (ts *TestServer) RequestWithHeaders(method, path string, body interface{}, cookies []*http.Cookie, headers map[string]string) (*http.Response, error) {
	url := ts.Server.URL + path

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	return http.DefaultClient.Do(req)
}

// Login authenticates the given credentials and returns the session cookie
func (ts *TestServer) Login(email, password string) (*http.Cookie, *http.Response, error) {
	resp, err := ts.Request(http.MethodPost, "/api/auth/login", map[string]interface{}{
		"email":    email,
		"password": password,
	}, nil)
	if err != nil {
		return nil, nil, err
	}

	for _, c := range resp.Cookies() {
		if c.Name == auth.SessionCookieName {
			return c, resp, nil
		}
	}
	return nil, resp, nil
}

// ParseJSONResponse parses JSON response body into target struct
func ParseJSONResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}
