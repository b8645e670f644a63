package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tuanvn/tourbook/internal/auth"
	"github.com/tuanvn/tourbook/internal/background"
	"github.com/tuanvn/tourbook/internal/config"
	"github.com/tuanvn/tourbook/internal/database"
	"github.com/tuanvn/tourbook/internal/handlers"
	middlewareCustom "github.com/tuanvn/tourbook/internal/middleware"
	"github.com/tuanvn/tourbook/internal/models"
	"github.com/tuanvn/tourbook/internal/repositories"
	"github.com/tuanvn/tourbook/internal/routes"
	"github.com/tuanvn/tourbook/internal/services"
	pkgauth "github.com/tuanvn/tourbook/pkg/auth"
	pkglogger "github.com/tuanvn/tourbook/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	tourRepo := repositories.NewTourRepository(db)
	bookingRepo := repositories.NewBookingRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	favoriteRepo := repositories.NewFavoriteRepository(db)
	attemptStore := repositories.NewMemoryAttemptStore()

	auditLogger := pkglogger.NewAuditLogger(logger)

	// Session manager and login guard
	sessions := auth.NewSessionManager(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL)
	guard := services.NewLoginGuard(attemptStore, services.LoginGuardConfig{
		MaxAttempts:     cfg.Auth.MaxLoginAttempts,
		LockoutDuration: cfg.Auth.LockoutDuration,
	}, logger)

	// Booking confirmation email: SES in production, log-only otherwise
	var emailService services.EmailService
	if cfg.Email.Enabled {
		emailService, err = services.NewAWSSESEmailService(cfg.Email.AWSRegion, cfg.Email.FromAddress, logger)
		if err != nil {
			logger.Error("failed to initialize email service", slog.Any("error", err))
			os.Exit(1)
		}
	} else {
		emailService = services.NewLogEmailService(logger)
	}

	// Initialize services
	authService := services.NewAuthService(userRepo, guard, sessions, auditLogger, cfg.Auth.RememberTokenTTL)
	tourService := services.NewTourService(tourRepo)
	bookingService := services.NewBookingService(
		bookingRepo, tourRepo, orderRepo, emailService, auditLogger, logger, cfg.Booking.EnforceCapacity)
	checkoutService := services.NewCheckoutService(orderRepo, bookingRepo, tourRepo, auditLogger)
	favoriteService := services.NewFavoriteService(favoriteRepo, tourRepo)
	userService := services.NewUserService(userRepo, auditLogger)

	// Initialize handlers
	cookieConfig := auth.CookieConfig{
		Secure:   cfg.Server.Env == "production",
		SameSite: "lax",
	}
	authHandler := handlers.NewAuthHandler(authService, cookieConfig, cfg.Auth.RememberTokenTTL)
	tourHandler := handlers.NewTourHandler(tourService)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	favoriteHandler := handlers.NewFavoriteHandler(favoriteService)
	adminHandler := handlers.NewAdminHandler(bookingService, tourService, userService, checkoutService)

	// Bootstrap first admin user if configured
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdminUser(bootCtx, userRepo, logger); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	bootCancel()

	// Background cleanup of login attempts, sessions and remember tokens
	cleanupManager := background.NewCleanupManager(guard, sessions, userRepo, logger, cfg.Auth.CleanupInterval)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Route("/api", func(r chi.Router) {
		routes.RegisterRoutes(r, authHandler, tourHandler, bookingHandler,
			checkoutHandler, favoriteHandler, adminHandler, sessions)
	})

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// ensureAdminUser creates the first admin account if ADMIN_EMAIL and
// ADMIN_PASSWORD are set and no account with that email exists yet.
func ensureAdminUser(ctx context.Context, userRepo *repositories.UserRepository, logger *slog.Logger) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping admin user creation")
		return nil
	}

	_, err := userRepo.GetByEmail(ctx, adminEmail)
	if err == nil {
		logger.Info("admin user already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	hashedPassword, err := pkgauth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.User{
		FullName:     "Administrator",
		Email:        adminEmail,
		PasswordHash: hashedPassword,
		Role:         models.RoleAdmin,
	}

	if _, err := userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("admin user created successfully")
	return nil
}
