package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/tuanvn/tourbook/internal/auth"
	"github.com/tuanvn/tourbook/internal/handlers"
	"github.com/tuanvn/tourbook/internal/middleware"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	tourHandler *handlers.TourHandler,
	bookingHandler *handlers.BookingHandler,
	checkoutHandler *handlers.CheckoutHandler,
	favoriteHandler *handlers.FavoriteHandler,
	adminHandler *handlers.AdminHandler,
	sessions *auth.SessionManager,
) {
	authRateLimit := middleware.RateLimitByIP(middleware.DefaultAuthRateLimit())
	bookingRateLimit := middleware.RateLimitByIP(middleware.DefaultBookingRateLimit())

	// Public routes - no authentication required
	router.With(authRateLimit).Post("/auth/register", authHandler.Register)
	router.With(authRateLimit).Post("/auth/login", authHandler.Login)
	router.With(authRateLimit).Post("/auth/auto-login", authHandler.AutoLogin)

	router.Get("/tours", tourHandler.List)
	router.Get("/tours/destinations", tourHandler.Destinations)
	router.Get("/tours/{id}", tourHandler.Get)
	router.Get("/tours/{id}/related", tourHandler.Related)

	// Protected routes - session required
	router.Group(func(r chi.Router) {
		r.Use(auth.RequireSession(sessions))

		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/auth/me", authHandler.Me)
		r.Put("/auth/profile", authHandler.UpdateProfile)
		r.Put("/auth/password", authHandler.ChangePassword)

		r.Get("/bookings", bookingHandler.List)
		r.With(bookingRateLimit).Post("/bookings", bookingHandler.Create)
		r.Get("/bookings/{id}", bookingHandler.Get)
		r.Post("/bookings/{id}/cancel", bookingHandler.Cancel)

		r.Get("/bookings/{id}/checkout", checkoutHandler.Summary)
		r.With(bookingRateLimit).Post("/bookings/{id}/pay", checkoutHandler.Pay)

		r.Get("/favorites", favoriteHandler.List)
		r.Put("/favorites/{tourID}", favoriteHandler.Add)
		r.Delete("/favorites/{tourID}", favoriteHandler.Remove)
		r.Get("/favorites/{tourID}", favoriteHandler.Status)

		// Admin-only routes
		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireAdmin())

			r.Get("/dashboard", adminHandler.Dashboard)

			r.Get("/bookings", adminHandler.ListBookings)
			r.Put("/bookings/{id}/status", adminHandler.UpdateBookingStatus)
			r.Delete("/bookings/{id}", adminHandler.DeleteBooking)

			r.Post("/orders/{id}/refund", adminHandler.RefundOrder)

			r.Get("/tours", adminHandler.ListTours)
			r.Post("/tours", adminHandler.CreateTour)
			r.Put("/tours/{id}", adminHandler.UpdateTour)
			r.Put("/tours/{id}/status", adminHandler.SetTourStatus)
			r.Delete("/tours/{id}", adminHandler.DeleteTour)

			r.Get("/users", adminHandler.ListUsers)
			r.Put("/users/{id}/role", adminHandler.SetUserRole)
			r.Delete("/users/{id}", adminHandler.DeleteUser)
		})
	})
}
