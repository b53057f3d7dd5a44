package routes

import (
	"infinite-experiment/poolroster/internal/api"
	"infinite-experiment/poolroster/internal/middleware"

	"github.com/go-chi/chi/v5"
)

const (
	// Taps and view changes come from staff tapping quickly; uploads and
	// logins are rare and worth slowing down.
	consoleRatePerSecond = 20
	consoleRateBurst     = 40
	strictRatePerSecond  = 0.5
	strictRateBurst      = 5
)

// RegisterAPIRoutes registers all API v1 routes and handlers
func RegisterAPIRoutes(r chi.Router, deps *api.Dependencies, handlers *api.Handlers) {
	consoleLimiter := middleware.NewRateLimiter(consoleRatePerSecond, consoleRateBurst)
	strictLimiter := middleware.NewRateLimiter(strictRatePerSecond, strictRateBurst)

	r.Route("/api/v1", func(v1 chi.Router) {
		// Console-scoped routes
		v1.Group(func(console chi.Router) {
			console.Use(consoleLimiter.Middleware)
			console.Use(middleware.ConsoleMiddleware(deps.Consoles))

			console.Get("/guests", handlers.ListGuests())
			console.Get("/guests/stream", handlers.StreamGuests())
			console.Put("/guests/view", handlers.UpdateView())
			console.Post("/guests/{guestID}/tap", handlers.TapGuest())
			console.Delete("/console", handlers.CloseConsole())
		})

		v1.Group(func(strict chi.Router) {
			strict.Use(strictLimiter.Middleware)

			strict.Post("/guests/upload", handlers.UploadGuests())
			strict.Post("/admin/login", handlers.AdminLogin())
		})

		v1.Get("/stats", handlers.RosterStats())

		v1.Route("/history", func(history chi.Router) {
			history.Get("/", handlers.ListHistory())
			history.Get("/trend", handlers.HistoryTrend())
			history.Get("/export", handlers.ExportHistory())
			history.Get("/stream", handlers.StreamHistory())

			// Admin-only
			history.With(middleware.RequireAdmin(deps.Services.AdminAuth)).Delete("/", handlers.ClearHistory())
		})
	})
}
