package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rdvline/booking-server/internal/booking"
	"github.com/rdvline/booking-server/internal/gcal"
	"github.com/rdvline/booking-server/internal/http/handlers"
	httpmiddleware "github.com/rdvline/booking-server/internal/http/middleware"
	"github.com/rdvline/booking-server/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	HealthHandler  *handlers.HealthHandler
	BookingHandler *booking.Handler
	OAuthHandler   *gcal.OAuthHandler
	MetricsHandler http.Handler

	// APIKey protects /book_appointment. Empty rejects everything.
	APIKey string

	CORSAllowedOrigins []string
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.RateLimitPerSecond > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
	}
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", cfg.HealthHandler.Health)

	if cfg.OAuthHandler != nil {
		r.Mount("/oauth", cfg.OAuthHandler.Routes())
	}

	if cfg.BookingHandler != nil {
		r.With(httpmiddleware.APIKey(cfg.APIKey, cfg.Logger)).
			Post("/book_appointment", cfg.BookingHandler.BookAppointment)
	}

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}
