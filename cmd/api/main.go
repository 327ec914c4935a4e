package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rdvline/booking-server/internal/api/router"
	"github.com/rdvline/booking-server/internal/booking"
	appconfig "github.com/rdvline/booking-server/internal/config"
	"github.com/rdvline/booking-server/internal/gcal"
	"github.com/rdvline/booking-server/internal/http/handlers"
	"github.com/rdvline/booking-server/internal/observability/metrics"
	"github.com/rdvline/booking-server/pkg/logging"
)

func main() {
	// Load .env if present, then configuration from the environment.
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting booking-server",
		"env", cfg.Env,
		"port", cfg.Port,
		"calendar_id", cfg.CalendarID,
		"slot_capacity", cfg.SlotCapacity,
	)

	if cfg.APIKey == "" {
		logger.Warn("X_API_KEY is not set; all booking requests will be rejected")
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		logger.Error("invalid BOOKING_TZ, falling back to UTC", "tz", cfg.TimeZone, "error", err)
		loc = time.UTC
	}

	// Calendar wiring: token file, OAuth config, per-request client provider.
	tokenStore := gcal.NewTokenStore(cfg.TokenFile)
	oauthCfg := gcal.NewOAuthConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	provider := gcal.NewProvider(oauthCfg, tokenStore, cfg.CalendarID, logger)

	reg := prometheus.NewRegistry()
	bookingMetrics := metrics.NewBookingMetrics(reg)

	bookingHandler := booking.NewHandler(booking.HandlerConfig{
		Provider:     provider,
		Capacity:     cfg.SlotCapacity,
		SlotDuration: cfg.SlotDuration,
		Location:     loc,
		AuthStartURL: cfg.PublicBaseURL + "/oauth/start",
		Logger:       logger,
		Metrics:      bookingMetrics,
	})
	oauthHandler := gcal.NewOAuthHandler(oauthCfg, tokenStore, logger)
	healthHandler := handlers.NewHealthHandler(tokenStore)

	r := router.New(&router.Config{
		Logger:             logger,
		HealthHandler:      healthHandler,
		BookingHandler:     bookingHandler,
		OAuthHandler:       oauthHandler,
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		APIKey:             cfg.APIKey,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
