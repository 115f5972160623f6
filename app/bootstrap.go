package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"healthmonitor/internal/alerts"
	"healthmonitor/internal/auth"
	"healthmonitor/internal/db"
	"healthmonitor/internal/devices"
	"healthmonitor/internal/health"
	"healthmonitor/internal/live"
	"healthmonitor/internal/maintenance"
	"healthmonitor/internal/observability"
	"healthmonitor/internal/reports"
	"healthmonitor/internal/thresholds"
	"healthmonitor/internal/users"
	"healthmonitor/internal/vitals"
)

type Options struct {
	LoadDotEnv    bool
	RunMigrations bool
}

type Runtime struct {
	Handler http.Handler
	Close   func() error
}

// Build wires the full service: storage, auth, telemetry pipeline,
// HTTP routes and middleware. The returned Runtime owns the database
// connection.
func Build(options Options) (*Runtime, error) {
	if options.LoadDotEnv {
		_ = godotenv.Load()
	}

	logger := observability.NewLogger()

	databaseURL, err := mustEnv("DATABASE_URL")
	if err != nil {
		return nil, err
	}
	jwtSecret, err := mustEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}

	if err := observability.InitSentry(os.Getenv("SENTRY_DSN"), envOrDefault("APP_ENV", "development")); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}

	database, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	database.SetMaxOpenConns(envIntOrDefault("DB_MAX_OPEN_CONNS", 10))
	database.SetMaxIdleConns(envIntOrDefault("DB_MAX_IDLE_CONNS", 5))
	database.SetConnMaxLifetime(envMinutesOrDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30))
	database.SetConnMaxIdleTime(envMinutesOrDefault("DB_CONN_MAX_IDLE_TIME_MINUTES", 10))

	if err := database.Ping(); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if options.RunMigrations {
		if err := db.RunMigrations(context.Background(), database); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	// Auth.
	userRepo := users.NewRepository(database)
	tokenRepo := auth.NewTokenRepository(database)
	codec := auth.NewTokenCodec(jwtSecret, auth.SystemClock)
	hasher := auth.NewPasswordHasher(envIntOrDefault("BCRYPT_COST", 10))
	attempts := auth.NewAttemptTracker(
		envIntOrDefault("LOGIN_MAX_ATTEMPTS", auth.DefaultMaxAttempts),
		envMinutesOrDefault("LOGIN_LOCK_MINUTES", 15),
		auth.SystemClock,
	)
	authService := auth.NewService(userRepo, tokenRepo, codec, hasher, attempts).WithTokenTTLs(
		envMinutesOrDefault("ACCESS_TOKEN_TTL_MINUTES", 15),
		envHoursOrDefault("REFRESH_TOKEN_TTL_HOURS", 168),
	)
	authHandler := auth.NewHandler(authService)
	authenticator := auth.NewAuthenticator(codec, userRepo)

	rateLimiter := auth.NewRateLimiter(
		envIntOrDefault("RATE_LIMIT_MAX_REQUESTS", auth.DefaultMaxRequests),
		envSecondsOrDefault("RATE_LIMIT_WINDOW_SECONDS", 60),
		auth.SystemClock,
	)

	cleanupHandler := maintenance.NewCleanupHandler(
		tokenRepo,
		logger,
		os.Getenv("CRON_SECRET"),
		envDaysOrDefault("AUTH_REFRESH_TOKEN_RETENTION_DAYS", 14),
		envIntOrDefault("AUTH_CLEANUP_BATCH_SIZE", 500),
	)

	// Telemetry pipeline.
	vitalFeed := live.NewFeed()
	alertFeed := live.NewFeed()
	vitalRepo := vitals.NewRepository(database)
	thresholdRepo := thresholds.NewRepository(database)
	thresholdService := thresholds.NewService(thresholdRepo)
	alertRepo := alerts.NewRepository(database)
	alertService := alerts.NewService(alertRepo, thresholdService, alertFeed)
	deviceRepo := devices.NewRepository(database)
	deviceService := devices.NewService(deviceRepo, vitalRepo, thresholdService, alertService, vitalFeed)
	reportService := reports.NewService(vitalRepo, deviceRepo, alertRepo)

	if err := thresholdService.SeedDefaults(context.Background()); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("seed thresholds: %w", err)
	}

	thresholdHandler := thresholds.NewHandler(thresholdService)
	alertHandler := alerts.NewHandler(alertService)
	deviceHandler := devices.NewHandler(deviceService)
	reportHandler := reports.NewHandler(reportService, logger)
	liveVitalsHandler := live.NewHandler(vitalFeed)
	liveAlertsHandler := live.NewHandler(alertFeed)
	healthHandler := health.NewHandler(database)

	mux := http.NewServeMux()

	// Open routes.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/refresh-token", authHandler.Refresh)
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.HandleFunc("GET /api/health", healthHandler.Check)
	mux.HandleFunc("POST /api/devices/data", deviceHandler.IngestData)
	mux.HandleFunc("GET /internal/maintenance/cleanup", cleanupHandler.Handle)
	mux.HandleFunc("POST /internal/maintenance/cleanup", cleanupHandler.Handle)

	// Routes requiring an authenticated user.
	protected := func(handler http.HandlerFunc) http.Handler {
		return auth.RequireUser(handler)
	}
	mux.Handle("GET /api/devices", protected(deviceHandler.List))
	mux.Handle("GET /api/devices/status", protected(deviceHandler.ListStatus))
	mux.Handle("POST /api/devices", protected(deviceHandler.Register))
	mux.Handle("GET /api/devices/{deviceId}/history", protected(deviceHandler.History))
	mux.Handle("POST /api/devices/{deviceId}/acknowledge", protected(deviceHandler.AcknowledgeAlerts))
	mux.Handle("DELETE /api/devices/{deviceId}", protected(deviceHandler.Delete))
	mux.Handle("GET /api/alerts", protected(alertHandler.Active))
	mux.Handle("GET /api/alerts/history", protected(alertHandler.History))
	mux.Handle("GET /api/alerts/device/{deviceId}", protected(alertHandler.ByDevice))
	mux.Handle("GET /api/thresholds", protected(thresholdHandler.List))
	mux.Handle("PUT /api/thresholds", protected(thresholdHandler.Update))
	mux.Handle("GET /api/reports", protected(reportHandler.Generate))
	mux.Handle("GET /api/reports/export", protected(reportHandler.Export))
	mux.Handle("GET /api/live/vitals", auth.RequireUser(liveVitalsHandler))
	mux.Handle("GET /api/live/alerts", auth.RequireUser(liveAlertsHandler))

	handler := observability.RecoverMiddleware(logger,
		observability.RequestLoggingMiddleware(logger,
			rateLimiter.Middleware(
				authenticator.Middleware(mux))))

	return &Runtime{
		Handler: handler,
		Close: func() error {
			observability.FlushSentry()
			return database.Close()
		},
	}, nil
}

func mustEnv(name string) (string, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return "", fmt.Errorf("missing required env: %s", name)
	}
	return value, nil
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envIntOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envMinutesOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Minute
}

func envHoursOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Hour
}

func envDaysOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * 24 * time.Hour
}

func envSecondsOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Second
}
