// Package main is the entrypoint for the studentdesk server.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/studentdesk/studentdesk/internal/cache"
	"github.com/studentdesk/studentdesk/internal/config"
	"github.com/studentdesk/studentdesk/internal/form"
	"github.com/studentdesk/studentdesk/internal/handler"
	"github.com/studentdesk/studentdesk/internal/metrics"
	"github.com/studentdesk/studentdesk/internal/middleware"
	"github.com/studentdesk/studentdesk/internal/repository"
	"github.com/studentdesk/studentdesk/internal/server"
	"github.com/studentdesk/studentdesk/internal/service"
	"github.com/studentdesk/studentdesk/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}

	logger := initLogger(cfg)

	view, err := form.NewView(form.DefaultStyle())
	if err != nil {
		return err
	}

	// Schema migrations
	if cfg.AutoMigrate {
		if err := migrate(cfg.DatabaseURL, logger); err != nil {
			logger.Error(
				"failed to run migrations",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				slog.String("database_url", redactURL(cfg.DatabaseURL)),
			)
			return errors.New("migrations failed")
		}
	}

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL, repository.PoolOptions{
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		return errors.New("database unavailable")
	}
	logger.Info("connected to database")

	// Initialize cache. Redis is optional.
	var (
		studentCache service.StudentCache
		cacheHealth  handler.HealthChecker
		cacheClient  *cache.Cache
	)
	if cfg.CacheEnabled() {
		cacheClient, err = cache.New(ctx, cfg.RedisURL, cache.ClientOptions{
			PoolSize:     cfg.RedisPoolSize,
			MinIdleConns: cfg.RedisMinIdleConns,
		})
		if err != nil {
			repo.Close()
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			return errors.New("cache unavailable")
		}
		studentCache = cacheClient
		cacheHealth = cacheClient
		logger.Info("connected to Redis")
	} else {
		logger.Info("student cache disabled")
	}

	// Tracing
	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.OTelServiceName,
		Environment: cfg.AppEnv,
		SampleRatio: cfg.OTelSampleRatio,
		Insecure:    !cfg.IsProduction(),
	})
	if err != nil {
		logger.Warn("tracing disabled", slog.String("error", err.Error()))
		shutdownTracing = func(context.Context) error { return nil }
	}

	// Metrics
	var (
		recorder       metrics.Recorder = metrics.NewNoop()
		metricsHandler http.Handler
	)
	if cfg.MetricsEnabled {
		prom := metrics.NewPrometheus()
		recorder = prom
		metricsHandler = prom.Handler()
	}

	// Initialize services
	studentService := service.NewStudentService(repo, studentCache, logger, recorder,
		service.WithCacheTTL(cfg.StudentCacheTTL),
	)

	// Initialize handlers
	h := handler.New(cfg.OTelServiceName)
	healthHandler := handler.NewHealthHandler(repo, cacheHealth)
	studentHandler := handler.NewStudentHandler(studentService, logger, recorder)
	pageHandler := handler.NewPageHandler(studentService, view, logger, recorder,
		handler.WithPrefillTimeout(cfg.PrefillTimeout),
	)

	r := setupRouter(h, healthHandler, studentHandler, pageHandler, metricsHandler, recorder, cfg, logger)

	srv := server.New(
		telemetry.Middleware("http.server")(r),
		server.Options{
			Port:            cfg.AppPort,
			ReadTimeout:     cfg.ReadTimeout,
			WriteTimeout:    cfg.WriteTimeout,
			ShutdownTimeout: cfg.ShutdownTimeout,
		},
		logger,
	)

	var cacheCloser io.Closer
	if cacheClient != nil {
		cacheCloser = cacheClient
	}
	registerShutdown(srv, repo, cacheCloser, shutdownTracing)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"cache", cfg.CacheEnabled(),
		"tracing", cfg.TracingEnabled(),
	)

	return srv.Run(ctx)
}

// registerShutdown adds the component hooks to srv. Hooks run in reverse
// order: tracing flushes first, the pool closes last. rdb may be nil.
func registerShutdown(srv *server.Server, db interface{ Close() }, rdb io.Closer, tracing func(context.Context) error) {
	srv.OnShutdown("database", func(context.Context) error {
		db.Close()
		return nil
	})
	if rdb != nil {
		srv.OnShutdown("redis", func(context.Context) error {
			return rdb.Close()
		})
	}
	srv.OnShutdown("tracing", tracing)
}

func migrate(databaseURL string, logger *slog.Logger) error {
	m, err := repository.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			logger.Warn("failed to close migrator", slog.String("error", err.Error()))
		}
	}()

	if err := m.Up(); err != nil {
		return err
	}

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	logger.Info("database migrated", "version", version, "dirty", dirty)
	return nil
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	h *handler.Handler,
	healthHandler *handler.HealthHandler,
	studentHandler *handler.StudentHandler,
	pageHandler *handler.PageHandler,
	metricsHandler http.Handler,
	recorder metrics.Recorder,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Metrics(recorder))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment:         cfg.IsDevelopment(),
		ContentSecurityPolicy: middleware.DefaultContentSecurityPolicy,
	}))
	r.Use(middleware.CORS(cfg.GetCORSAllowedOrigins()))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	// Health endpoints
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	// Root info endpoint
	r.Get("/", h.Hello)

	// JSON API
	r.Route("/api/v1/students", func(r chi.Router) {
		r.Post("/", studentHandler.Create)
		r.Get("/{id}", studentHandler.Get)
		r.Put("/{id}", studentHandler.Update)
	})

	// Server-rendered forms
	r.Route("/student", func(r chi.Router) {
		r.Get("/new", pageHandler.New)
		r.Post("/new", pageHandler.Create)
		r.Get("/{id}/edit", pageHandler.Edit)
		r.Post("/{id}/edit", pageHandler.Update)
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
