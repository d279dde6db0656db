// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/robfig/cron/v3"

	"github.com/angelamos/shelfmark/internal/admin"
	"github.com/angelamos/shelfmark/internal/auth"
	"github.com/angelamos/shelfmark/internal/book"
	"github.com/angelamos/shelfmark/internal/borrow"
	"github.com/angelamos/shelfmark/internal/config"
	"github.com/angelamos/shelfmark/internal/core"
	"github.com/angelamos/shelfmark/internal/health"
	"github.com/angelamos/shelfmark/internal/mail"
	"github.com/angelamos/shelfmark/internal/middleware"
	"github.com/angelamos/shelfmark/internal/server"
	"github.com/angelamos/shelfmark/internal/upload"
	"github.com/angelamos/shelfmark/internal/user"
)

const (
	drainDelay = 5 * time.Second
	jobTimeout = 2 * time.Minute
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	sessionManager, err := auth.NewSessionManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("session manager initialized",
		"algorithm", "ES256",
		"key_id", sessionManager.GetKeyID(),
	)

	mailer, err := mail.NewMailer(cfg.Mail)
	if err != nil {
		return err
	}

	uploads, err := upload.NewDiskStore(cfg.Uploads.Dir, cfg.Uploads.MaxBytes)
	if err != nil {
		return err
	}

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo, uploads, logger)
	userHandler := user.NewHandler(userSvc)

	authSvc := auth.NewService(
		userRepo,
		sessionManager,
		mailer,
		redis.Client,
		cfg.Library,
		cfg.App.FrontendURL,
		logger,
	)
	authHandler := auth.NewHandler(authSvc, cfg.IsProduction())

	bookRepo := book.NewRepository(db.DB)
	bookSvc := book.NewService(bookRepo)
	bookHandler := book.NewHandler(bookSvc)

	borrowRepo := borrow.NewRepository(db.DB)
	borrowSvc := borrow.NewService(borrowRepo, userRepo, cfg.Library)
	borrowHandler := borrow.NewHandler(borrowSvc)

	notifier := borrow.NewNotifier(
		borrowRepo,
		mailer,
		cfg.Library.OverdueGrace,
		logger,
	)

	healthHandler := health.NewHandler(db, redis)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
		Library:    libraryCounter{books: bookSvc, borrows: borrowSvc},
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", sessionManager.GetJWKSHandler())

	router.Handle("/uploads/*", http.StripPrefix(
		"/uploads/",
		http.FileServer(http.Dir(cfg.Uploads.Dir)),
	))

	authenticator := middleware.Authenticator(authSvc)
	adminOnly := middleware.RequireAdmin

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator)
		bookHandler.RegisterRoutes(r, authenticator, adminOnly)
		borrowHandler.RegisterRoutes(r, authenticator, adminOnly)
		userHandler.RegisterRoutes(r, authenticator, adminOnly)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

	scheduler := cron.New()

	_, err = scheduler.AddFunc(
		"@every "+cfg.Library.SweepInterval.String(),
		func() {
			jobCtx, cancel := context.WithTimeout(
				context.Background(), jobTimeout,
			)
			defer cancel()

			sent, sweepErr := notifier.Sweep(jobCtx)
			if sweepErr != nil {
				logger.Error("overdue sweep failed", "error", sweepErr)
				return
			}
			if sent > 0 {
				logger.Info("overdue reminders sent", "count", sent)
			}
		},
	)
	if err != nil {
		return err
	}

	_, err = scheduler.AddFunc(
		"@every "+cfg.Library.ReaperInterval.String(),
		func() {
			jobCtx, cancel := context.WithTimeout(
				context.Background(), jobTimeout,
			)
			defer cancel()

			if _, reapErr := userSvc.ReapUnverified(
				jobCtx, cfg.Library.UnverifiedTTL, time.Now(),
			); reapErr != nil {
				logger.Error("unverified account reap failed", "error", reapErr)
			}
		},
	)
	if err != nil {
		return err
	}

	scheduler.Start()
	logger.Info("background jobs scheduled",
		"sweep_interval", cfg.Library.SweepInterval.String(),
		"reaper_interval", cfg.Library.ReaperInterval.String(),
	)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	cronCtx := scheduler.Stop()
	select {
	case <-cronCtx.Done():
	case <-shutdownCtx.Done():
		logger.Warn("background jobs did not finish before shutdown deadline")
	}

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

// libraryCounter adapts the book and borrow services to the admin stats
// interface.
type libraryCounter struct {
	books   *book.Service
	borrows *borrow.Service
}

func (c libraryCounter) CountBooks(ctx context.Context) (int, error) {
	return c.books.CountBooks(ctx)
}

func (c libraryCounter) CountActiveLoans(ctx context.Context) (int, error) {
	return c.borrows.CountActive(ctx)
}

func (c libraryCounter) CountOverdueLoans(ctx context.Context) (int, error) {
	return c.borrows.CountOverdue(ctx)
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
