package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"deutschdrill/internal/bot"
	"deutschdrill/internal/config"
	"deutschdrill/internal/database"
	"deutschdrill/internal/handlers"
	"deutschdrill/internal/mailer"
	"deutschdrill/internal/repository"
	"deutschdrill/internal/scheduler"
	"deutschdrill/internal/security"
	"deutschdrill/internal/service"
	"deutschdrill/migrations"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	sessionCleanupInterval = time.Hour
	testSessionIdleTimeout = 24 * time.Hour
	staleCardAge           = 7 * 24 * time.Hour
	shutdownTimeout        = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) *zap.Logger {
	var logger *zap.Logger
	if cfg.IsDevelopment() {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	return logger
}

// lazyDB answers health pings before the database is open
type lazyDB struct {
	db atomic.Pointer[database.DB]
}

func (l *lazyDB) PingContext(ctx context.Context) error {
	db := l.db.Load()
	if db == nil {
		return errors.New("database not initialized")
	}
	return db.PingContext(ctx)
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	status := handlers.NewStartupStatus()
	pinger := &lazyDB{}
	health := handlers.Health(status, pinger)

	// Until the API is built every path except /healthz gets 503
	var api atomic.Pointer[http.Handler]
	root := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h := api.Load(); h != nil {
			(*h).ServeHTTP(w, r)
			return
		}
		health(w, r)
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      root,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server starting", zap.String("addr", server.Addr), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	pinger.db.Store(db)
	status.CompleteStep(handlers.StepDatabase)
	logger.Info("database connection established", zap.String("type", cfg.Database.Type))

	var fsys fs.FS = migrations.FS
	if cfg.Database.MigrationsPath != "" {
		fsys = os.DirFS(cfg.Database.MigrationsPath)
	}
	if err := db.RunMigrations(ctx, fsys, logger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	status.CompleteStep(handlers.StepMigrations)

	userRepo := repository.NewUserRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	testRepo := repository.NewTestRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	reports, err := mailer.New(ctx, mailer.Options{
		Region:     cfg.Email.Region,
		FromEmail:  cfg.Email.FromEmail,
		FromName:   cfg.Email.FromName,
		AppBaseURL: cfg.Email.AppBaseURL,
	}, userRepo, logger.Named("mailer"))
	if err != nil {
		return err
	}

	tokens := security.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	csrf := security.NewCSRFGenerator(cfg.Auth.JWTSecret)
	loginLimiter := security.NewRateLimiter(cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow)

	authService := service.NewAuthService(userRepo, tokens, cfg.Auth.SessionDuration, logger.Named("auth"))
	activityService := service.NewActivityService(activityRepo, cfg.Activity.Timeout, logger.Named("activity"))
	drillService := service.NewDrillService(catalogRepo, progressRepo, progressRepo, db, logger.Named("drill"))
	testService := service.NewTestService(catalogRepo, progressRepo, testRepo, db, reports, logger.Named("tests"))
	progressService := service.NewProgressService(progressRepo, catalogRepo, testRepo, userRepo, activityService, logger.Named("progress"))
	catalogService := service.NewCatalogService(catalogRepo, logger.Named("catalog"))

	httpLogger := logger.Named("http")
	router := &handlers.Router{
		Middleware:   handlers.NewMiddleware(authService, activityService, csrf, httpLogger),
		Auth:         handlers.NewAuthHandler(authService, activityService, csrf, httpLogger),
		Drill:        handlers.NewDrillHandler(drillService, httpLogger),
		Tests:        handlers.NewTestHandler(testService, httpLogger),
		Progress:     handlers.NewProgressHandler(progressService, httpLogger),
		Admin:        handlers.NewAdminHandler(catalogService, cfg.Server.UploadMaxSize, httpLogger),
		LoginLimiter: loginLimiter,
		Health:       health,
	}
	status.CompleteStep(handlers.StepServices)

	jobsLogger := logger.Named("jobs")
	jobs := scheduler.New(jobsLogger,
		scheduler.Job{
			Name:     "close idle activity",
			Interval: cfg.Activity.SweepInterval,
			Run:      scheduler.Count("close idle activity", jobsLogger, activityService.Sweep),
		},
		scheduler.Job{
			Name:     "expired sessions",
			Interval: sessionCleanupInterval,
			Run: scheduler.Count("expired sessions", jobsLogger, func(ctx context.Context, _ time.Time) (int64, error) {
				return authService.CleanupExpiredSessions(ctx)
			}),
		},
		scheduler.Job{
			Name:     "idle test sessions",
			Interval: sessionCleanupInterval,
			Run: scheduler.Count("idle test sessions", jobsLogger, func(ctx context.Context, now time.Time) (int64, error) {
				return testRepo.DeleteIdleTestSessions(ctx, now.Add(-testSessionIdleTimeout))
			}),
		},
		scheduler.Job{
			Name:     "stale drill cards",
			Interval: sessionCleanupInterval,
			Run: scheduler.Count("stale drill cards", jobsLogger, func(ctx context.Context, now time.Time) (int64, error) {
				return progressRepo.DeleteStaleCards(ctx, now.Add(-staleCardAge))
			}),
		},
		scheduler.Job{
			Name:     "login rate limiter",
			Interval: cfg.Auth.LoginRateWindow,
			Run: scheduler.Count("login rate limiter", jobsLogger, func(_ context.Context, now time.Time) (int, error) {
				return loginLimiter.Cleanup(now), nil
			}),
		},
	)
	g.Go(func() error { return jobs.Run(ctx) })

	if cfg.Telegram.BotToken != "" {
		botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
		if err != nil {
			return fmt.Errorf("failed to connect telegram bot: %w", err)
		}
		tg := bot.New(botAPI, drillService, authService, userRepo, progressService, logger.Named("bot"))
		g.Go(func() error { return bot.Run(ctx, botAPI, tg) })
	} else {
		logger.Info("telegram bot disabled: TELEGRAM_BOT_TOKEN not configured")
	}

	h := router.Handler()
	api.Store(&h)
	status.CompleteStep(handlers.StepReady)
	logger.Info("server ready")

	return g.Wait()
}
