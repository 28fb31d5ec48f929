package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"

	"github.com/workhive/backend/internal/auth"
	"github.com/workhive/backend/internal/config"
	"github.com/workhive/backend/internal/gateway"
	"github.com/workhive/backend/internal/handlers"
	"github.com/workhive/backend/internal/ledger"
	"github.com/workhive/backend/internal/middleware"
	"github.com/workhive/backend/internal/migrations"
	"github.com/workhive/backend/internal/observability"
	"github.com/workhive/backend/internal/outbox"
	"github.com/workhive/backend/internal/repository"
	"github.com/workhive/backend/internal/router"
	"github.com/workhive/backend/internal/services"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := migrations.Up(cfg.DatabaseURL); err != nil {
		slog.Error("Schema migration failed. Ensure Postgres is running, e.g. make dev-up", "error", err)
		return err
	}
	slog.Info("Schema migrations applied")

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		slog.Error("Cannot reach PostgreSQL", "error", err)
		return err
	}

	if err := outbox.Migrate(ctx, pool); err != nil {
		slog.Error("River migrate up failed", "error", err)
		return err
	}
	slog.Info("River migrations applied")

	metrics := observability.NewMetrics()

	// Repositories
	users := repository.NewUserRepo(pool)
	tasks := repository.NewTaskRepo(pool)
	submissions := repository.NewSubmissionRepo(pool)
	withdrawals := repository.NewWithdrawalRepo(pool)
	payments := repository.NewPaymentRepo(pool)
	notifications := repository.NewNotificationRepo(pool)

	ledgerSvc := ledger.NewService(ledger.NewRepository(pool))

	// Services enqueue notifications through the inserter; the River client
	// is attached below once it exists.
	inserter := &outbox.Inserter{}
	deps := services.Deps{
		DB:      pool,
		Ledger:  ledgerSvc,
		Notify:  inserter.InsertNotifyTx,
		Metrics: metrics,
		Logger:  logger,
	}

	var gw services.Gateway
	if cfg.StripeSecretKey != "" {
		gw = gateway.NewStripe(cfg.StripeSecretKey, cfg.PaymentCurrency, logger)
	} else {
		slog.Warn("STRIPE_SECRET_KEY not set; payment intents disabled and payments recorded unverified")
	}

	userSvc := services.NewUserService(deps, users, cfg.IsAdminEmail)
	taskSvc := services.NewTaskService(deps, tasks, submissions, payments)
	submissionSvc := services.NewSubmissionService(deps, tasks, submissions)
	withdrawalSvc := services.NewWithdrawalService(deps, services.WithdrawalPolicy{
		CoinsPerDollar: cfg.CoinsPerDollar,
		MinCoins:       cfg.MinWithdrawalCoins,
	}, withdrawals, users, payments)
	paymentSvc := services.NewPaymentService(deps, payments, gw)
	notificationSvc := services.NewNotificationService(notifications)

	riverClient, err := outbox.NewClient(pool, outbox.Options{
		MaxWorkers:        cfg.RiverMaxWorkers,
		ReconcileInterval: cfg.ReconcileInterval,
		Notifications:     notifications,
		Ledger:            ledgerSvc,
		Gauge:             metrics,
		Logger:            logger,
	})
	if err != nil {
		slog.Error("Failed to create River client", "error", err)
		return err
	}
	inserter.Attach(riverClient)

	validator, err := services.NewValidator()
	if err != nil {
		return err
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)
	limiter.StartCleanup(ctx, 5*time.Minute)

	api := router.New(router.Handlers{
		Users:         &handlers.UserHandler{Users: userSvc, Validator: validator, Logger: logger},
		Tasks:         &handlers.TaskHandler{Tasks: taskSvc, Validator: validator, Logger: logger},
		Submissions:   &handlers.SubmissionHandler{Submissions: submissionSvc, Validator: validator, Logger: logger},
		Withdrawals:   &handlers.WithdrawalHandler{Withdrawals: withdrawalSvc, Validator: validator, Logger: logger},
		Payments:      &handlers.PaymentHandler{Payments: paymentSvc, Validator: validator, Logger: logger},
		Notifications: &handlers.NotificationHandler{Notifications: notificationSvc, Logger: logger},
		Ops:           &handlers.OpsHandler{DB: pool, Logger: logger},
		Metrics:       metrics.Handler(),
	}, router.Middleware{
		Authenticate: middleware.Authenticate(auth.NewService(cfg.JWTSecret), userSvc, logger),
		RateLimit:    limiter.Handler,
	})

	handler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(metrics.Instrument(api))

	if err := riverClient.Start(ctx); err != nil {
		slog.Error("River client failed to start", "error", err)
		return err
	}

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown", "error", err)
	}
	if err := riverClient.Stop(shutdownCtx); err != nil {
		slog.Error("River stop", "error", err)
	}
	return nil
}
