package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/npsfilm/proof-perfect-sub000/internal/adapters/storage"
	"github.com/npsfilm/proof-perfect-sub000/internal/email"
	"github.com/npsfilm/proof-perfect-sub000/internal/events"
	"github.com/npsfilm/proof-perfect-sub000/internal/galleries"
	apphttp "github.com/npsfilm/proof-perfect-sub000/internal/http"
	"github.com/npsfilm/proof-perfect-sub000/internal/http/router"
	"github.com/npsfilm/proof-perfect-sub000/internal/notification"
	notificationoutbox "github.com/npsfilm/proof-perfect-sub000/internal/notification/outbox"
	"github.com/npsfilm/proof-perfect-sub000/internal/photos"
	photorepo "github.com/npsfilm/proof-perfect-sub000/internal/photos/repository"
	"github.com/npsfilm/proof-perfect-sub000/internal/reopen"
	"github.com/npsfilm/proof-perfect-sub000/internal/scheduler"
	"github.com/npsfilm/proof-perfect-sub000/internal/webhook"
	"github.com/npsfilm/proof-perfect-sub000/platform/config"
	"github.com/npsfilm/proof-perfect-sub000/platform/db"
	"github.com/npsfilm/proof-perfect-sub000/platform/logger"
	"github.com/npsfilm/proof-perfect-sub000/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

const storageBucketEnsureErrPrefix = "failed to ensure storage bucket exists: "
const storageBucketEnsureErrMsg = "failed to ensure storage bucket exists"

// ensureBucket wraps the retry logic for verifying a MinIO bucket exists.
func ensureBucket(ctx context.Context, log *logger.Logger, storageSvc storage.StorageService, name, bucket string) {
	if err := withRetry(ctx, log, "ensure "+name+" bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error(storageBucketEnsureErrMsg, "error", err, "bucket", bucket)
		panic(storageBucketEnsureErrPrefix + err.Error())
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	reminderScheduler, closeScheduler := initReminderScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	webhookEndpoints, err := webhook.LoadEndpoints(cfg.GetWebhookEndpointsFile())
	if err != nil {
		log.Error("failed to load webhook endpoints", "error", err)
		panic("failed to load webhook endpoints: " + err.Error())
	}
	webhookClient := webhook.NewClient(webhookEndpoints, cfg.GetWebhookTimeout(), log)
	if webhookClient.HasEndpoints() {
		log.Info("webhook endpoints loaded", "count", len(webhookEndpoints))
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.NewModule(sender, webhookClient, cfg.GetAppBaseURL(), cfg.GetEmailFromAddress(), log)
	notificationModule.RegisterHandlers(eventBus)
	if reminderScheduler != nil {
		// With a worker around, notifications go through the durable outbox.
		notificationModule.SetNotificationOutbox(notificationoutbox.New(pool))
	}

	// The gallery and photo contexts read from each other's tables, so the
	// photo repository is shared at the composition root.
	photoRepo := photorepo.New(pool)
	galleriesModule := galleries.NewModule(pool, photoRepo, val, eventBus, log)
	photosModule := photos.NewModule(pool, galleriesModule.Repository, val, eventBus, log)
	reopenModule := reopen.NewModule(pool, galleriesModule.Repository, galleriesModule.Service, val, eventBus, log)
	galleriesModule.SetReopenReader(reopenModule.Repository)
	if reminderScheduler != nil {
		galleriesModule.SetReminderScheduler(reminderScheduler)
	}

	// Storage service for photo uploads, reference files and deliveries (MinIO)
	if cfg.IsMinIOEnabled() {
		storageSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		ensureBucket(ctx, log, storageSvc, "gallery-photos", cfg.GetMinioBucketPhotos())
		ensureBucket(ctx, log, storageSvc, "gallery-deliveries", cfg.GetMinioBucketDeliveries())
		ensureBucket(ctx, log, storageSvc, "staging-references", cfg.GetMinioBucketReferenceFiles())
		log.Info(
			"storage service initialized",
			"photosBucket", cfg.GetMinioBucketPhotos(),
			"deliveriesBucket", cfg.GetMinioBucketDeliveries(),
			"referenceFilesBucket", cfg.GetMinioBucketReferenceFiles(),
		)

		galleriesModule.SetStorage(storageSvc, cfg.GetMinioBucketPhotos(), cfg.GetMinioBucketReferenceFiles(), cfg.GetMinioBucketDeliveries())
		photosModule.SetStorage(storageSvc, cfg.GetMinioBucketPhotos())
	} else {
		log.Warn("MINIO_ENDPOINT not configured; file storage disabled")
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			galleriesModule,
			photosModule,
			reopenModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initReminderScheduler(cfg config.SchedulerConfig, log *logger.Logger) (scheduler.ReminderScheduler, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; selection reminders and outbox dispatch disabled")
		return nil, nil
	}

	reminderClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize reminder scheduler client", "error", err)
		return nil, nil
	}

	return reminderClient, func() {
		_ = reminderClient.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
