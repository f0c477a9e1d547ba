package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/npsfilm/proof-perfect-sub000/internal/email"
	"github.com/npsfilm/proof-perfect-sub000/internal/events"
	"github.com/npsfilm/proof-perfect-sub000/internal/notification"
	notificationoutbox "github.com/npsfilm/proof-perfect-sub000/internal/notification/outbox"
	"github.com/npsfilm/proof-perfect-sub000/internal/scheduler"
	"github.com/npsfilm/proof-perfect-sub000/internal/webhook"
	"github.com/npsfilm/proof-perfect-sub000/platform/config"
	"github.com/npsfilm/proof-perfect-sub000/platform/db"
	"github.com/npsfilm/proof-perfect-sub000/platform/logger"
)

// The worker consumes scheduled tasks (selection reminders, due outbox
// records) and moves pending outbox rows onto the task queue. It shares the
// notification module with the API so both render the same emails.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env)

	if cfg.GetRedisURL() == "" {
		panic("REDIS_URL is required for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

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

	eventBus := events.NewInMemoryBus(log)

	notificationModule := notification.NewModule(sender, webhookClient, cfg.GetAppBaseURL(), cfg.GetEmailFromAddress(), log)
	notificationModule.SetNotificationOutbox(notificationoutbox.New(pool))
	notificationModule.RegisterHandlers(eventBus)

	worker, err := scheduler.NewWorker(cfg, pool, eventBus, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	dispatcher, err := scheduler.NewNotificationOutboxDispatcher(cfg, pool, log)
	if err != nil {
		log.Error("failed to initialize outbox dispatcher", "error", err)
		panic("failed to initialize outbox dispatcher: " + err.Error())
	}
	defer func() { _ = dispatcher.Close() }()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		dispatcher.Run(ctx)
	}()

	<-ctx.Done()
	log.Info("shutdown signal received, waiting for workers")
	wg.Wait()
	log.Info("worker stopped")
}
