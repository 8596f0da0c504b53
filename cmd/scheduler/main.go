package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/subtrack/subtrack/internal/amqp"
	"github.com/subtrack/subtrack/internal/config"
	applog "github.com/subtrack/subtrack/internal/log"
	"github.com/subtrack/subtrack/internal/repository"
	"github.com/subtrack/subtrack/internal/service"
)

const sweepTimeout = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := applog.New(applog.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}).WithComponent("scheduler")

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var publisher amqp.EventPublisher
	if cfg.AMQP.URL != "" {
		client, err := amqp.NewClient(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			logger.Error("failed to connect to AMQP broker", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
	} else {
		logger.Info("AMQP URL not set, reminders will only be logged")
	}

	customerRepo := repository.NewCustomerRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	subscriptionService := service.NewSubscriptionService(customerRepo, paymentRepo, nil, publisher, cfg, logger)

	c := cron.New(cron.WithSeconds())
	_, err = c.AddFunc(cfg.Scheduler.SweepSpec, func() {
		runSweep(subscriptionService, cfg.Scheduler.SweepConcurrency, logger)
	})
	if err != nil {
		logger.Error("failed to schedule renewal sweep", "spec", cfg.Scheduler.SweepSpec, "error", err)
		os.Exit(1)
	}

	c.Start()
	logger.Info("scheduler started", "sweep_spec", cfg.Scheduler.SweepSpec)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down scheduler")
	<-c.Stop().Done()
	logger.Info("scheduler stopped")
}

// runSweep classifies every customer once and fans reminder events out
// over a bounded worker group. A failed publish skips that customer but
// does not abort the sweep.
func runSweep(subscriptionService *service.SubscriptionService, concurrency int, logger *applog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	started := time.Now()
	result, err := subscriptionService.RenewalSweep(ctx)
	if err != nil {
		logger.Error("renewal sweep failed", "error", err)
		return
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)
	for _, candidate := range result.Reminders {
		group.Go(func() error {
			if err := subscriptionService.PublishReminder(groupCtx, candidate); err != nil {
				logger.Warn("reminder publish failed",
					"customer_id", candidate.CustomerID,
					"status", candidate.Status,
					"error", err)
			}
			return nil
		})
	}
	_ = group.Wait()

	logger.Info("renewal sweep finished",
		"duration", time.Since(started),
		"active", result.Counts["active"],
		"due", result.Counts["due"],
		"grace", result.Counts["grace"],
		"expired", result.Counts["expired"],
		"none", result.Counts["none"],
		"reminders", len(result.Reminders))
}
