package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/subtrack/subtrack/internal/amqp"
	"github.com/subtrack/subtrack/internal/config"
	"github.com/subtrack/subtrack/internal/handler"
	applog "github.com/subtrack/subtrack/internal/log"
	"github.com/subtrack/subtrack/internal/repository"
	"github.com/subtrack/subtrack/internal/service"
	"github.com/subtrack/subtrack/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := applog.New(applog.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	db, err := initDB(cfg)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := storage.RunMigrations(db); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	redisClient := initRedis(cfg)
	defer redisClient.Close()

	publisher, err := initPublisher(cfg, logger)
	if err != nil {
		logger.Error("failed to connect to AMQP broker", "error", err)
		os.Exit(1)
	}
	if publisher != nil {
		defer publisher.Close()
	}

	customerRepo := repository.NewCustomerRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	subscriptionService := service.NewSubscriptionService(customerRepo, paymentRepo, redisClient, publisher, cfg, logger)
	subscriptionHandler := handler.NewSubscriptionHandler(subscriptionService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	router := handler.NewRouter(subscriptionHandler, healthHandler, logger)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("server starting", "addr", server.Addr, "env", cfg.Server.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// initPublisher connects the event publisher. An empty AMQP URL disables
// events; the service treats a nil publisher as a no-op.
func initPublisher(cfg *config.Config, logger *applog.Logger) (amqp.EventPublisher, error) {
	if cfg.AMQP.URL == "" {
		logger.Info("AMQP URL not set, events disabled")
		return nil, nil
	}
	return amqp.NewClient(cfg.AMQP.URL, cfg.AMQP.Exchange)
}
