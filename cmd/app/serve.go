package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/db"
	"marketplace/internal/events"
	"marketplace/internal/logger"
	"marketplace/internal/payment/tap"
	"marketplace/internal/scheduler"
	"marketplace/internal/server"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run migrations, then the HTTP API and the booking scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func serve() error {
	logger.Info("Starting marketplace application")
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer database.Close()
	logger.Info("Database connected")

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("Migrations completed")

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	producer, err := events.NewProducer(cfg.KafkaBrokers, cfg.KafkaMockMode)
	if err != nil {
		return fmt.Errorf("create event producer: %w", err)
	}
	defer producer.Close()

	gateway := tap.NewClient(cfg.TapBaseURL, cfg.TapSecretKey, cfg.TapRedirectURL, cfg.TapWebhookURL)
	svcs := server.NewServices(cfg, database, rdb, producer, gateway)

	sched, err := scheduler.New(svcs.Bookings, cfg.SchedulerInterval, cfg.PendingBookingTTL)
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	sched.Start()

	srv := server.New(cfg, svcs, map[string]server.Check{
		"database": server.DatabaseCheck(database),
		"redis":    server.RedisCheck(rdb),
	})
	logger.Infof("Server starting on port %s", cfg.Port)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	return runUntilStopped(srv, sched.Shutdown, sigChan, 30*time.Second)
}

type httpServer interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// runUntilStopped serves until a signal arrives or the listener fails, then
// shuts everything down. A listener failure is returned once shutdown is done.
func runUntilStopped(srv httpServer, stopScheduler func() error, signals <-chan os.Signal, grace time.Duration) error {
	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	var serveErr error
	select {
	case sig := <-signals:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
		serveErr = fmt.Errorf("http server: %w", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}
	if err := stopScheduler(); err != nil {
		logger.Errorf("Error during scheduler shutdown: %v", err)
	}

	logger.Info("Server stopped")
	return serveErr
}
