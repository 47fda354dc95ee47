package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"expense-ledger/internal/config"
	"expense-ledger/internal/database"
	"expense-ledger/internal/events"
	"expense-ledger/internal/repositories"
	"expense-ledger/internal/server"
	"expense-ledger/internal/services"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// a missing .env is fine, the environment may already be populated
	_ = godotenv.Load()

	cfg := config.Load()
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Initialize(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}()

	var publisher services.EventPublisherInterface
	if cfg.Events.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.ExchangeName, cfg.Events.RoutingKey)
		if err != nil {
			logger.Warn("Expense events disabled, AMQP broker unreachable", "error", err)
		} else {
			defer amqpPublisher.Close()
			publisher = services.NewCircuitBreakerPublisher(amqpPublisher, services.DefaultCircuitBreakerConfig(), logger)
			logger.Info("Publishing expense events", "exchange", cfg.Events.ExchangeName)
		}
	}

	expenseService := services.NewExpenseService(
		repositories.NewExpenseRepository(db.DB),
		services.NewPrometheusMetrics(prometheus.DefaultRegisterer),
		publisher,
		cfg.Ledger,
		logger,
	)

	e := server.New(ctx, server.Dependencies{
		Config:         cfg,
		Database:       db,
		ExpenseService: expenseService,
		Generator:      services.NewExpenseGenerator(),
		Gatherer:       prometheus.DefaultGatherer,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      e,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting expense ledger API",
			"address", srv.Addr,
			"environment", cfg.Server.Environment,
			"database", cfg.Database.Driver,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.UseJSONLogs() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
