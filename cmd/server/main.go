// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/campaign-directory/internal/config"
	"github.com/unclebandit/campaign-directory/internal/controller"
	"github.com/unclebandit/campaign-directory/internal/db"
	"github.com/unclebandit/campaign-directory/internal/handler"
	"github.com/unclebandit/campaign-directory/internal/logger"
	"github.com/unclebandit/campaign-directory/internal/metrics"
	"github.com/unclebandit/campaign-directory/internal/queue"
	"github.com/unclebandit/campaign-directory/internal/repository"
	"github.com/unclebandit/campaign-directory/internal/service"
)

func main() {
	cfg, loadedDotEnv, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialise logger: %v", err)
	}
	defer zl.Sync()

	if !loadedDotEnv {
		zl.Warn("No .env file found, relying on OS environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Fatal("Server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	store, health, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		if interrupted(ctx, log) {
			return nil
		}
		return err
	}
	defer closeStore()

	m := metrics.New()
	q, closeQueue, err := openQueue(cfg, log, service.NewWorker(log, m))
	if err != nil {
		return err
	}
	defer closeQueue()

	campaignService := service.NewCampaignService(store, q, cfg.EventsTopic, log)
	if cfg.SeedDefaults {
		if _, err := campaignService.SeedDefaults(ctx); err != nil {
			if interrupted(ctx, log) {
				return nil
			}
			return fmt.Errorf("seed default campaigns: %w", err)
		}
	}

	router := handler.NewRouter(handler.RouterConfig{
		Campaigns:      controller.NewCampaignController(campaignService, log),
		Log:            log,
		Metrics:        m,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Health:         health,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server running", zap.String("addr", cfg.HTTPAddr), zap.String("store", cfg.StoreDriver))
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

	log.Info("Shutting down server", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// interrupted reports whether startup failed because a shutdown signal
// arrived before the server began listening.
func interrupted(ctx context.Context, log *zap.Logger) bool {
	if ctx.Err() == nil {
		return false
	}
	log.Info("Shutdown requested during startup", zap.Error(ctx.Err()))
	return true
}

// openStore returns the configured campaign store, an optional health pinger
// and a func releasing whatever the store holds open.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.CampaignStore, handler.Pinger, func(), error) {
	if cfg.StoreDriver == config.DriverMemory {
		log.Warn("Using in-memory campaign store; data is lost on restart")
		return repository.NewMemoryStore(), nil, func() {}, nil
	}

	conn, err := db.Open(ctx, cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := db.Migrate(ctx, conn, cfg.StoreDriver); err != nil {
		conn.Close()
		return nil, nil, nil, err
	}
	repo := repository.NewCampaignRepository(conn, cfg.StoreDriver)
	closeFn := func() {
		if err := conn.Close(); err != nil {
			log.Warn("Failed to close database", zap.Error(err))
		}
	}
	return repo, repo, closeFn, nil
}

// openQueue dials RabbitMQ when AMQP_URL is set. Otherwise events stay in
// process and the worker handles them directly.
func openQueue(cfg *config.Config, log *zap.Logger, worker *service.Worker) (queue.Queue, func(), error) {
	if cfg.AMQPURL != "" {
		q, err := queue.DialAMQP(cfg.AMQPURL, log)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Publishing campaign events to RabbitMQ", zap.String("topic", cfg.EventsTopic))
		return q, func() {
			if err := q.Close(); err != nil {
				log.Warn("Failed to close RabbitMQ connection", zap.Error(err))
			}
		}, nil
	}

	q := queue.NewInMemoryQueue(log)
	if err := q.Subscribe(cfg.EventsTopic, worker.Handle); err != nil {
		return nil, nil, err
	}
	return q, q.Wait, nil
}
