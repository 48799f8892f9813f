package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/unclebandit/campaign-directory/internal/config"
	"github.com/unclebandit/campaign-directory/internal/logger"
	"github.com/unclebandit/campaign-directory/internal/metrics"
	"github.com/unclebandit/campaign-directory/internal/queue"
	"github.com/unclebandit/campaign-directory/internal/service"
)

func main() {
	cfg, _, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	zl, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialise logger: %v", err)
	}
	defer zl.Sync()

	if cfg.AMQPURL == "" {
		zl.Fatal("AMQP_URL is required for the worker")
	}

	q, err := queue.DialAMQP(cfg.AMQPURL, zl)
	if err != nil {
		zl.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer q.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	worker := service.NewWorker(zl, metrics.New())
	if err := run(ctx, q, cfg.EventsTopic, worker, q.NotifyClose(), zl); err != nil {
		zl.Fatal("Worker stopped", zap.Error(err))
	}
}

// run subscribes the worker and blocks until ctx is cancelled or the broker
// connection closes.
func run(ctx context.Context, q queue.Queue, topic string, w *service.Worker, closed <-chan *amqp.Error, log *zap.Logger) error {
	if err := q.Subscribe(topic, w.Handle); err != nil {
		return err
	}
	log.Info("Worker running, waiting for campaign events", zap.String("topic", topic))

	select {
	case <-ctx.Done():
		log.Info("Worker shutting down")
		return nil
	case amqpErr, ok := <-closed:
		if ok && amqpErr != nil {
			return fmt.Errorf("broker connection closed: %w", amqpErr)
		}
		return fmt.Errorf("broker connection closed")
	}
}
