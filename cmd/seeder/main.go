// cmd/seeder/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/unclebandit/campaign-directory/internal/config"
	"github.com/unclebandit/campaign-directory/internal/db"
	"github.com/unclebandit/campaign-directory/internal/logger"
	"github.com/unclebandit/campaign-directory/internal/repository"
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

	if cfg.StoreDriver == config.DriverMemory {
		zl.Fatal("Seeder needs a SQL store; set STORE_DRIVER to postgres or sqlite")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer conn.Close()

	if err := db.Migrate(ctx, conn, cfg.StoreDriver); err != nil {
		zl.Fatal("Failed to apply schema", zap.Error(err))
	}

	svc := service.NewCampaignService(repository.NewCampaignRepository(conn, cfg.StoreDriver), nil, cfg.EventsTopic, zl)
	n, err := svc.SeedDefaults(ctx)
	if err != nil {
		zl.Fatal("Failed to seed campaigns", zap.Error(err))
	}
	if n == 0 {
		zl.Info("Campaigns table already populated, nothing to seed")
		return
	}
	zl.Info("Database seeding completed successfully", zap.Int("inserted", n))
}
