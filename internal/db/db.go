// internal/db/db.go
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/unclebandit/campaign-directory/internal/config"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Open connects to the SQL database selected by cfg.StoreDriver and pings it.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (*sql.DB, error) {
	var (
		driverName string
		dsn        string
	)
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		driverName, dsn = "postgres", cfg.PostgresDSN()
	case config.DriverSQLite:
		path := strings.TrimSpace(cfg.SQLitePath)
		if path == "" {
			return nil, fmt.Errorf("sqlite path is required")
		}
		driverName = "sqlite"
		dsn = filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_time_format=sqlite"
	default:
		return nil, fmt.Errorf("store driver %q has no SQL database", cfg.StoreDriver)
	}

	conn, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}
	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping %s: %w", driverName, err)
	}

	log.Info("Connected to database", zap.String("driver", driverName))
	return conn, nil
}

// Migrate applies the embedded schema for the driver. Statements are idempotent.
func Migrate(ctx context.Context, conn *sql.DB, driver string) error {
	schema, err := schemaFS.ReadFile("schema/" + driver + ".sql")
	if err != nil {
		return fmt.Errorf("read schema for %s: %w", driver, err)
	}
	if _, err := conn.ExecContext(ctx, string(schema)); err != nil {
		return fmt.Errorf("apply schema for %s: %w", driver, err)
	}
	return nil
}
