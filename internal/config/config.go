package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`

	StoreDriver  string `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseURL  string `env:"DATABASE_URL"`
	DBUser       string `env:"DB_USER"`
	DBPassword   string `env:"DB_PASSWORD"`
	DBHost       string `env:"DB_HOST" envDefault:"localhost"`
	DBPort       string `env:"DB_PORT" envDefault:"5432"`
	DBName       string `env:"DB_NAME"`
	DBSSLMode    string `env:"DB_SSLMODE" envDefault:"disable"`
	SQLitePath   string `env:"SQLITE_PATH" envDefault:"campaigns.db"`
	MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns int    `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`

	SeedDefaults bool `env:"SEED_DEFAULTS" envDefault:"true"`

	AMQPURL     string `env:"AMQP_URL"`
	EventsTopic string `env:"EVENTS_TOPIC" envDefault:"campaign_events"`

	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads an optional .env file, then the process environment.
// loadedDotEnv reports whether a .env file was found.
func Load() (cfg *Config, loadedDotEnv bool, err error) {
	loadedDotEnv = godotenv.Load() == nil

	cfg = &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, loadedDotEnv, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, loadedDotEnv, err
	}
	return cfg, loadedDotEnv, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if c.DatabaseURL == "" && c.DBName == "" {
			return fmt.Errorf("postgres store requires DATABASE_URL or DB_NAME")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.EventsTopic == "" {
		return fmt.Errorf("EVENTS_TOPIC must not be empty")
	}
	return nil
}

// PostgresDSN returns DATABASE_URL when set, otherwise a URL assembled from the DB_* parts.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}
