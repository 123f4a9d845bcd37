package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	Environment    string `mapstructure:"ENV"`
	DBDSN          string `mapstructure:"DB_DSN"`
	StorageDriver  string `mapstructure:"STORAGE_DRIVER"`
	MigrationsPath string `mapstructure:"MIGRATIONS_PATH"`

	BookingMaxAttempts int           `mapstructure:"BOOKING_MAX_ATTEMPTS"`
	BookingRetryBase   time.Duration `mapstructure:"BOOKING_RETRY_BASE"`
	BookingRetryMax    time.Duration `mapstructure:"BOOKING_RETRY_MAX"`

	RabbitMQURL         string `mapstructure:"RABBITMQ_URL"`
	ReservationExchange string `mapstructure:"RESERVATION_EXCHANGE"`

	TelegramToken  string        `mapstructure:"TELEGRAM_TOKEN"`
	DigestInterval time.Duration `mapstructure:"DIGEST_INTERVAL"`

	// EnvFileLoaded reports whether a .env file was found.
	EnvFileLoaded bool `mapstructure:"-"`
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	// a missing .env file is fine, the environment may carry everything
	loaded := godotenv.Load(".env") == nil

	cfg := &Config{
		Environment:         getString("ENV", "development"),
		DBDSN:               os.Getenv("DB_DSN"),
		StorageDriver:       getString("STORAGE_DRIVER", StorageDriverPostgres),
		MigrationsPath:      getString("MIGRATIONS_PATH", "migrations"),
		RabbitMQURL:         os.Getenv("RABBITMQ_URL"),
		ReservationExchange: getString("RESERVATION_EXCHANGE", "reservations"),
		TelegramToken:       os.Getenv("TELEGRAM_TOKEN"),
		EnvFileLoaded:       loaded,
	}

	var err error
	if cfg.BookingMaxAttempts, err = getInt("BOOKING_MAX_ATTEMPTS", 5); err != nil {
		return nil, err
	}
	if cfg.BookingRetryBase, err = getDuration("BOOKING_RETRY_BASE", 25*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.BookingRetryMax, err = getDuration("BOOKING_RETRY_MAX", 400*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.DigestInterval, err = getDuration("DIGEST_INTERVAL", 24*time.Hour); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.DBDSN == "" {
			return fmt.Errorf("DB_DSN is required but not set")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageDriverPostgres, StorageDriverMemory, c.StorageDriver)
	}

	if c.BookingMaxAttempts < 1 {
		return fmt.Errorf("BOOKING_MAX_ATTEMPTS must be at least 1")
	}
	if c.BookingRetryBase <= 0 || c.BookingRetryMax < c.BookingRetryBase {
		return fmt.Errorf("BOOKING_RETRY_BASE must be positive and not above BOOKING_RETRY_MAX")
	}
	if c.DigestInterval <= 0 {
		return fmt.Errorf("DIGEST_INTERVAL must be positive")
	}
	return nil
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
