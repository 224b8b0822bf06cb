package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Folio store backends.
const (
	FolioStoreMemory   = "memory"
	FolioStorePostgres = "postgres"
	FolioStoreSQLite   = "sqlite"
)

// Config holds all configuration for the application.
type Config struct {
	Server ServerConfig
	Coupon CouponConfig
	Folio  FolioConfig
	Rename RenameConfig
	DB     DBConfig
	Log    LogConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port            string `envconfig:"SERVER_PORT" default:"5000"`
	ShutdownTimeout int    `envconfig:"SHUTDOWN_TIMEOUT" default:"30"` // seconds
	BodyLimitMB     int    `envconfig:"BODY_LIMIT_MB" default:"64"`
}

// CouponConfig holds the assets used to stamp coupons.
type CouponConfig struct {
	BaseImagePath string `envconfig:"COUPON_BASE_IMAGE" default:"assets/coupon_base.jpg"`
	FontPath      string `envconfig:"FONT_PATH" default:"assets/arial.ttf"`
}

// FolioConfig selects where the folio counter lives.
// The memory store resets on restart; postgres and sqlite persist it.
type FolioConfig struct {
	Store      string `envconfig:"FOLIO_STORE" default:"memory"`
	Start      int64  `envconfig:"FOLIO_START" default:"36"`
	SQLitePath string `envconfig:"FOLIO_SQLITE_PATH" default:"data/folio.db"`
}

// RenameConfig bounds archive processing.
type RenameConfig struct {
	WorkDir      string `envconfig:"RENAME_WORK_DIR"` // empty = OS temp dir
	MaxEntries   int    `envconfig:"RENAME_MAX_ENTRIES" default:"10000"`
	MaxExtractMB int64  `envconfig:"RENAME_MAX_EXTRACT_MB" default:"512"`
}

// DBConfig holds database-related configuration, used when FOLIO_STORE=postgres.
// WARNING: Default password is for local development only.
// In production, always set DB_PASSWORD via environment variable.
// In production, set DB_SSLMODE to "require" or "verify-full".
type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"` // CHANGE IN PRODUCTION
	Name     string `envconfig:"DB_NAME" default:"folio_db"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"` // Use "require" in production
	MaxConns int    `envconfig:"DB_MAX_CONNS" default:"5"`
	MinConns int    `envconfig:"DB_MIN_CONNS" default:"1"`
}

// DSN returns the PostgreSQL connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&pool_max_conns=%d&pool_min_conns=%d",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode, c.MaxConns, c.MinConns)
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Pretty bool   `envconfig:"LOG_PRETTY" default:"false"`
}

// Load parses environment variables into the Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values envconfig cannot check on its own.
func (c *Config) Validate() error {
	switch c.Folio.Store {
	case FolioStoreMemory, FolioStorePostgres, FolioStoreSQLite:
	default:
		return fmt.Errorf("FOLIO_STORE must be one of %s, %s, %s: got %q",
			FolioStoreMemory, FolioStorePostgres, FolioStoreSQLite, c.Folio.Store)
	}
	if c.Folio.Start < 0 {
		return fmt.Errorf("FOLIO_START must not be negative: got %d", c.Folio.Start)
	}
	if c.Server.BodyLimitMB <= 0 {
		return fmt.Errorf("BODY_LIMIT_MB must be positive: got %d", c.Server.BodyLimitMB)
	}
	return nil
}

// BodyLimitBytes returns the request body limit in bytes.
func (c ServerConfig) BodyLimitBytes() int {
	return c.BodyLimitMB * 1024 * 1024
}

// MaxExtractBytes returns the extraction size limit in bytes.
func (c RenameConfig) MaxExtractBytes() int64 {
	return c.MaxExtractMB * 1024 * 1024
}
