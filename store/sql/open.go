package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-payments/migrations"
	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Config satisfies the go-persistence-bun client configuration.
type Config struct {
	Driver      string        `koanf:"driver" mapstructure:"driver"`
	DSN         string        `koanf:"dsn" mapstructure:"dsn"`
	Debug       bool          `koanf:"debug" mapstructure:"debug"`
	PingTimeout time.Duration `koanf:"ping_timeout" mapstructure:"ping_timeout"`
	// MaxOpenConns of 0 keeps the driver default. In-memory sqlite needs 1.
	MaxOpenConns int `koanf:"max_open_conns" mapstructure:"max_open_conns"`
}

func (c Config) GetDebug() bool {
	return c.Debug
}

func (c Config) GetDriver() string {
	return c.Driver
}

func (c Config) GetServer() string {
	return c.DSN
}

func (c Config) GetPingTimeout() time.Duration {
	if c.PingTimeout <= 0 {
		return 5 * time.Second
	}
	return c.PingTimeout
}

func (c Config) GetOtelIdentifier() string {
	return "go-payments"
}

// Dialect returns the migration dialect name for the configured driver.
func (c Config) Dialect() string {
	if c.normalizedDriver() == DriverSQLite {
		return migrations.DialectSQLite
	}
	return migrations.DialectPostgres
}

func (c Config) normalizedDriver() string {
	switch strings.ToLower(strings.TrimSpace(c.Driver)) {
	case "sqlite", "sqlite3":
		return DriverSQLite
	case "postgres", "postgresql", "pg":
		return DriverPostgres
	default:
		return strings.TrimSpace(c.Driver)
	}
}

// Open connects to the configured database and wraps it in a persistence
// client. Migrations are registered separately with Migrate.
func Open(cfg Config) (*persistence.Client, error) {
	driver := cfg.normalizedDriver()
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlstore: dsn is required")
	}
	var dialect schema.Dialect
	switch driver {
	case DriverPostgres:
		dialect = pgdialect.New()
	case DriverSQLite:
		dialect = sqlitedialect.New()
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", cfg.Driver)
	}
	cfg.Driver = driver

	sqlDB, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", driver, err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	client, err := persistence.New(cfg, sqlDB, dialect)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlstore: new persistence client: %w", err)
	}
	return client, nil
}

// Migrate registers the payments schema for cfg's dialect on the client and
// applies it.
func Migrate(ctx context.Context, client *persistence.Client, cfg Config) error {
	if client == nil {
		return fmt.Errorf("sqlstore: persistence client is required")
	}
	schema, err := migrations.ForDialect(cfg.Dialect())
	if err != nil {
		return fmt.Errorf("sqlstore: %w", err)
	}
	client.RegisterSQLMigrations(schema.FS)
	if err := client.Migrate(ctx); err != nil {
		return fmt.Errorf("sqlstore: migrate %s: %w", schema.Dialect, err)
	}
	return nil
}
