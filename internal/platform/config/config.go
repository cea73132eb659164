package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"evonft/pkg/platform/secrets"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config is the full service configuration, read from EVONFT_* variables.
type Config struct {
	Server   Server
	Store    Store
	Postgres Postgres
	Redis    Redis
	Kafka    Kafka
	Auth     Auth
	Log      Log
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"EVONFT_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"EVONFT_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	// MetricsTokenHash is a bcrypt hash; when set /metrics requires the
	// matching bearer token.
	MetricsTokenHash string `env:"EVONFT_METRICS_TOKEN_HASH"`
}

type Store struct {
	Backend string `env:"EVONFT_STORE" envDefault:"memory"`
	// AuditCapacity bounds the in-memory audit trail.
	AuditCapacity int `env:"EVONFT_AUDIT_CAPACITY" envDefault:"4096"`
}

type Postgres struct {
	// Driver selects lib/pq ("postgres") or pgx ("pgx").
	Driver          string        `env:"EVONFT_POSTGRES_DRIVER" envDefault:"postgres"`
	DSN             string        `env:"EVONFT_POSTGRES_DSN"`
	MaxOpenConns    int           `env:"EVONFT_POSTGRES_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"EVONFT_POSTGRES_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"EVONFT_POSTGRES_CONN_MAX_LIFETIME" envDefault:"30m"`
	Migrate         bool          `env:"EVONFT_POSTGRES_MIGRATE" envDefault:"true"`
}

// Redis is optional; an empty URL disables the journal stream mirror.
type Redis struct {
	URL          string        `env:"EVONFT_REDIS_URL"`
	PoolSize     int           `env:"EVONFT_REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"EVONFT_REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"EVONFT_REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"EVONFT_REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"EVONFT_REDIS_WRITE_TIMEOUT" envDefault:"3s"`
	StreamKey    string        `env:"EVONFT_REDIS_STREAM_KEY" envDefault:"evonft:journal"`
}

// Kafka is optional; without brokers audit events stay in the local store.
type Kafka struct {
	Brokers       []string      `env:"EVONFT_KAFKA_BROKERS" envSeparator:","`
	Topic         string        `env:"EVONFT_KAFKA_TOPIC" envDefault:"evonft.audit"`
	Partitions    int32         `env:"EVONFT_KAFKA_PARTITIONS" envDefault:"3"`
	Replication   int16         `env:"EVONFT_KAFKA_REPLICATION" envDefault:"1"`
	RelayInterval time.Duration `env:"EVONFT_KAFKA_RELAY_INTERVAL" envDefault:"1s"`
	RelayBatch    int           `env:"EVONFT_KAFKA_RELAY_BATCH" envDefault:"100"`
}

type Auth struct {
	JWTSigningKey string `env:"EVONFT_JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	Issuer        string `env:"EVONFT_JWT_ISSUER" envDefault:"evonft"`
	Audience      string `env:"EVONFT_JWT_AUDIENCE" envDefault:"evonft-api"`
}

type Log struct {
	Level  string `env:"EVONFT_LOG_LEVEL" envDefault:"info"`
	Format string `env:"EVONFT_LOG_FORMAT" envDefault:"json"`
}

// FromEnv builds the config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects combinations the service cannot start with.
func (c Config) Validate() error {
	var errs []error
	switch c.Store.Backend {
	case StoreMemory:
	case StorePostgres:
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("EVONFT_POSTGRES_DSN is required for the postgres store"))
		}
		switch c.Postgres.Driver {
		case "postgres", "pq", "pgx":
		default:
			errs = append(errs, fmt.Errorf("unknown postgres driver %q", c.Postgres.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}
	if c.Store.AuditCapacity < 1 {
		errs = append(errs, errors.New("EVONFT_AUDIT_CAPACITY must be at least 1"))
	}
	if c.Server.MetricsTokenHash != "" && !secrets.ValidHash(c.Server.MetricsTokenHash) {
		errs = append(errs, errors.New("EVONFT_METRICS_TOKEN_HASH is not a bcrypt hash"))
	}
	if c.Auth.JWTSigningKey == "" {
		errs = append(errs, errors.New("EVONFT_JWT_SIGNING_KEY must not be empty"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("EVONFT_KAFKA_TOPIC must be set when brokers are configured"))
	}
	return errors.Join(errs...)
}
