// Package config loads server configuration from the environment and
// builds a wired evidence.Service from it. Storage credentials, endpoint,
// bucket, and the encryption flag are read once here and passed into the
// store; nothing downstream re-derives configuration per request.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/casetrail/casetrail/pkg/evidence"
	ledgermemory "github.com/casetrail/casetrail/pkg/evidence/ledger/memory"
	ledgerpg "github.com/casetrail/casetrail/pkg/evidence/ledger/postgres"
	ledgersqlite "github.com/casetrail/casetrail/pkg/evidence/ledger/sqlite"
	"github.com/casetrail/casetrail/pkg/evidence/render"
	storagememory "github.com/casetrail/casetrail/pkg/evidence/storage/memory"
	storages3 "github.com/casetrail/casetrail/pkg/evidence/storage/s3"
)

// ServerConfig is the environment-driven configuration for the server
// binary.
type ServerConfig struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`

	// Ledger configuration
	LedgerType  string `env:"LEDGER_TYPE" env-default:"memory"` // memory, postgres, sqlite
	DatabaseURL string `env:"DATABASE_URL" env-default:""`
	SQLitePath  string `env:"LEDGER_SQLITE_PATH" env-default:""`

	// Storage configuration
	StorageType string `env:"STORAGE_TYPE" env-default:"memory"` // memory, s3
	S3          S3Config

	PresignTTLSeconds int `env:"PRESIGN_TTL_SECONDS" env-default:"3600"`
}

// S3Config carries the opaque object storage configuration.
type S3Config struct {
	Endpoint        string `env:"AWS_S3_ENDPOINT" env-default:""`
	Region          string `env:"AWS_S3_REGION" env-default:"us-east-1"`
	Bucket          string `env:"AWS_S3_BUCKET" env-default:""`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID" env-default:""`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" env-default:""`
	UsePathStyle    bool   `env:"AWS_S3_USE_PATH_STYLE" env-default:"false"`
	EnableSSE       bool   `env:"AWS_S3_ENABLE_SSE" env-default:"false"`
	SSEAlgorithm    string `env:"AWS_S3_SSE_ALGORITHM" env-default:"AES256"`
}

// Load reads configuration from the environment and validates it.
func Load() (*ServerConfig, error) {
	var cfg ServerConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.LedgerType {
	case "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when LEDGER_TYPE=postgres")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("LEDGER_SQLITE_PATH is required when LEDGER_TYPE=sqlite")
		}
	default:
		return fmt.Errorf("unsupported ledger type: %s", c.LedgerType)
	}

	switch c.StorageType {
	case "memory":
	case "s3":
		if c.S3.Bucket == "" {
			return errors.New("AWS_S3_BUCKET is required when STORAGE_TYPE=s3")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", c.StorageType)
	}

	if c.PresignTTLSeconds <= 0 {
		return errors.New("presign TTL must be positive")
	}
	return nil
}

// BuildService creates a wired evidence.Service. The returned service has
// the built-in HTML renderer and a slog audit sink; the case directory
// must be supplied by the caller through extra options since it is owned
// by the surrounding system.
func (c *ServerConfig) BuildService(ctx context.Context, extra ...evidence.Option) (evidence.Service, error) {
	store, err := c.buildStore()
	if err != nil {
		return nil, fmt.Errorf("failed to build blob store: %w", err)
	}
	ledger, err := c.buildLedger(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build hash ledger: %w", err)
	}

	options := []evidence.Option{
		evidence.WithBlobStore(store),
		evidence.WithLedger(ledger),
		evidence.WithRenderer(render.NewHTMLRenderer()),
		evidence.WithAuditSink(evidence.NewSlogAuditSink(slog.Default())),
		evidence.WithPresignTTL(time.Duration(c.PresignTTLSeconds) * time.Second),
	}
	options = append(options, extra...)

	return evidence.New(options...)
}

func (c *ServerConfig) buildStore() (evidence.BlobStore, error) {
	switch c.StorageType {
	case "memory":
		return storagememory.New(), nil
	case "s3":
		return storages3.New(storages3.Config{
			Endpoint:        c.S3.Endpoint,
			Region:          c.S3.Region,
			Bucket:          c.S3.Bucket,
			AccessKeyID:     c.S3.AccessKeyID,
			SecretAccessKey: c.S3.SecretAccessKey,
			UsePathStyle:    c.S3.UsePathStyle,
			EnableSSE:       c.S3.EnableSSE,
			SSEAlgorithm:    c.S3.SSEAlgorithm,
		})
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", c.StorageType)
	}
}

func (c *ServerConfig) buildLedger(ctx context.Context) (evidence.HashLedger, error) {
	switch c.LedgerType {
	case "memory":
		return ledgermemory.New(), nil
	case "postgres":
		pool, err := pgxpool.New(ctx, c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("database ping failed: %w", err)
		}
		return ledgerpg.NewWithPool(pool), nil
	case "sqlite":
		return ledgersqlite.Open(c.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported ledger type: %s", c.LedgerType)
	}
}
