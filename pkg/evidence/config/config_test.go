package config_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casetrail/casetrail/pkg/evidence/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "memory", cfg.LedgerType)
	assert.Equal(t, "memory", cfg.StorageType)
	assert.Equal(t, 3600, cfg.PresignTTLSeconds)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.ServerConfig)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *config.ServerConfig) {},
		},
		{
			name:    "postgres ledger requires database url",
			mutate:  func(c *config.ServerConfig) { c.LedgerType = "postgres" },
			wantErr: "DATABASE_URL",
		},
		{
			name:    "sqlite ledger requires path",
			mutate:  func(c *config.ServerConfig) { c.LedgerType = "sqlite" },
			wantErr: "LEDGER_SQLITE_PATH",
		},
		{
			name:    "s3 storage requires bucket",
			mutate:  func(c *config.ServerConfig) { c.StorageType = "s3" },
			wantErr: "AWS_S3_BUCKET",
		},
		{
			name:    "unknown ledger type",
			mutate:  func(c *config.ServerConfig) { c.LedgerType = "etcd" },
			wantErr: "unsupported ledger type",
		},
		{
			name:    "non-positive presign ttl",
			mutate:  func(c *config.ServerConfig) { c.PresignTTLSeconds = 0 },
			wantErr: "presign TTL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.Load()
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LEDGER_TYPE", "sqlite")
	t.Setenv("LEDGER_SQLITE_PATH", filepath.Join(t.TempDir(), "ledger.db"))
	t.Setenv("PRESIGN_TTL_SECONDS", "600")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "sqlite", cfg.LedgerType)
	assert.Equal(t, 600, cfg.PresignTTLSeconds)
}

func TestBuildServiceMemory(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	svc, err := cfg.BuildService(context.Background())
	require.NoError(t, err)
	assert.NoError(t, svc.EnsureBucket(context.Background()))
}

func TestBuildServiceSQLiteLedger(t *testing.T) {
	t.Setenv("LEDGER_TYPE", "sqlite")
	t.Setenv("LEDGER_SQLITE_PATH", filepath.Join(t.TempDir(), "ledger.db"))

	cfg, err := config.Load()
	require.NoError(t, err)

	svc, err := cfg.BuildService(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, svc)
}
