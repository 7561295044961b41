package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "diskstorage.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeYAML(t, `
base: /data/cora
log:
  level: debug
storage:
  compression_level: 9
  atomic_writes: true
  recovery_workers: 4
  codec: json
backup:
  kind: s3
  s3:
    bucket: cora-backups
    prefix: /prod/
    region: eu-north-1
  ledger:
    table: diskstorage-backups
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "/data/cora", cfg.Base)
	assert.Equal(t, "text", cfg.Log.Format, "defaults survive a partial file")
	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
	assert.Equal(t, 9, cfg.Storage.CompressionLevel)
	assert.True(t, cfg.Storage.AtomicWrites)
	assert.Equal(t, 4, cfg.Storage.RecoveryWorkers)
	assert.Equal(t, "json", cfg.Codec().Name())
	assert.Equal(t, BackupS3, cfg.Backup.Kind)
	assert.Equal(t, "eu-north-1", cfg.Backup.S3.Region)
	assert.Equal(t, "diskstorage-backups", cfg.Backup.Ledger.Table)
	assert.Equal(t, "s3://cora-backups/prod", cfg.Backup.LedgerURI())
}

func TestLoad_Default(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Error(t, cfg.Validate(), "base is required")

	cfg.Base = "/data"
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeYAML(t, "base: [unterminated"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"level", func(c *Config) { c.Log.Level = "loud" }},
		{"format", func(c *Config) { c.Log.Format = "xml" }},
		{"codec", func(c *Config) { c.Storage.Codec = "msgpack" }},
		{"workers", func(c *Config) { c.Storage.RecoveryWorkers = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Base = "/data"
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
