// Package config loads the diskstorage CLI configuration.
//
// The file is YAML:
//
//	base: /var/lib/cora/storage
//	log:
//	  level: info
//	  format: text
//	storage:
//	  compression_level: 6
//	  atomic_writes: true
//	  write_limit: 0
//	  recovery_workers: 4
//	  codec: go-json
//	backup:
//	  kind: s3
//	  s3:
//	    bucket: cora-backups
//	    prefix: prod
//	  ledger:
//	    table: diskstorage-backups
//
// Command line flags override the file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/olovm/cora-diskstorage/backup/minio"
	"github.com/olovm/cora-diskstorage/backup/s3"
	"github.com/olovm/cora-diskstorage/codec"
)

// Backup target kinds.
const (
	BackupDir   = "dir"
	BackupMinIO = "minio"
	BackupS3    = "s3"
)

// Config is the root configuration.
type Config struct {
	Base        string  `yaml:"base"`
	MetricsAddr string  `yaml:"metrics_addr"`
	Log         Log     `yaml:"log"`
	Storage     Storage `yaml:"storage"`
	Backup      Backup  `yaml:"backup"`
}

// Log selects level and format of the structured log on stderr.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Storage holds the options passed to diskstorage.Open.
type Storage struct {
	CompressionLevel int    `yaml:"compression_level"`
	AtomicWrites     bool   `yaml:"atomic_writes"`
	WriteLimit       int64  `yaml:"write_limit"`
	RecoveryWorkers  int    `yaml:"recovery_workers"`
	Codec            string `yaml:"codec"`
}

// Backup selects where the backup command mirrors partition files.
type Backup struct {
	Kind   string       `yaml:"kind"`
	Dir    string       `yaml:"dir"`
	MinIO  minio.Config `yaml:"minio"`
	S3     s3.Config    `yaml:"s3"`
	Ledger Ledger       `yaml:"ledger"`
}

// Ledger enables recording S3 backup runs in DynamoDB when Table is set.
type Ledger struct {
	Table  string `yaml:"table"`
	Region string `yaml:"region"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Log: Log{Level: "info", Format: "text"},
		Storage: Storage{
			RecoveryWorkers: 1,
			Codec:           codec.Default.Name(),
		},
	}
}

// Load reads path on top of Default. An empty path returns Default.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the values that cannot be checked by the storage itself.
func (c *Config) Validate() error {
	var errs []error
	if c.Base == "" {
		errs = append(errs, errors.New("base path is required"))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log format %q: want text or json", c.Log.Format))
	}
	if _, ok := codec.ByName(c.Storage.Codec); !ok {
		errs = append(errs, fmt.Errorf("unknown codec %q", c.Storage.Codec))
	}
	if c.Storage.RecoveryWorkers < 0 {
		errs = append(errs, errors.New("recovery_workers must not be negative"))
	}
	return errors.Join(errs...)
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", c.Log.Level, err)
	}
	return level, nil
}

// Codec returns the configured codec.
func (c *Config) Codec() codec.Codec {
	cd, ok := codec.ByName(c.Storage.Codec)
	if !ok {
		return codec.Default
	}
	return cd
}

// LedgerURI identifies the S3 backup location in the ledger table.
func (b Backup) LedgerURI() string {
	return "s3://" + b.S3.Bucket + "/" + strings.Trim(b.S3.Prefix, "/")
}
