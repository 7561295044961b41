// Package commands implements the diskstorage CLI.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	diskstorage "github.com/olovm/cora-diskstorage"
	"github.com/olovm/cora-diskstorage/cmd/diskstorage/internal/config"
	"github.com/olovm/cora-diskstorage/memory"
	"github.com/olovm/cora-diskstorage/promcollector"
)

var (
	// Global flags
	configPath  string
	basePath    string
	logLevel    string
	logFormat   string
	metricsAddr string

	// Loaded in PersistentPreRunE.
	cfg *config.Config

	metricsServer *http.Server
	collector     diskstorage.MetricsCollector
)

var rootCmd = &cobra.Command{
	Use:   "diskstorage",
	Short: "Inspect and maintain a Cora partition file tree",
	Long: `diskstorage works on the directory tree written by the disk storage layer:
<base>/<divider>/<category>_<divider>.json.gz

Settings come from an optional YAML file (--config); flags override it.

Examples:
  diskstorage --base /data/cora ls
  diskstorage --base /data/cora verify
  diskstorage cat /data/cora/sys1/person_sys1.json.gz -o yaml
  diskstorage --config prod.yaml backup`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "YAML configuration file")
	flags.StringVar(&basePath, "base", "", "base path of the partition tree")
	flags.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&logFormat, "log-format", "", "log format (text, json)")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
}

func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("base") {
		loaded.Base = basePath
	}
	if flags.Changed("log-level") {
		loaded.Log.Level = logLevel
	}
	if flags.Changed("log-format") {
		loaded.Log.Format = logFormat
	}
	if flags.Changed("metrics-addr") {
		loaded.MetricsAddr = metricsAddr
	}
	cfg = loaded

	collector = diskstorage.NoopMetricsCollector{}
	if cfg.MetricsAddr != "" {
		return serveMetrics(cmd, cfg.MetricsAddr)
	}
	return nil
}

func teardown(cmd *cobra.Command, _ []string) error {
	if metricsServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), 5*time.Second)
	defer cancel()
	err := metricsServer.Shutdown(ctx)
	metricsServer = nil
	return err
}

func serveMetrics(cmd *cobra.Command, addr string) error {
	reg := prometheus.NewRegistry()
	c, err := promcollector.New(reg)
	if err != nil {
		return err
	}
	collector = c

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	metricsServer = srv
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(cmd.ErrOrStderr(), "metrics server: %v\n", err)
		}
	}()
	return nil
}

func newLogger(w io.Writer) (*diskstorage.Logger, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	if cfg.Log.Format == "json" {
		return diskstorage.NewJSONLoggerTo(w, level), nil
	}
	return diskstorage.NewTextLoggerTo(w, level), nil
}

// openStorage validates the configuration and loads the tree into a fresh
// in-memory index.
func openStorage(cmd *cobra.Command) (*diskstorage.Storage, *memory.Index, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger, err := newLogger(cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	idx := memory.New()
	s, err := diskstorage.Open(cmd.Context(), cfg.Base, idx,
		diskstorage.WithLogger(logger),
		diskstorage.WithMetricsCollector(collector),
		diskstorage.WithCodec(cfg.Codec()),
		diskstorage.WithCompressionLevel(cfg.Storage.CompressionLevel),
		diskstorage.WithAtomicWrites(cfg.Storage.AtomicWrites),
		diskstorage.WithWriteLimit(cfg.Storage.WriteLimit),
		diskstorage.WithRecoveryWorkers(cfg.Storage.RecoveryWorkers),
	)
	if err != nil {
		return nil, nil, err
	}
	return s, idx, nil
}
