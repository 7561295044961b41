package diskstorage

import (
	"log/slog"

	"github.com/olovm/cora-diskstorage/codec"
	"github.com/olovm/cora-diskstorage/data"
	"github.com/olovm/cora-diskstorage/internal/fs"
)

type options struct {
	codec            codec.Codec
	converter        DocumentConverter
	fileSystem       fs.FileSystem
	compressionLevel int
	atomicWrites     bool
	writeLimit       int64
	recoveryWorkers  int
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures Open.
type Option func(*options)

// WithCodec configures the JSON codec used to encode and decode partition
// documents. If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithDocumentConverter replaces the document converter entirely. It takes
// precedence over WithCodec.
func WithDocumentConverter(c DocumentConverter) Option {
	return func(o *options) {
		o.converter = c
	}
}

// WithFileSystem routes all file access through fsys.
// Tests use it to inject faults.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		o.fileSystem = fsys
	}
}

// WithCompressionLevel sets the gzip level for written partitions.
// Zero keeps the gzip default.
func WithCompressionLevel(level int) Option {
	return func(o *options) {
		o.compressionLevel = level
	}
}

// WithAtomicWrites makes every partition write go through a temp file in
// the divider directory, fsync and rename. A crash mid-write then leaves the
// previous partition intact instead of a truncated one. Results on success
// are identical to the default delete-then-write mode.
func WithAtomicWrites(enabled bool) Option {
	return func(o *options) {
		o.atomicWrites = enabled
	}
}

// WithWriteLimit caps partition write throughput in bytes per second.
// Zero or negative means unlimited.
func WithWriteLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.writeLimit = bytesPerSec
	}
}

// WithRecoveryWorkers decodes partition files on up to n goroutines during
// Open. Files are still applied to the index one at a time in scan order, so
// the recovered state does not depend on n. Values below 2 decode
// sequentially on the calling goroutine.
func WithRecoveryWorkers(n int) Option {
	return func(o *options) {
		o.recoveryWorkers = n
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &diskstorage.BasicMetricsCollector{}
//	s, _ := diskstorage.Open(ctx, "/data", idx, diskstorage.WithMetricsCollector(metrics))
//	// ... use s ...
//	stats := metrics.GetStats()
//	fmt.Printf("Creates: %d, Avg latency: %dns\n", stats.CreateCount, stats.CreateAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		fileSystem:       fs.Default,
		recoveryWorkers:  1,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.fileSystem == nil {
		o.fileSystem = fs.Default
	}
	if o.converter == nil {
		o.converter = data.NewConverter(o.codec)
	}
	if o.recoveryWorkers < 1 {
		o.recoveryWorkers = 1
	}
	return o
}
