package diskstorage

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with storage-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return NewJSONLoggerTo(os.Stderr, level)
}

// NewJSONLoggerTo creates a JSON Logger writing to w.
func NewJSONLoggerTo(w io.Writer, level slog.Level) *Logger {
	return &Logger{
		Logger: slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewTextLoggerTo(os.Stderr, level)
}

// NewTextLoggerTo creates a text Logger writing to w.
func NewTextLoggerTo(w io.Writer, level slog.Level) *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
			Level: slog.Level(1000), // Unreachable level
		})),
	}
}

// WithRecordType adds a record_type field to the logger.
func (l *Logger) WithRecordType(recordType string) *Logger {
	return &Logger{
		Logger: l.Logger.With("record_type", recordType),
	}
}

// WithDivider adds a data_divider field to the logger.
func (l *Logger) WithDivider(divider string) *Logger {
	return &Logger{
		Logger: l.Logger.With("data_divider", divider),
	}
}

// WithBasePath adds a base_path field to the logger.
func (l *Logger) WithBasePath(path string) *Logger {
	return &Logger{
		Logger: l.Logger.With("base_path", path),
	}
}

// LogCreate logs a create operation on a logger scoped with WithRecordType
// and WithDivider.
func (l *Logger) LogCreate(ctx context.Context, recordID string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "create failed", "record_id", recordID, "error", err)
		return
	}
	l.DebugContext(ctx, "create completed", "record_id", recordID)
}

// LogUpdate logs an update operation on a logger scoped with WithRecordType
// and WithDivider.
func (l *Logger) LogUpdate(ctx context.Context, recordID string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "update failed", "record_id", recordID, "error", err)
		return
	}
	l.DebugContext(ctx, "update completed", "record_id", recordID)
}

// LogDelete logs a delete operation on a logger scoped with WithRecordType.
func (l *Logger) LogDelete(ctx context.Context, recordID string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed", "record_id", recordID, "error", err)
		return
	}
	l.DebugContext(ctx, "delete completed", "record_id", recordID)
}

// LogRecovery logs the outcome of loading the file tree on open.
func (l *Logger) LogRecovery(ctx context.Context, stats RecoveryStats, err error) {
	if err != nil {
		l.ErrorContext(ctx, "recovery failed",
			"files", stats.Files,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "recovery completed",
		"files", stats.Files,
		"legacy_files", stats.LegacyFiles,
		"records", stats.Records,
		"link_lists", stats.LinkLists,
		"collected_terms", stats.CollectedTerms,
		"duration", stats.Duration,
	)
}

// LogPartitionWrite logs a partition file write on a logger scoped with
// WithDivider.
func (l *Logger) LogPartitionWrite(ctx context.Context, category string, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "partition write failed", "category", category, "error", err)
		return
	}
	l.DebugContext(ctx, "partition written", "category", category, "bytes", bytes)
}

// LogPartitionRemove logs a partition file removal on a logger scoped with
// WithDivider.
func (l *Logger) LogPartitionRemove(ctx context.Context, category string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "partition remove failed", "category", category, "error", err)
		return
	}
	l.DebugContext(ctx, "partition removed", "category", category)
}

// LogMigration logs a legacy file migration run.
func (l *Logger) LogMigration(ctx context.Context, migrated, skipped int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "legacy migration failed",
			"migrated", migrated,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "legacy migration completed",
			"migrated", migrated,
			"skipped", skipped,
		)
	}
}
