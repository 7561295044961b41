package diskstorage

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; package
// promcollector provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordCreate is called after each create, including its disk write.
	RecordCreate(duration time.Duration, err error)

	// RecordUpdate is called after each update, including its disk write.
	RecordUpdate(duration time.Duration, err error)

	// RecordDelete is called after each delete, including its disk write.
	RecordDelete(duration time.Duration, err error)

	// RecordRecovery is called once per Open with the number of partition
	// files loaded.
	RecordRecovery(files int, duration time.Duration, err error)

	// RecordPartitionWrite is called after each partition file write. kind
	// is one of KindRecords, KindCollectedData or KindLinkLists.
	RecordPartitionWrite(kind string, bytes int64, duration time.Duration, err error)

	// RecordPartitionRemove is called after each partition file removal.
	RecordPartitionRemove(kind string, err error)
}

// Partition kinds reported to MetricsCollector.
const (
	KindRecords       = "records"
	KindCollectedData = "collectedData"
	KindLinkLists     = "linkLists"
)

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordCreate(time.Duration, error)                          {}
func (NoopMetricsCollector) RecordUpdate(time.Duration, error)                          {}
func (NoopMetricsCollector) RecordDelete(time.Duration, error)                          {}
func (NoopMetricsCollector) RecordRecovery(int, time.Duration, error)                   {}
func (NoopMetricsCollector) RecordPartitionWrite(string, int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordPartitionRemove(string, error)                        {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	CreateCount          atomic.Int64
	CreateErrors         atomic.Int64
	CreateTotalNanos     atomic.Int64
	UpdateCount          atomic.Int64
	UpdateErrors         atomic.Int64
	UpdateTotalNanos     atomic.Int64
	DeleteCount          atomic.Int64
	DeleteErrors         atomic.Int64
	DeleteTotalNanos     atomic.Int64
	RecoveryFiles        atomic.Int64
	RecoveryErrors       atomic.Int64
	RecoveryNanos        atomic.Int64
	PartitionWrites      atomic.Int64
	PartitionWriteErrors atomic.Int64
	PartitionWriteBytes  atomic.Int64
	PartitionRemoves     atomic.Int64
	PartitionRemoveErrs  atomic.Int64
}

// RecordCreate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCreate(duration time.Duration, err error) {
	b.CreateCount.Add(1)
	b.CreateTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.CreateErrors.Add(1)
	}
}

// RecordUpdate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordUpdate(duration time.Duration, err error) {
	b.UpdateCount.Add(1)
	b.UpdateTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.UpdateErrors.Add(1)
	}
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete(duration time.Duration, err error) {
	b.DeleteCount.Add(1)
	b.DeleteTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.DeleteErrors.Add(1)
	}
}

// RecordRecovery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRecovery(files int, duration time.Duration, err error) {
	b.RecoveryFiles.Add(int64(files))
	b.RecoveryNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.RecoveryErrors.Add(1)
	}
}

// RecordPartitionWrite implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPartitionWrite(_ string, bytes int64, _ time.Duration, err error) {
	b.PartitionWrites.Add(1)
	b.PartitionWriteBytes.Add(bytes)
	if err != nil {
		b.PartitionWriteErrors.Add(1)
	}
}

// RecordPartitionRemove implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPartitionRemove(_ string, err error) {
	b.PartitionRemoves.Add(1)
	if err != nil {
		b.PartitionRemoveErrs.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		CreateCount:          b.CreateCount.Load(),
		CreateErrors:         b.CreateErrors.Load(),
		CreateAvgNanos:       avgNanos(&b.CreateTotalNanos, &b.CreateCount),
		UpdateCount:          b.UpdateCount.Load(),
		UpdateErrors:         b.UpdateErrors.Load(),
		UpdateAvgNanos:       avgNanos(&b.UpdateTotalNanos, &b.UpdateCount),
		DeleteCount:          b.DeleteCount.Load(),
		DeleteErrors:         b.DeleteErrors.Load(),
		DeleteAvgNanos:       avgNanos(&b.DeleteTotalNanos, &b.DeleteCount),
		RecoveryFiles:        b.RecoveryFiles.Load(),
		RecoveryErrors:       b.RecoveryErrors.Load(),
		PartitionWrites:      b.PartitionWrites.Load(),
		PartitionWriteErrors: b.PartitionWriteErrors.Load(),
		PartitionWriteBytes:  b.PartitionWriteBytes.Load(),
		PartitionRemoves:     b.PartitionRemoves.Load(),
		PartitionRemoveErrs:  b.PartitionRemoveErrs.Load(),
	}
}

func avgNanos(total, count *atomic.Int64) int64 {
	n := count.Load()
	if n == 0 {
		return 0
	}
	return total.Load() / n
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	CreateCount          int64
	CreateErrors         int64
	CreateAvgNanos       int64
	UpdateCount          int64
	UpdateErrors         int64
	UpdateAvgNanos       int64
	DeleteCount          int64
	DeleteErrors         int64
	DeleteAvgNanos       int64
	RecoveryFiles        int64
	RecoveryErrors       int64
	PartitionWrites      int64
	PartitionWriteErrors int64
	PartitionWriteBytes  int64
	PartitionRemoves     int64
	PartitionRemoveErrs  int64
}
