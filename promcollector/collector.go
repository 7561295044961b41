// Package promcollector exports storage metrics to Prometheus.
package promcollector

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	diskstorage "github.com/olovm/cora-diskstorage"
)

const namespace = "cora_diskstorage"

// Collector implements diskstorage.MetricsCollector.
type Collector struct {
	opLatency        *prometheus.HistogramVec
	partitionWrites  *prometheus.CounterVec
	partitionBytes   *prometheus.CounterVec
	partitionLatency *prometheus.HistogramVec
	partitionRemoves *prometheus.CounterVec
	recoveryFiles    prometheus.Gauge
	recoveryLatency  prometheus.Histogram
	recoveryErrors   prometheus.Counter
}

var _ diskstorage.MetricsCollector = (*Collector)(nil)

// New creates a Collector and registers it with reg. A nil reg means
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_latency_seconds",
			Help:      "Latency of create, update and delete including partition writes.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "status"}),
		partitionWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partition_writes_total",
			Help:      "Partition files written.",
		}, []string{"kind", "status"}),
		partitionBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partition_written_bytes_total",
			Help:      "Compressed bytes written to partition files.",
		}, []string{"kind"}),
		partitionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "partition_write_seconds",
			Help:      "Time to write one partition file.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"kind"}),
		partitionRemoves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partition_removes_total",
			Help:      "Partition files removed.",
		}, []string{"kind", "status"}),
		recoveryFiles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "recovery_files",
			Help:      "Partition files loaded by the last recovery.",
		}),
		recoveryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recovery_seconds",
			Help:      "Duration of recovery at open.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		recoveryErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recovery_errors_total",
			Help:      "Recoveries that failed.",
		}),
	}

	for _, col := range []prometheus.Collector{
		c.opLatency,
		c.partitionWrites,
		c.partitionBytes,
		c.partitionLatency,
		c.partitionRemoves,
		c.recoveryFiles,
		c.recoveryLatency,
		c.recoveryErrors,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (c *Collector) RecordCreate(d time.Duration, err error) {
	c.opLatency.WithLabelValues("create", status(err)).Observe(d.Seconds())
}

func (c *Collector) RecordUpdate(d time.Duration, err error) {
	c.opLatency.WithLabelValues("update", status(err)).Observe(d.Seconds())
}

func (c *Collector) RecordDelete(d time.Duration, err error) {
	c.opLatency.WithLabelValues("delete", status(err)).Observe(d.Seconds())
}

func (c *Collector) RecordRecovery(files int, d time.Duration, err error) {
	if err != nil {
		c.recoveryErrors.Inc()
		return
	}
	c.recoveryFiles.Set(float64(files))
	c.recoveryLatency.Observe(d.Seconds())
}

func (c *Collector) RecordPartitionWrite(kind string, bytes int64, d time.Duration, err error) {
	c.partitionWrites.WithLabelValues(kind, status(err)).Inc()
	if err != nil {
		return
	}
	c.partitionBytes.WithLabelValues(kind).Add(float64(bytes))
	c.partitionLatency.WithLabelValues(kind).Observe(d.Seconds())
}

func (c *Collector) RecordPartitionRemove(kind string, err error) {
	c.partitionRemoves.WithLabelValues(kind, status(err)).Inc()
}
