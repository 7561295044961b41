package promcollector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	diskstorage "github.com/olovm/cora-diskstorage"
	"github.com/olovm/cora-diskstorage/memory"
	fixtures "github.com/olovm/cora-diskstorage/testutil"
)

func TestCollector_Records(t *testing.T) {
	c, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	c.RecordCreate(time.Millisecond, nil)
	c.RecordCreate(time.Millisecond, errors.New("boom"))
	c.RecordPartitionWrite(diskstorage.KindRecords, 120, time.Millisecond, nil)
	c.RecordPartitionWrite(diskstorage.KindRecords, 0, time.Millisecond, errors.New("disk full"))
	c.RecordPartitionRemove(diskstorage.KindLinkLists, nil)
	c.RecordRecovery(7, time.Second, nil)
	c.RecordRecovery(0, time.Second, errors.New("corrupt"))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.partitionWrites.WithLabelValues("records", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.partitionWrites.WithLabelValues("records", "error")))
	assert.Equal(t, 120.0, testutil.ToFloat64(c.partitionBytes.WithLabelValues("records")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.partitionRemoves.WithLabelValues(diskstorage.KindLinkLists, "success")))
	assert.Equal(t, 7.0, testutil.ToFloat64(c.recoveryFiles))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.recoveryErrors))
	assert.Equal(t, 2, testutil.CollectAndCount(c.opLatency))
}

func TestCollector_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	var already prometheus.AlreadyRegisteredError
	assert.ErrorAs(t, err, &already)
}

func TestCollector_WithStorage(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	c, err := New(reg)
	require.NoError(t, err)

	s, err := diskstorage.Open(ctx, t.TempDir(), memory.New(), diskstorage.WithMetricsCollector(c))
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, "person", "p1", fixtures.Record("person", "p1"), fixtures.Terms("nameTerm", "Anna"), nil, "sys1"))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.partitionWrites.WithLabelValues("records", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.partitionWrites.WithLabelValues(diskstorage.KindCollectedData, "success")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.recoveryFiles))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "cora_diskstorage_operation_latency_seconds")
}
