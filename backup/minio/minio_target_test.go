package minio

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olovm/cora-diskstorage/backup"
)

func TestKey(t *testing.T) {
	target := NewTarget(nil, "bucket", "cora/")
	assert.Equal(t, "cora/sys1/person_sys1.json.gz", target.key("sys1/person_sys1.json.gz"))

	target = NewTarget(nil, "bucket", "")
	assert.Equal(t, "sys1/person_sys1.json.gz", target.key("sys1/person_sys1.json.gz"))
}

// TestTarget_Integration requires a running MinIO instance.
// Skip if not available.
func TestTarget_Integration(t *testing.T) {
	client, err := minio.New("localhost:9000", &minio.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()
	if _, err := client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	bucket := "test-diskstorage"
	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	target := NewTarget(client, bucket, "test-prefix/")
	payload := []byte("partition bytes")
	require.NoError(t, target.Put(ctx, "sys1/person_sys1.json.gz", bytes.NewReader(payload), int64(len(payload))))

	rc, err := target.Get(ctx, "sys1/person_sys1.json.gz")
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, payload, got)

	names, err := target.List(ctx, "sys1/")
	require.NoError(t, err)
	assert.Contains(t, names, "sys1/person_sys1.json.gz")

	require.NoError(t, target.Delete(ctx, "sys1/person_sys1.json.gz"))
	require.NoError(t, target.Delete(ctx, "sys1/person_sys1.json.gz"), "deleting twice is fine")

	_, err = target.Get(ctx, "sys1/person_sys1.json.gz")
	assert.ErrorIs(t, err, backup.ErrNotFound)
}
