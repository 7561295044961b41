package minio

import (
	"context"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/olovm/cora-diskstorage/backup"
)

const contentType = "application/gzip"

// Config describes how to reach a bucket.
type Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Secure    bool   `yaml:"secure"`
	// CreateBucket makes the bucket if it does not exist yet.
	CreateBucket bool `yaml:"create_bucket"`
}

// Target implements backup.Target for MinIO and S3-compatible storage.
type Target struct {
	client *minio.Client
	bucket string
	prefix string
}

var _ backup.Target = (*Target)(nil)

// NewTarget creates a target writing to bucket. rootPrefix is prepended to
// all object names (e.g. "cora/").
func NewTarget(client *minio.Client, bucket, rootPrefix string) *Target {
	return &Target{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
	}
}

// Dial connects to the endpoint in cfg and returns a Target for its bucket.
func Dial(ctx context.Context, cfg Config) (*Target, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, err
	}
	if cfg.CreateBucket {
		exists, err := client.BucketExists(ctx, cfg.Bucket)
		if err != nil {
			return nil, err
		}
		if !exists {
			if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
				return nil, err
			}
		}
	}
	return NewTarget(client, cfg.Bucket, cfg.Prefix), nil
}

func (t *Target) key(name string) string {
	return path.Join(t.prefix, name)
}

// Put implements backup.Target.
func (t *Target) Put(ctx context.Context, name string, r io.Reader, size int64) error {
	_, err := t.client.PutObject(ctx, t.bucket, t.key(name), r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

// Get opens the object stored under name.
func (t *Target) Get(ctx context.Context, name string) (io.ReadCloser, error) {
	key := t.key(name)
	if _, err := t.client.StatObject(ctx, t.bucket, key, minio.StatObjectOptions{}); err != nil {
		if isNotFound(err) {
			return nil, backup.ErrNotFound
		}
		return nil, err
	}
	return t.client.GetObject(ctx, t.bucket, key, minio.GetObjectOptions{})
}

// Delete implements backup.Target.
func (t *Target) Delete(ctx context.Context, name string) error {
	err := t.client.RemoveObject(ctx, t.bucket, t.key(name), minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

// List implements backup.Target.
func (t *Target) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	for obj := range t.client.ListObjects(ctx, t.bucket, minio.ListObjectsOptions{
		Prefix:    t.key(prefix),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		// Strip our root prefix
		name := strings.TrimPrefix(obj.Key, t.prefix)
		name = strings.TrimPrefix(name, "/")
		if name != "" {
			names = append(names, name)
		}
	}

	sort.Strings(names)
	return names, nil
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}
