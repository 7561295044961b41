package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/olovm/cora-diskstorage/backup"
)

// Client is the subset of the S3 API the target uses. *s3.Client
// implements it.
type Client interface {
	manager.UploadAPIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Config describes how to reach the bucket.
type Config struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	Region string `yaml:"region"`
	// Endpoint overrides the service endpoint, for S3 compatible services.
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
	// PartSize is the multipart part size in bytes. Zero keeps the SDK default.
	PartSize int64 `yaml:"part_size"`
}

// Target implements backup.Target for S3.
type Target struct {
	client   Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

var _ backup.Target = (*Target)(nil)

// NewTarget creates a target writing below prefix in bucket.
func NewTarget(client Client, bucket, prefix string, partSize int64) *Target {
	return &Target{
		client: client,
		uploader: manager.NewUploader(client, func(u *manager.Uploader) {
			if partSize > 0 {
				u.PartSize = partSize
			}
		}),
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// Dial loads the default AWS configuration (environment, shared files,
// instance roles) and returns a target for cfg.
func Dial(ctx context.Context, cfg Config) (*Target, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}
	awsCfg, err := loadAWSConfig(ctx, cfg.Region)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})
	return NewTarget(client, cfg.Bucket, cfg.Prefix, cfg.PartSize), nil
}

func loadAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("s3: load config: %w", err)
	}
	return cfg, nil
}

func (t *Target) key(name string) string {
	if t.prefix == "" {
		return name
	}
	return path.Join(t.prefix, name)
}

// Put uploads r as name.
func (t *Target) Put(ctx context.Context, name string, r io.Reader, _ int64) error {
	_, err := t.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(t.bucket),
		Key:         aws.String(t.key(name)),
		Body:        r,
		ContentType: aws.String("application/gzip"),
	})
	if err != nil {
		return fmt.Errorf("s3: put %s: %w", name, err)
	}
	return nil
}

// Get returns the content of name, or backup.ErrNotFound.
func (t *Target) Get(ctx context.Context, name string) ([]byte, error) {
	resp, err := t.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(t.bucket),
		Key:    aws.String(t.key(name)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, backup.ErrNotFound
		}
		return nil, fmt.Errorf("s3: get %s: %w", name, err)
	}
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(resp.Body)
}

// Delete removes name. Deleting a missing object is not an error.
func (t *Target) Delete(ctx context.Context, name string) error {
	_, err := t.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(t.bucket),
		Key:    aws.String(t.key(name)),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("s3: delete %s: %w", name, err)
	}
	return nil
}

// List returns the names below prefix, relative to the target prefix, sorted.
func (t *Target) List(ctx context.Context, prefix string) ([]string, error) {
	full := t.prefix
	if full != "" {
		full += "/"
	}
	full += prefix

	var names []string
	paginator := s3.NewListObjectsV2Paginator(t.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(t.bucket),
		Prefix: aws.String(full),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3: list: %w", err)
		}
		for _, obj := range page.Contents {
			name := aws.ToString(obj.Key)
			if t.prefix != "" {
				name = strings.TrimPrefix(name, t.prefix+"/")
			}
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	return errors.As(err, &nsk)
}
