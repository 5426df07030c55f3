// Package objectstore uploads pipeline artifacts to Aliyun OSS.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

const (
	// DefaultTimeout bounds a single object upload.
	DefaultTimeout = 5 * time.Minute
	// DefaultPartSize is the multipart chunk size.
	DefaultPartSize = 8 << 20
	// DefaultRoutines is the number of parts uploaded in parallel per object.
	DefaultRoutines = 5
)

var (
	// ErrUploadTimeout is returned when an upload exceeds its time budget.
	ErrUploadTimeout = errors.New("upload timed out")
	// ErrMissingConfig is returned when region, bucket or credentials are absent.
	ErrMissingConfig = errors.New("incomplete object storage config")
)

// Config identifies the bucket and credentials.
type Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	AccessKeySecret string
	// Endpoint defaults to https://<region>.aliyuncs.com.
	Endpoint string
}

// bucket is the part of *oss.Bucket the uploader uses.
type bucket interface {
	UploadFile(objectKey, filePath string, partSize int64, options ...oss.Option) error
}

// OSS stores files in one bucket and returns their public URLs.
type OSS struct {
	bucket   bucket
	name     string
	region   string
	timeout  time.Duration
	partSize int64
	routines int
	logger   *slog.Logger
}

type Option func(*OSS)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(o *OSS) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithMultipart overrides the part size and per-object parallelism.
func WithMultipart(partSize int64, routines int) Option {
	return func(o *OSS) {
		if partSize >= 100<<10 {
			o.partSize = partSize
		}
		if routines > 0 {
			o.routines = routines
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *OSS) {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
	}
}

// New connects to the bucket described by cfg.
func New(cfg Config, opts ...Option) (*OSS, error) {
	if cfg.Region == "" || cfg.Bucket == "" || cfg.AccessKeyID == "" || cfg.AccessKeySecret == "" {
		return nil, ErrMissingConfig
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "https://" + cfg.Region + ".aliyuncs.com"
	}
	client, err := oss.New(endpoint, cfg.AccessKeyID, cfg.AccessKeySecret,
		oss.Timeout(30, int64(DefaultTimeout/time.Second)))
	if err != nil {
		return nil, fmt.Errorf("oss client: %w", err)
	}
	b, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("oss bucket %s: %w", cfg.Bucket, err)
	}
	return newOSS(b, cfg.Bucket, cfg.Region, opts...), nil
}

func newOSS(b bucket, name, region string, opts ...Option) *OSS {
	o := &OSS{
		bucket:   b,
		name:     name,
		region:   region,
		timeout:  DefaultTimeout,
		partSize: DefaultPartSize,
		routines: DefaultRoutines,
		logger:   slog.Default().With("component", "objectstore"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Key joins prefix and the base name of localPath into an object key.
func Key(prefix, localPath string) string {
	name := filepath.Base(localPath)
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// URL is the public address of key in this bucket.
func (o *OSS) URL(key string) string {
	return fmt.Sprintf("https://%s.%s.aliyuncs.com/%s", o.name, o.region, key)
}

// Upload sends localPath to prefix/<basename> as a multipart upload and
// returns the public URL.
func (o *OSS) Upload(ctx context.Context, localPath, prefix string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	key := Key(prefix, localPath)
	start := time.Now()

	done := make(chan error, 1)
	go func() {
		done <- o.bucket.UploadFile(key, localPath, o.partSize,
			oss.Routines(o.routines), oss.WithContext(ctx))
	}()

	select {
	case err := <-done:
		if err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return "", fmt.Errorf("%w: %s after %s", ErrUploadTimeout, key, o.timeout)
			}
			return "", fmt.Errorf("upload %s: %w", key, err)
		}
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %s after %s", ErrUploadTimeout, key, o.timeout)
		}
		return "", ctx.Err()
	}

	o.logger.Debug("object uploaded", "key", key, "took", time.Since(start))
	return o.URL(key), nil
}
