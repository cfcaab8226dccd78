package webfont

import (
	"context"
	"fmt"
	"io"
	"io/fs"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectConfig configures an ObjectSource.
type ObjectConfig struct {
	// Endpoint is the S3-compatible server address, such as "localhost:9000".
	Endpoint string

	// Bucket holds the mirrored fonts.
	Bucket string

	AccessKey string
	SecretKey string

	// UseSSL enables HTTPS connections.
	UseSSL bool

	// Prefix is prepended to every object key.
	Prefix string

	// Client is an optional pre-configured client. When set, Endpoint and
	// the credentials are ignored.
	Client *minio.Client
}

func (c *ObjectConfig) validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("bucket is required")
	}
	if c.Client != nil {
		return nil
	}
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required when client is not provided")
	}
	if c.AccessKey == "" || c.SecretKey == "" {
		return fmt.Errorf("credentials are required when client is not provided")
	}
	return nil
}

// ObjectSource serves web fonts mirrored into an S3-compatible bucket,
// stored under prefix/host/path.
type ObjectSource struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewObjectSource creates an ObjectSource.
func NewObjectSource(cfg ObjectConfig) (*ObjectSource, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	client := cfg.Client
	if client == nil {
		var err error
		client, err = minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create minio client: %w", err)
		}
	}

	return &ObjectSource{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

// Fetch downloads the object mirroring locator. Objects whose stat'ed size
// exceeds maxSize are rejected before the download starts.
func (s *ObjectSource) Fetch(ctx context.Context, locator string, maxSize int64) ([]byte, error) {
	key, err := objectKey(locator)
	if err != nil {
		return nil, err
	}
	key = joinKey(s.prefix, key)

	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, pathError(key, translate(err))
	}
	if maxSize > 0 && info.Size > maxSize {
		return nil, tooLarge(key, info.Size, maxSize)
	}

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, pathError(key, translate(err))
	}
	defer func() {
		_ = obj.Close()
	}()

	buf := make([]byte, info.Size)
	if _, err := io.ReadFull(obj, buf); err != nil {
		return nil, pathError(key, translate(err))
	}
	return buf, nil
}

// translate converts MinIO error responses to io/fs errors.
func translate(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fs.ErrNotExist
	case "AccessDenied":
		return fs.ErrPermission
	}
	return fmt.Errorf("minio: %w", err)
}

func pathError(key string, err error) error {
	return &fs.PathError{Op: "fetch", Path: key, Err: err}
}
