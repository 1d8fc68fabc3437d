package capture

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/config"
)

// Archiver mirrors saved captures somewhere durable.
type Archiver interface {
	Archive(ctx context.Context, c Capture) error
}

// ObjectArchive writes each capture as <prefix><kind>/<id>.json to an
// S3-compatible bucket.
type ObjectArchive struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewObjectArchive connects to the bucket in cfg, creating it when missing.
func NewObjectArchive(ctx context.Context, cfg config.ObjectArchive) (*ObjectArchive, error) {
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("object archive: %w", err)
	}
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("object archive: check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("object archive: create bucket %s: %w", cfg.Bucket, err)
		}
	}
	return &ObjectArchive{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// ObjectKey is where c is stored in the bucket.
func ObjectKey(prefix string, c Capture) string {
	return path.Join(prefix, string(c.Kind), c.ID+".json")
}

func (a *ObjectArchive) Archive(ctx context.Context, c Capture) error {
	_, err := a.client.PutObject(ctx, a.bucket, ObjectKey(a.prefix, c),
		strings.NewReader(c.Payload), int64(len(c.Payload)),
		minio.PutObjectOptions{
			ContentType:  "application/json",
			UserMetadata: map[string]string{"kind": string(c.Kind), "agent": c.AgentName},
		})
	if err != nil {
		return fmt.Errorf("archive %s: %w", c.ID, err)
	}
	return nil
}
