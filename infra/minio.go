package infra

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/fieldworks/artifact-capture/config"
)

// MinioClient mirrors derived files into an S3-compatible bucket. Off-site
// replication is optional; a nil client disables it.
type MinioClient struct {
	Client   *minio.Client
	Bucket   string
	Endpoint string
}

func NewMinioClient(cfg *config.EnvConfig) (*MinioClient, error) {
	if cfg.Minio.Endpoint == "" {
		return nil, fmt.Errorf("MinIO endpoint is not configured")
	}

	client, err := minio.New(cfg.Minio.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Minio.RootUser, cfg.Minio.RootPassword, ""),
		Secure: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	return &MinioClient{
		Client:   client,
		Bucket:   cfg.Minio.MirrorBucket,
		Endpoint: cfg.Minio.Endpoint,
	}, nil
}

// EnsureBucket creates the mirror bucket if it does not exist yet.
func (m *MinioClient) EnsureBucket(ctx context.Context) error {
	exists, err := m.Client.BucketExists(ctx, m.Bucket)
	if err != nil {
		return fmt.Errorf("failed to check mirror bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := m.Client.MakeBucket(ctx, m.Bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create mirror bucket: %w", err)
	}
	return nil
}

// MirrorFile uploads one content-directory file under its basename.
func (m *MinioClient) MirrorFile(ctx context.Context, uploadDir, name string) error {
	path := filepath.Join(uploadDir, name)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", name, err)
	}

	_, err = m.Client.PutObject(ctx, m.Bucket, name, f, stat.Size(), minio.PutObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to mirror %s: %w", name, err)
	}
	return nil
}

// RemoveMirroredFile deletes one mirrored object, tolerating absence.
func (m *MinioClient) RemoveMirroredFile(ctx context.Context, name string) error {
	err := m.Client.RemoveObject(ctx, m.Bucket, name, minio.RemoveObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return nil
		}
		return fmt.Errorf("failed to remove mirrored %s: %w", name, err)
	}
	return nil
}
