// Package minio uploads datasets and rendered artifacts to S3-compatible storage.
package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/couchcryptid/rainfall-etl/internal/config"
	"github.com/couchcryptid/rainfall-etl/internal/domain"
)

// objectClient is the subset of *miniogo.Client used here.
type objectClient interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts miniogo.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts miniogo.PutObjectOptions) (miniogo.UploadInfo, error)
	FPutObject(ctx context.Context, bucket, key, path string, opts miniogo.PutObjectOptions) (miniogo.UploadInfo, error)
}

// Store writes objects into a single bucket.
// It implements pipeline.DatasetSink.
type Store struct {
	client objectClient
	bucket string
	logger *slog.Logger
}

// NewStore creates a client for the configured endpoint. No request is made
// until the first upload.
func NewStore(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	client, err := miniogo.New(cfg.MinioEndpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &Store{client: client, bucket: cfg.MinioBucket, logger: logger}, nil
}

func (s *Store) Name() string { return "minio" }

// Store uploads the Dataset's JSON form under "<dataset name>.json".
func (s *Store) Store(ctx context.Context, r domain.YearRange, ds domain.Dataset) error {
	data, err := domain.MarshalDataset(ds)
	if err != nil {
		return err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return err
	}

	key := r.DatasetName() + ".json"
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), miniogo.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("upload dataset %s: %w", key, err)
	}
	s.logger.Info("dataset uploaded", "bucket", s.bucket, "key", key, "bytes", len(data))
	return nil
}

// UploadFile uploads a local artifact under its base name.
func (s *Store) UploadFile(ctx context.Context, path string) error {
	if err := s.ensureBucket(ctx); err != nil {
		return err
	}
	key := filepath.Base(path)
	_, err := s.client.FPutObject(ctx, s.bucket, key, path, miniogo.PutObjectOptions{
		ContentType: contentType(path),
	})
	if err != nil {
		return fmt.Errorf("upload artifact %s: %w", key, err)
	}
	s.logger.Info("artifact uploaded", "bucket", s.bucket, "key", key)
	return nil
}

func (s *Store) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, miniogo.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	s.logger.Info("bucket created", "bucket", s.bucket)
	return nil
}

func contentType(path string) string {
	switch filepath.Ext(path) {
	case ".json":
		return "application/json"
	case ".png":
		return "image/png"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}
