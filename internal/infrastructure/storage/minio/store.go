package minio

import (
	"bytes"
	"context"
	"fmt"
	"sync/atomic"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"golang.org/x/exp/slog"
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// Store is an object store for rendered reports.
type Store struct {
	client  *miniogo.Client
	bucket  string
	log     *slog.Logger
	ensured atomic.Bool
}

func New(cfg Config, log *slog.Logger) (*Store, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       cfg.UseSSL,
		Region:       cfg.Region,
		BucketLookup: miniogo.BucketLookupAuto,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	return &Store{
		client: client,
		bucket: cfg.Bucket,
		log:    log.With("component", "minio_store"),
	}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		s.ensured.Store(true)
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, miniogo.MakeBucketOptions{}); err != nil {
		// lost a race with another device
		if resp := miniogo.ToErrorResponse(err); resp.Code == "BucketAlreadyOwnedByYou" {
			s.ensured.Store(true)
			return nil
		}
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	s.log.Info("bucket created", "bucket", s.bucket)
	s.ensured.Store(true)
	return nil
}

// Upload stores data under key, creating the bucket on first use.
func (s *Store) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if !s.ensured.Load() {
		if err := s.EnsureBucket(ctx); err != nil {
			return err
		}
	}

	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		miniogo.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	s.log.Debug("object uploaded", "key", key, "etag", info.ETag, "size", info.Size)
	return nil
}
