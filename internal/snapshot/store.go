// Package snapshot persists the denormalized organisation snapshot: a local
// JSON file for fast reads, optionally mirrored to S3 so other hosts can
// bootstrap from it.
package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/workbooks-sync/internal/pkg/logger"
)

// S3API is the subset of the S3 client used by the store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store writes the snapshot document to disk and, when configured, to S3.
type Store struct {
	path   string
	bucket string
	key    string
	s3     S3API
}

// New creates a local-only snapshot store.
func New(path string) *Store {
	return &Store{path: path}
}

// NewWithS3 creates a snapshot store that also mirrors to S3.
func NewWithS3(ctx context.Context, path, bucket, key, region, profile string) (*Store, error) {
	var cfg aws.Config
	var err error

	if profile != "" {
		cfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(region),
			awsconfig.WithSharedConfigProfile(profile),
		)
	} else {
		cfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &Store{
		path:   path,
		bucket: bucket,
		key:    key,
		s3:     s3.NewFromConfig(cfg),
	}, nil
}

// SetS3Client overrides the S3 client (useful for testing).
func (s *Store) SetS3Client(client S3API, bucket, key string) {
	s.s3 = client
	s.bucket = bucket
	s.key = key
}

// Save writes the snapshot atomically (write to temp file, then rename) and
// mirrors it to S3 if configured. An S3 failure does not fail the save; the
// local file is the source of truth for autocomplete.
func (s *Store) Save(ctx context.Context, data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace snapshot: %w", err)
	}

	if s.s3 != nil && s.bucket != "" {
		_, err := s.s3.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(s.key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String("application/json"),
		})
		if err != nil {
			logger.Warn("snapshot S3 mirror failed", "bucket", s.bucket, "error", err.Error())
		}
	}

	return nil
}

// Load reads the local snapshot file. Returns os.ErrNotExist if no snapshot
// has been written yet.
func (s *Store) Load() ([]byte, error) {
	return os.ReadFile(s.path)
}
