// Package s3 implements S3-backed snapshot storage.
//
// Snapshot keys map directly to object keys below a configurable prefix.
// PutObject replaces the whole object, so S3's own atomicity covers the
// no-half-written-snapshot guarantee without a temp-and-rename step.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/bpetkov/bookmarkd/pkg/store/snapshot"
)

// S3SnapshotStore implements snapshot.Store on an S3 bucket.
type S3SnapshotStore struct {
	client    *awss3.Client
	bucket    string
	keyPrefix string
}

// S3SnapshotStoreConfig carries the dependencies for NewS3SnapshotStore.
type S3SnapshotStoreConfig struct {
	// Client is a configured S3 client (required)
	Client *awss3.Client

	// Bucket is the bucket holding snapshots (required)
	Bucket string

	// KeyPrefix is prepended to every snapshot key (optional)
	KeyPrefix string
}

// NewS3SnapshotStore validates the config and returns a store.
func NewS3SnapshotStore(ctx context.Context, cfg S3SnapshotStoreConfig) (*S3SnapshotStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.Client == nil {
		return nil, fmt.Errorf("s3 snapshot store: client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 snapshot store: bucket is required")
	}

	return &S3SnapshotStore{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

func (s *S3SnapshotStore) objectKey(key string) string {
	if s.keyPrefix == "" {
		return key
	}
	return path.Join(s.keyPrefix, key)
}

func (s *S3SnapshotStore) Write(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to write snapshot %s to S3: %w", key, err)
	}
	return nil
}

func (s *S3SnapshotStore) Read(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, snapshot.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot %s from S3: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s body: %w", key, err)
	}
	return data, nil
}

func (s *S3SnapshotStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := s.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat snapshot %s on S3: %w", key, err)
	}
	return true, nil
}

func (s *S3SnapshotStore) Close() error {
	return nil
}
