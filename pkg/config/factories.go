package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mitchellh/mapstructure"

	"github.com/bpetkov/bookmarkd/internal/logger"
	"github.com/bpetkov/bookmarkd/pkg/store/snapshot"
	snapshotFs "github.com/bpetkov/bookmarkd/pkg/store/snapshot/fs"
	snapshotMemory "github.com/bpetkov/bookmarkd/pkg/store/snapshot/memory"
	snapshotS3 "github.com/bpetkov/bookmarkd/pkg/store/snapshot/s3"
	"github.com/bpetkov/bookmarkd/pkg/store/user"
	userBadger "github.com/bpetkov/bookmarkd/pkg/store/user/badger"
	userFile "github.com/bpetkov/bookmarkd/pkg/store/user/file"
)

// CreateSnapshotStore creates a snapshot blob store based on
// configuration.
//
// This factory uses the Type field to determine which backend to
// create, then decodes the type-specific configuration from the
// corresponding map and passes it to the backend's constructor.
//
// Supported types:
//   - "fs": local filesystem, atomic temp-file-then-rename writes
//   - "memory": in-memory, ephemeral (testing and demos)
//   - "s3": Amazon S3 or any S3-compatible endpoint
func CreateSnapshotStore(ctx context.Context, cfg *SnapshotConfig) (snapshot.Store, error) {
	switch cfg.Type {
	case "fs":
		return createFSSnapshotStore(ctx, cfg.FS)
	case "memory":
		return snapshotMemory.NewMemorySnapshotStore(), nil
	case "s3":
		return createS3SnapshotStore(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown snapshot store type: %q (supported: fs, memory, s3)", cfg.Type)
	}
}

func createFSSnapshotStore(ctx context.Context, options map[string]any) (snapshot.Store, error) {
	type FSSnapshotStoreOptions struct {
		Path string `mapstructure:"path"`
	}

	var storeCfg FSSnapshotStoreOptions
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode fs snapshot store config: %w", err)
	}
	if storeCfg.Path == "" {
		return nil, fmt.Errorf("fs snapshot store: path is required")
	}

	store, err := snapshotFs.NewFSSnapshotStore(ctx, storeCfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create fs snapshot store: %w", err)
	}
	return store, nil
}

func createS3SnapshotStore(ctx context.Context, options map[string]any) (snapshot.Store, error) {
	type S3SnapshotStoreOptions struct {
		Region          string `mapstructure:"region"`
		Bucket          string `mapstructure:"bucket"`
		KeyPrefix       string `mapstructure:"key_prefix"`
		Endpoint        string `mapstructure:"endpoint"`
		AccessKeyID     string `mapstructure:"access_key_id"`
		SecretAccessKey string `mapstructure:"secret_access_key"`
		MaxRetries      int    `mapstructure:"max_retries"`
	}

	var storeCfg S3SnapshotStoreOptions
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode S3 snapshot store config: %w", err)
	}
	if storeCfg.Bucket == "" {
		return nil, fmt.Errorf("S3 snapshot store: bucket is required")
	}
	if storeCfg.Region == "" {
		return nil, fmt.Errorf("S3 snapshot store: region is required")
	}

	var configOptions []func(*awsConfig.LoadOptions) error
	configOptions = append(configOptions, awsConfig.WithRegion(storeCfg.Region))

	// Custom endpoint support for MinIO, Localstack, etc.
	if storeCfg.Endpoint != "" {
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		customResolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
				return aws.Endpoint{
					URL:               storeCfg.Endpoint,
					HostnameImmutable: true,
					Source:            aws.EndpointSourceCustom,
				}, nil
			},
		)
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		configOptions = append(configOptions, awsConfig.WithEndpointResolverWithOptions(customResolver))
	}

	// Static credentials if provided, otherwise the default chain
	if storeCfg.AccessKeyID != "" && storeCfg.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			storeCfg.AccessKeyID,
			storeCfg.SecretAccessKey,
			"",
		)
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	maxRetries := storeCfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 10
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// Path-style addressing for MinIO/Localstack compatibility
		if storeCfg.Endpoint != "" {
			o.UsePathStyle = true
		}
	})

	store, err := snapshotS3.NewS3SnapshotStore(ctx, snapshotS3.S3SnapshotStoreConfig{
		Client:    client,
		Bucket:    storeCfg.Bucket,
		KeyPrefix: storeCfg.KeyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 snapshot store: %w", err)
	}

	logger.Info("S3 snapshot store initialized: bucket=%s, region=%s, prefix=%s",
		storeCfg.Bucket, storeCfg.Region, storeCfg.KeyPrefix)

	return store, nil
}

// CreateUserStore creates a user registry based on configuration.
//
// Supported types:
//   - "file": JSON records inside the snapshot store (one users.json)
//   - "badger": BadgerDB key-value storage, one record per user
func CreateUserStore(ctx context.Context, cfg *UsersConfig, blobs snapshot.Store) (user.Store, error) {
	switch cfg.Type {
	case "file":
		store, err := userFile.NewFileUserStore(ctx, blobs)
		if err != nil {
			return nil, fmt.Errorf("failed to create file user store: %w", err)
		}
		return store, nil

	case "badger":
		type BadgerUserStoreOptions struct {
			DBPath string `mapstructure:"db_path"`
		}

		var storeCfg BadgerUserStoreOptions
		if err := mapstructure.Decode(cfg.Badger, &storeCfg); err != nil {
			return nil, fmt.Errorf("failed to decode badger user store config: %w", err)
		}
		if storeCfg.DBPath == "" {
			return nil, fmt.Errorf("badger user store: db_path is required")
		}

		store, err := userBadger.NewBadgerUserStore(ctx, userBadger.BadgerUserStoreConfig{
			DBPath: storeCfg.DBPath,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create badger user store: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown user store type: %q (supported: file, badger)", cfg.Type)
	}
}
