// Package s3 implements a content store backed by Amazon S3 or any
// S3-compatible object storage (MinIO, Localstack, Cubbit DS3, ...).
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/marmos91/dittobox/pkg/store/content"
	"github.com/marmos91/dittobox/pkg/store/metadata"
	"github.com/mitchellh/mapstructure"
)

// S3ContentStore implements WritableContentStore on top of an S3 bucket.
//
// Key Design:
// Object keys are "<keyPrefix><contentID>". Content IDs are UUID-derived
// (with an optional variant width suffix), so keys stay flat, unique, and
// human-inspectable in the bucket.
//
// S3 Characteristics:
//   - PutObject is atomic per object: readers see the old version or the
//     new one, never a partial write, which matches the WriteContent
//     contract for free
//   - No local caching: every read hits S3
//   - Concurrent writes to the same key are last-write-wins
//
// Thread Safety:
// The AWS SDK client is safe for concurrent use; the store holds no other
// mutable state.
type S3ContentStore struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
}

// S3ContentStoreConfig contains configuration for the S3 backend.
type S3ContentStoreConfig struct {
	// Bucket is the S3 bucket name. Must already exist.
	Bucket string `mapstructure:"bucket"`

	// Region is the AWS region (e.g. "us-east-1")
	Region string `mapstructure:"region"`

	// Endpoint is an optional custom endpoint for S3-compatible storage
	// (MinIO, Localstack, etc.). Empty means real AWS S3.
	Endpoint string `mapstructure:"endpoint"`

	// KeyPrefix is an optional prefix for all object keys.
	// Example: "dittobox/content/" results in keys like "dittobox/content/abc123"
	KeyPrefix string `mapstructure:"key_prefix"`

	// AccessKeyID and SecretAccessKey are optional static credentials.
	// When empty the default AWS credential chain is used.
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// NewS3ContentStore creates a new S3-based content store from an already
// configured client.
//
// The bucket must already exist; this function verifies access with a
// HeadBucket call but does not create it.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - client: Configured S3 client
//   - bucket: S3 bucket name
//   - keyPrefix: Optional prefix for all object keys
//
// Returns:
//   - *S3ContentStore: Initialized store
//   - error: Error if bucket access fails or context is cancelled
func NewS3ContentStore(ctx context.Context, client *s3.Client, bucket, keyPrefix string) (*S3ContentStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	_, err := client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", bucket, err)
	}

	return &S3ContentStore{
		client:    client,
		bucket:    bucket,
		keyPrefix: keyPrefix,
	}, nil
}

// NewS3ContentStoreFromMap creates a store from an untyped configuration
// map, building the S3 client from the embedded credentials and endpoint.
func NewS3ContentStoreFromMap(ctx context.Context, settings map[string]any) (*S3ContentStore, error) {
	var cfg S3ContentStoreConfig
	if err := mapstructure.Decode(settings, &cfg); err != nil {
		return nil, fmt.Errorf("invalid s3 content store config: %w", err)
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 content store requires bucket")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	configOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	// Static credentials if provided, otherwise the default credential chain.
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOptions = append(configOptions, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// Custom endpoint for MinIO, Localstack, and other S3-compatibles.
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3ContentStore(ctx, client, cfg.Bucket, cfg.KeyPrefix)
}

// objectKey returns the S3 object key for a content ID.
func (s *S3ContentStore) objectKey(id metadata.ContentID) string {
	return s.keyPrefix + string(id)
}

// isNotFound reports whether err is an S3 "object does not exist" error.
//
// GetObject returns NoSuchKey; HeadObject returns a generic 404 surfaced as
// smithy API error "NotFound".
func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NoSuchKey" || code == "NotFound"
	}
	return false
}

// ReadContent returns a reader streaming the object body from S3.
//
// The caller is responsible for closing the returned ReadCloser.
func (s *S3ContentStore) ReadContent(ctx context.Context, id metadata.ContentID) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(id)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
		}
		return nil, fmt.Errorf("%w: failed to get object: %w", content.ErrUnavailable, err)
	}

	return out.Body, nil
}

// GetContentSize returns the object size via a HeadObject call.
func (s *S3ContentStore) GetContentSize(ctx context.Context, id metadata.ContentID) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(id)),
	})
	if err != nil {
		if isNotFound(err) {
			return 0, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
		}
		return 0, fmt.Errorf("%w: failed to head object: %w", content.ErrUnavailable, err)
	}

	return uint64(aws.ToInt64(out.ContentLength)), nil
}

// ContentExists checks whether the object exists.
func (s *S3ContentStore) ContentExists(ctx context.Context, id metadata.ContentID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(id)),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: failed to head object: %w", content.ErrUnavailable, err)
	}

	return true, nil
}

// WriteContent uploads the content with a single PutObject call.
//
// S3 object replacement is atomic, satisfying the WriteContent contract.
func (s *S3ContentStore) WriteContent(ctx context.Context, id metadata.ContentID, data io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(id)),
		Body:   data,
	})
	if err != nil {
		return fmt.Errorf("%w: failed to put object: %w", content.ErrUnavailable, err)
	}

	return nil
}

// Close is a no-op: the SDK client holds no resources needing release.
func (s *S3ContentStore) Close() error {
	return nil
}
