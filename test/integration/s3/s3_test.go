//go:build integration

package s3_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/marmos91/dittobox/pkg/store/content"
	s3store "github.com/marmos91/dittobox/pkg/store/content/s3"
	contenttesting "github.com/marmos91/dittobox/pkg/store/content/testing"
)

// setupTestS3 creates an S3 client and test bucket for integration tests.
//
// It connects to Localstack (or another S3-compatible endpoint) and creates
// a test bucket that the returned cleanup function deletes.
func setupTestS3(t *testing.T, bucketName string) (*s3.Client, func()) {
	t.Helper()
	ctx := context.Background()

	endpoint := os.Getenv("LOCALSTACK_ENDPOINT")
	if endpoint == "" {
		endpoint = "http://localhost:4566"
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("us-east-1"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			"test", "test", "",
		)),
	)
	if err != nil {
		t.Fatalf("Failed to load AWS config: %v", err)
	}

	// Path-style URLs are required for Localstack.
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	_, err = client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(bucketName),
	})
	if err != nil {
		t.Fatalf("Failed to create test bucket: %v", err)
	}

	cleanup := func() {
		listResp, _ := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket: aws.String(bucketName),
		})
		if listResp != nil {
			for _, obj := range listResp.Contents {
				_, _ = client.DeleteObject(ctx, &s3.DeleteObjectInput{
					Bucket: aws.String(bucketName),
					Key:    obj.Key,
				})
			}
		}
		_, _ = client.DeleteBucket(ctx, &s3.DeleteBucketInput{
			Bucket: aws.String(bucketName),
		})
	}

	return client, cleanup
}

// TestS3ContentStore_Integration runs the content store test suite against
// a real S3-compatible service (Localstack).
//
// Prerequisites:
//   - Localstack running on localhost:4566
//   - Run with: go test -tags=integration ./test/integration/s3/...
//
// To start Localstack:
//
//	docker run --rm -p 4566:4566 localstack/localstack
func TestS3ContentStore_Integration(t *testing.T) {
	ctx := context.Background()

	bucketName := "dittobox-test-bucket"
	client, cleanup := setupTestS3(t, bucketName)
	defer cleanup()

	// Each test gets a fresh store instance with a unique key prefix for
	// isolation.
	testCounter := 0
	suite := &contenttesting.StoreTestSuite{
		NewStore: func(t *testing.T) content.WritableContentStore {
			testCounter++
			store, err := s3store.NewS3ContentStore(ctx, client, bucketName, fmt.Sprintf("test-%d/", testCounter))
			if err != nil {
				t.Fatalf("Failed to create S3 content store for test %d: %v", testCounter, err)
			}
			return store
		},
	}

	suite.Run(t)
}

// TestS3ContentStore_FromMap builds the store from configuration settings,
// the same path the server's config loader takes.
func TestS3ContentStore_FromMap(t *testing.T) {
	ctx := context.Background()

	bucketName := "dittobox-frommap-test"
	_, cleanup := setupTestS3(t, bucketName)
	defer cleanup()

	endpoint := os.Getenv("LOCALSTACK_ENDPOINT")
	if endpoint == "" {
		endpoint = "http://localhost:4566"
	}

	store, err := s3store.NewS3ContentStoreFromMap(ctx, map[string]any{
		"endpoint":          endpoint,
		"region":            "us-east-1",
		"bucket":            bucketName,
		"access_key_id":     "test",
		"secret_access_key": "test",
		"force_path_style":  true,
	})
	if err != nil {
		t.Fatalf("Failed to create S3 content store from settings: %v", err)
	}
	defer func() { _ = store.Close() }()
}
