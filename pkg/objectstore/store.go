// Package objectstore is the content-addressed blob gateway: an
// S3-compatible client keyed by lowercase hex content digest, with no
// extension and no path sanitization (the key IS the digest).
package objectstore

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/marmos91/dittosync/pkg/metrics"
)

// Store uploads and deletes content-addressed blobs in an S3-compatible
// bucket.
type Store struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
	metrics   metrics.GatewayMetrics
}

// Config configures a Store.
type Config struct {
	Bucket         string
	Region         string
	Endpoint       string
	ForcePathStyle bool
	MaxRetries     int
	KeyPrefix      string
	Metrics        metrics.GatewayMetrics

	// AccessKeyID/SecretAccessKey are optional static credentials; when
	// empty the default AWS credential chain is used.
	AccessKeyID     string
	SecretAccessKey string
}

// New builds an S3 client from cfg and returns a Store. It does not verify
// bucket access; callers that want a fail-fast startup should call
// HeadBucket separately.
func New(ctx context.Context, cfg Config) (*Store, error) {
	var optFns []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	if cfg.MaxRetries > 0 {
		// The SDK counts attempts, first try included.
		optFns = append(optFns, awsconfig.WithRetryMaxAttempts(cfg.MaxRetries+1))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = &cfg.Endpoint
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	return &Store{
		client:    client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
		metrics:   cfg.Metrics,
	}, nil
}

// key returns the object key for a content hash: the hash itself
// (optionally prefixed), no extension, no sanitization.
func (s *Store) key(contentHash string) string {
	return s.keyPrefix + contentHash
}

// Put uploads content under its content hash, overwriting any existing
// object at that key (content-addressed, so overwrites are identical
// bytes in practice).
func (s *Store) Put(ctx context.Context, contentHash string, body io.Reader, size int64, mimeType string) (storageKey string, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(s.metrics, "s3", "put", time.Since(start), err) }()

	key := s.key(contentHash)

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
	}
	if mimeType != "" {
		input.ContentType = aws.String(mimeType)
	}

	if _, err = s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	metrics.RecordBytes(s.metrics, "s3", "put", size)
	return key, nil
}

// Delete removes the blob for contentHash. Idempotent: deleting a
// non-existent key is not an error. The sync engine never deletes blobs
// itself; this exists for an external garbage collector.
func (s *Store) Delete(ctx context.Context, contentHash string) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(s.metrics, "s3", "delete", time.Since(start), err) }()

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(contentHash)),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", s.key(contentHash), err)
	}
	return nil
}

// HeadBucket verifies the configured bucket is reachable.
func (s *Store) HeadBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return fmt.Errorf("head bucket %s: %w", s.bucket, err)
	}
	return nil
}
