// Package s3 provides an S3-compatible blob store backend. The bucket is
// expected to have object versioning enabled; hash records are keyed on
// the version IDs the service assigns.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/casetrail/casetrail/pkg/evidence"
)

// Config options for the S3 backend
type Config struct {
	Region          string // AWS region
	Bucket          string // S3 bucket name
	AccessKeyID     string // AWS access key ID
	SecretAccessKey string // AWS secret access key
	Endpoint        string // Optional custom endpoint for S3-compatible services
	UsePathStyle    bool   // Use path-style addressing (default: false)

	// Server-side encryption options
	EnableSSE    bool   // Enable server-side encryption
	SSEAlgorithm string // SSE algorithm (AES256 or aws:kms)
	SSEKMSKeyID  string // Optional KMS key ID for aws:kms algorithm
}

// Backend is an S3-compatible implementation of the evidence.BlobStore
// interface.
type Backend struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	config        Config
}

// New creates a new S3-compatible storage backend. It never creates the
// bucket; a missing bucket surfaces later through BucketExists.
func New(config Config) (*Backend, error) {
	if config.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}

	if config.Region == "" {
		config.Region = "us-east-1"
	}

	var awsCfg aws.Config
	var err error

	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(config.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				config.AccessKeyID,
				config.SecretAccessKey,
				"",
			)),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(config.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Options []func(*s3.Options)

	// Custom endpoint for S3-compatible services (MinIO, etc.)
	if config.Endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(config.Endpoint)
			o.UsePathStyle = config.UsePathStyle
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Options...)

	return &Backend{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        config.Bucket,
		config:        config,
	}, nil
}

// BucketExists reports whether the configured bucket exists.
func (b *Backend) BucketExists(ctx context.Context) error {
	_, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &notFound) || errors.As(err, &noSuchBucket) || hasErrorCode(err, "NotFound", "NoSuchBucket") {
		return &evidence.StoreError{Op: "head_bucket", Key: b.bucket, Err: evidence.ErrBucketNotFound}
	}
	return &evidence.StoreError{Op: "head_bucket", Key: b.bucket, Err: err}
}

// Head retrieves metadata for the current version of an object.
func (b *Backend) Head(ctx context.Context, objectKey string) (*evidence.ObjectMeta, error) {
	result, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) || hasErrorCode(err, "NotFound", "NoSuchKey") {
			return nil, &evidence.StoreError{Op: "head", Key: objectKey, Err: evidence.ErrObjectNotFound}
		}
		return nil, &evidence.StoreError{Op: "head", Key: objectKey, Err: err}
	}

	meta := &evidence.ObjectMeta{
		Key:       objectKey,
		VersionID: aws.ToString(result.VersionId),
		Size:      aws.ToInt64(result.ContentLength),
		ETag:      strings.Trim(aws.ToString(result.ETag), "\""),
	}
	if result.ContentType != nil {
		meta.ContentType = *result.ContentType
	}
	if result.LastModified != nil {
		meta.UpdatedAt = *result.LastModified
	}
	return meta, nil
}

// Put uploads an object and returns the version ID assigned by the store.
func (b *Backend) Put(ctx context.Context, objectKey string, reader io.Reader) (string, error) {
	uploader := manager.NewUploader(b.client)

	input := &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(objectKey),
		Body:   reader,
	}

	if b.config.EnableSSE {
		switch b.config.SSEAlgorithm {
		case "AES256":
			input.ServerSideEncryption = types.ServerSideEncryptionAes256
		case "aws:kms":
			input.ServerSideEncryption = types.ServerSideEncryptionAwsKms
			if b.config.SSEKMSKeyID != "" {
				input.SSEKMSKeyId = aws.String(b.config.SSEKMSKeyID)
			}
		}
	}

	result, err := uploader.Upload(ctx, input)
	if err != nil {
		return "", &evidence.StoreError{Op: "put", Key: objectKey, Err: err}
	}
	return aws.ToString(result.VersionID), nil
}

// Get opens an object for reading and reports the version returned.
func (b *Backend) Get(ctx context.Context, objectKey string) (io.ReadCloser, string, error) {
	result, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) || hasErrorCode(err, "NoSuchKey") {
			return nil, "", &evidence.StoreError{Op: "get", Key: objectKey, Err: evidence.ErrObjectNotFound}
		}
		return nil, "", &evidence.StoreError{Op: "get", Key: objectKey, Err: err}
	}
	return result.Body, aws.ToString(result.VersionId), nil
}

// PresignGet returns a presigned download URL valid for ttl.
func (b *Backend) PresignGet(ctx context.Context, objectKey string, ttl time.Duration) (string, error) {
	result, err := b.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(objectKey),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = ttl
	})
	if err != nil {
		return "", &evidence.StoreError{Op: "presign", Key: objectKey, Err: err}
	}
	return result.URL, nil
}

// hasErrorCode matches smithy API error codes; MinIO and some gateways
// report not-found conditions through codes the typed errors miss.
func hasErrorCode(err error, codes ...string) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, code := range codes {
		if apiErr.ErrorCode() == code {
			return true
		}
	}
	return false
}
