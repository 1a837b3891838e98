package verification

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3ImageStore stores document and selfie images in an S3 compatible bucket.
type S3ImageStore struct {
	client   *s3.S3
	bucket   string
	prefix   string
	region   string
	endpoint string
	log      *slog.Logger
}

// S3Options configures an S3ImageStore.
type S3Options struct {
	Bucket string
	Prefix string
	AWSOptions
}

// NewS3ImageStore creates an S3 session for the configured bucket.
func NewS3ImageStore(opts S3Options, log *slog.Logger) (*S3ImageStore, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("image bucket is required")
	}
	sess, err := opts.newSession(true)
	if err != nil {
		return nil, err
	}
	return &S3ImageStore{
		client:   s3.New(sess),
		bucket:   opts.Bucket,
		prefix:   strings.Trim(opts.Prefix, "/"),
		region:   opts.Region,
		endpoint: strings.TrimSuffix(opts.Endpoint, "/"),
		log:      log,
	}, nil
}

// Put uploads image under key and returns its object URL.
func (s *S3ImageStore) Put(ctx context.Context, key string, image Image) (string, error) {
	objectKey := path.Join(s.prefix, key)
	contentType := image.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(image.Data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		s.log.Error("image upload failed", slog.String("bucket", s.bucket), slog.String("key", objectKey), slog.Any("error", err))
		return "", fmt.Errorf("put object %s: %w", objectKey, err)
	}
	s.log.Debug("image stored", slog.String("bucket", s.bucket), slog.String("key", objectKey), slog.Int("bytes", len(image.Data)))

	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, objectKey), nil
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, objectKey), nil
}
