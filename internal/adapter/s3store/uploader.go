package s3store

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/couchcryptid/sounding-etl/internal/config"
	"github.com/couchcryptid/sounding-etl/internal/domain"
)

// S3Client defines the S3 operations the uploader needs.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader copies rendered sounding files to an S3 bucket under
// <prefix>/<station folder>/<file name>, mirroring the local layout.
// It implements pipeline.Publisher.
type Uploader struct {
	client S3Client
	bucket string
	prefix string
	logger *slog.Logger
}

// NewUploader loads AWS credentials from the default chain and returns an
// Uploader for the configured bucket.
func NewUploader(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Uploader, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Uploader{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.S3Bucket,
		prefix: cfg.S3Prefix,
		logger: logger,
	}, nil
}

// Name identifies the sink in logs and metrics.
func (u *Uploader) Name() string { return "s3" }

// Key returns the object key for s.
func (u *Uploader) Key(s domain.Sounding) string {
	return path.Join(u.prefix, s.FolderName(), s.Request.FileName())
}

// Publish uploads the rendered file content, replacing any existing object.
func (u *Uploader) Publish(ctx context.Context, s domain.Sounding, content []byte) error {
	if u.bucket == "" {
		return fmt.Errorf("empty bucket name")
	}

	key := u.Key(s)
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("upload s3://%s/%s: %w", u.bucket, key, err)
	}

	u.logger.Debug("uploaded sounding", "bucket", u.bucket, "key", key)
	return nil
}
