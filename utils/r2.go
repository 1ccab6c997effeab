// utils/r2.go
package utils

import (
	"bytes"
	"context"
	"fmt"

	"scholar-tracker/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gosimple/unidecode"
)

// ObjectPutter is the part of the S3 client the uploader needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ReportUploader stores rendered reports in an S3 compatible bucket (AWS S3 or Cloudflare R2).
type ReportUploader struct {
	client ObjectPutter
	bucket string
}

func NewReportUploader(client ObjectPutter, bucket string) *ReportUploader {
	return &ReportUploader{client: client, bucket: bucket}
}

// NewS3ReportUploader builds the S3 client from the export settings. Static
// credentials are used when both keys are set, the default AWS chain otherwise.
func NewS3ReportUploader(ctx context.Context, cfg config.ExportConfig) (*ReportUploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("EXPORT_BUCKET is not set")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewReportUploader(client, cfg.Bucket), nil
}

// Upload puts a CSV report under key and returns its s3:// location. label
// is stored as object metadata, transliterated since metadata must be ASCII.
func (u *ReportUploader) Upload(ctx context.Context, key, label string, data []byte) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/csv"),
	}
	if label != "" {
		input.Metadata = map[string]string{"scholar": unidecode.Unidecode(label)}
	}

	_, err := u.client.PutObject(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to upload report to %s: %w", u.bucket, err)
	}
	return fmt.Sprintf("s3://%s/%s", u.bucket, key), nil
}
