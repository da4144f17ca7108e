package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	apperrors "go-news-inspector/internal/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Options configures the S3 uploader
type S3Options struct {
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Region          string
	// Endpoint targets an S3-compatible service and switches to path-style addressing
	Endpoint string
	// PublicBaseURL, when set, prefixes object keys in returned URLs
	PublicBaseURL string
}

type s3Storage struct {
	client *s3.Client
	opts   S3Options
}

// NewS3Storage creates an S3 uploader with static credentials
func NewS3Storage(ctx context.Context, opts S3Options) (Uploader, error) {
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
		// a rate-limited upload goes straight back to the caller
		o.RetryMaxAttempts = 1
	})

	return &s3Storage{client: client, opts: opts}, nil
}

func (s *s3Storage) Provider() string {
	return "s3"
}

func (s *s3Storage) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.opts.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", s3Error(err)
	}
	return s.objectURL(key)
}

func (s *s3Storage) objectURL(key string) (string, error) {
	switch {
	case s.opts.PublicBaseURL != "":
		return url.JoinPath(s.opts.PublicBaseURL, key)
	case s.opts.Endpoint != "":
		return url.JoinPath(s.opts.Endpoint, s.opts.Bucket, key)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.opts.Bucket, s.opts.Region, strings.TrimPrefix(key, "/")), nil
	}
}

// s3Error surfaces the HTTP status of a failed S3 call
func s3Error(err error) error {
	var withStatus interface{ HTTPStatusCode() int }
	if errors.As(err, &withStatus) {
		return fmt.Errorf("s3 upload: %w", apperrors.NewStatusError(withStatus.HTTPStatusCode(), []byte(err.Error())))
	}
	return fmt.Errorf("s3 upload: %w", err)
}
