package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	apperrors "go-news-inspector/internal/errors"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GCSOptions configures the Cloud Storage uploader
type GCSOptions struct {
	ProjectID       string
	Bucket          string
	CredentialsFile string
	// Endpoint targets an emulator; authentication is skipped when set
	Endpoint      string
	PublicBaseURL string
}

type gcsStorage struct {
	client *storage.Client
	opts   GCSOptions
}

// NewGCSStorage creates a Cloud Storage uploader
func NewGCSStorage(ctx context.Context, opts GCSOptions) (Uploader, error) {
	var clientOpts []option.ClientOption
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint), option.WithoutAuthentication())
	} else {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
		if opts.ProjectID != "" {
			clientOpts = append(clientOpts, option.WithQuotaProject(opts.ProjectID))
		}
	}

	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	return &gcsStorage{client: client, opts: opts}, nil
}

func (s *gcsStorage) Provider() string {
	return "gcs"
}

func (s *gcsStorage) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	object := s.client.Bucket(s.opts.Bucket).Object(key).Retryer(storage.WithPolicy(storage.RetryNever))
	writer := object.NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return "", gcsError(fmt.Errorf("writing object data: %w", err))
	}
	if err := writer.Close(); err != nil {
		return "", gcsError(fmt.Errorf("closing object writer: %w", err))
	}

	attrs := writer.Attrs()
	if attrs == nil || attrs.Name == "" {
		return "", nil
	}

	base := s.opts.PublicBaseURL
	if base == "" {
		base = "https://storage.googleapis.com/" + s.opts.Bucket
	}
	return url.JoinPath(base, attrs.Name)
}

// gcsError surfaces the HTTP status of a failed Cloud Storage call
func gcsError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("gcs upload: %w", apperrors.NewStatusError(apiErr.Code, []byte(apiErr.Message)))
	}
	return fmt.Errorf("gcs upload: %w", err)
}
