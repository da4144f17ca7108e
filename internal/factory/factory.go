package factory

import (
	"context"
	"fmt"

	"go-news-inspector/internal/config"
	"go-news-inspector/internal/logger"
	"go-news-inspector/internal/storage"

	"github.com/sirupsen/logrus"
)

// StorageType represents different types of storage backends
type StorageType string

const (
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
	// S3Storage for Amazon S3 and compatible services
	S3Storage StorageType = "s3"
	// GCSStorage for Google Cloud Storage
	GCSStorage StorageType = "gcs"
)

// StorageFactory creates image store gateways
type StorageFactory interface {
	CreateStorage(ctx context.Context, storageType StorageType) (*storage.Gateway, error)
}

type storageFactory struct {
	cfg config.StorageConfig
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg config.StorageConfig) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateStorage builds a gateway for the given provider. Missing credentials
// do not fail here: the gateway is returned without an uploader and reports
// ConfigMissing on each Store call.
func (f *storageFactory) CreateStorage(ctx context.Context, storageType StorageType) (*storage.Gateway, error) {
	requirements := Requirements(f.cfg, storageType)
	if requirements == nil {
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}

	gateway := func(u storage.Uploader) *storage.Gateway {
		return storage.NewGateway(u, requirements, storage.WithFolder(f.cfg.Folder))
	}

	if missing := gateway(nil).MissingSettings(); len(missing) > 0 {
		logger.WithFields(logrus.Fields{
			"provider": storageType,
			"missing":  missing,
		}).Warn("Image storage is not configured; generated images will not be stored")
		return gateway(nil), nil
	}

	uploader, err := f.newUploader(ctx, storageType)
	if err != nil {
		return nil, fmt.Errorf("creating %s storage: %w", storageType, err)
	}
	return gateway(uploader), nil
}

func (f *storageFactory) newUploader(ctx context.Context, storageType StorageType) (storage.Uploader, error) {
	switch storageType {
	case AzureStorage:
		a := f.cfg.Azure
		return storage.NewAzureStorage(a.ServiceURL, a.AccountName, a.AccountKey, a.Container)
	case S3Storage:
		s := f.cfg.S3
		return storage.NewS3Storage(ctx, storage.S3Options{
			AccessKeyID:     s.AccessKeyID,
			SecretAccessKey: s.SecretAccessKey,
			Bucket:          s.Bucket,
			Region:          s.Region,
			Endpoint:        s.Endpoint,
			PublicBaseURL:   s.PublicBaseURL,
		})
	case GCSStorage:
		g := f.cfg.GCS
		return storage.NewGCSStorage(ctx, storage.GCSOptions{
			ProjectID:       g.ProjectID,
			Bucket:          g.Bucket,
			CredentialsFile: g.CredentialsFile,
			Endpoint:        g.Endpoint,
			PublicBaseURL:   g.PublicBaseURL,
		})
	}
	return nil, fmt.Errorf("unsupported storage type: %s", storageType)
}

// Requirements lists the settings a provider cannot work without, named by
// their environment variables. Returns nil for an unknown provider.
func Requirements(cfg config.StorageConfig, storageType StorageType) []storage.Requirement {
	switch storageType {
	case AzureStorage:
		return []storage.Requirement{
			{Setting: "AZURE_STORAGE_ACCOUNT", Value: cfg.Azure.AccountName},
			{Setting: "AZURE_STORAGE_KEY", Value: cfg.Azure.AccountKey},
			{Setting: "AZURE_STORAGE_CONTAINER", Value: cfg.Azure.Container},
		}
	case S3Storage:
		return []storage.Requirement{
			{Setting: "S3_BUCKET", Value: cfg.S3.Bucket},
			{Setting: "AWS_ACCESS_KEY_ID", Value: cfg.S3.AccessKeyID},
			{Setting: "AWS_SECRET_ACCESS_KEY", Value: cfg.S3.SecretAccessKey},
		}
	case GCSStorage:
		// an emulator endpoint runs unauthenticated and needs only the bucket
		if cfg.GCS.Endpoint != "" {
			return []storage.Requirement{{Setting: "GCS_BUCKET", Value: cfg.GCS.Bucket}}
		}
		return []storage.Requirement{
			{Setting: "GCS_PROJECT_ID", Value: cfg.GCS.ProjectID},
			{Setting: "GCS_BUCKET", Value: cfg.GCS.Bucket},
			{Setting: "GOOGLE_APPLICATION_CREDENTIALS", Value: cfg.GCS.CredentialsFile},
		}
	}
	return nil
}
