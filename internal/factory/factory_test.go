package factory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go-news-inspector/internal/config"
	apperrors "go-news-inspector/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateStorage_MissingCredentialsSurfacePerCall(t *testing.T) {
	tests := []struct {
		name     string
		provider StorageType
		cfg      config.StorageConfig
		missing  []string
	}{
		{
			name:     "azure without key",
			provider: AzureStorage,
			cfg:      config.StorageConfig{Azure: config.AzureConfig{AccountName: "acct", Container: "images"}},
			missing:  []string{"AZURE_STORAGE_KEY"},
		},
		{
			name:     "s3 empty",
			provider: S3Storage,
			missing:  []string{"S3_BUCKET", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY"},
		},
		{
			name:     "gcs without credentials",
			provider: GCSStorage,
			cfg:      config.StorageConfig{GCS: config.GCSConfig{Bucket: "news"}},
			missing:  []string{"GCS_PROJECT_ID", "GOOGLE_APPLICATION_CREDENTIALS"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw, err := NewStorageFactory(tt.cfg).CreateStorage(context.Background(), tt.provider)
			require.NoError(t, err)
			assert.Equal(t, tt.missing, gw.MissingSettings())

			_, err = gw.Store(context.Background(), []byte("\x89PNG\r\n\x1a\n"), "headline")
			require.Error(t, err)
			assert.True(t, apperrors.IsKind(err, apperrors.KindConfigMissing))
		})
	}
}

func TestCreateStorage_Configured(t *testing.T) {
	cfg := config.StorageConfig{
		Folder: "articles",
		S3: config.S3Config{
			AccessKeyID:     "AKIDEXAMPLE",
			SecretAccessKey: "secret",
			Bucket:          "news",
			Region:          "eu-west-1",
			Endpoint:        "http://127.0.0.1:9000",
		},
		GCS: config.GCSConfig{Bucket: "news", Endpoint: "http://127.0.0.1:4443/storage/v1/"},
	}

	for _, provider := range []StorageType{S3Storage, GCSStorage} {
		gw, err := NewStorageFactory(cfg).CreateStorage(context.Background(), provider)
		require.NoError(t, err, "provider %s", provider)
		assert.Empty(t, gw.MissingSettings(), "provider %s", provider)
	}
}

func TestCreateStorage_BadAzureKeyFails(t *testing.T) {
	cfg := config.StorageConfig{Azure: config.AzureConfig{
		AccountName: "acct",
		AccountKey:  "%%% not base64 %%%",
		Container:   "images",
	}}

	_, err := NewStorageFactory(cfg).CreateStorage(context.Background(), AzureStorage)
	assert.Error(t, err)
}

func TestCreateStorage_UnknownType(t *testing.T) {
	_, err := NewStorageFactory(config.StorageConfig{}).CreateStorage(context.Background(), "ftp")
	assert.Error(t, err)
	assert.Nil(t, Requirements(config.StorageConfig{}, "ftp"))
}

func TestRequirements_GCSEmulatorSkipsCredentials(t *testing.T) {
	reqs := Requirements(config.StorageConfig{GCS: config.GCSConfig{Bucket: "b", Endpoint: "http://localhost:4443"}}, GCSStorage)
	require.Len(t, reqs, 1)
	assert.Equal(t, "GCS_BUCKET", reqs[0].Setting)
}

func TestCreateStorage_UploadsAreNotRetried(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := config.StorageConfig{
		Folder: "articles",
		Azure: config.AzureConfig{
			AccountName: "acct",
			AccountKey:  "c2VjcmV0LWtleQ==",
			Container:   "images",
			ServiceURL:  server.URL + "/acct/",
		},
		S3: config.S3Config{
			AccessKeyID:     "AKIDEXAMPLE",
			SecretAccessKey: "secret",
			Bucket:          "news",
			Region:          "eu-west-1",
			Endpoint:        server.URL,
		},
		GCS: config.GCSConfig{Bucket: "news", Endpoint: server.URL + "/storage/v1/"},
	}

	for _, provider := range []StorageType{AzureStorage, S3Storage, GCSStorage} {
		t.Run(string(provider), func(t *testing.T) {
			hits.Store(0)
			gw, err := NewStorageFactory(cfg).CreateStorage(context.Background(), provider)
			require.NoError(t, err)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			start := time.Now()
			_, err = gw.Store(ctx, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), "headline")

			require.Error(t, err)
			assert.Equal(t, int32(1), hits.Load(), "one upload, one request")
			assert.Less(t, time.Since(start), 2*time.Second)
		})
	}
}
