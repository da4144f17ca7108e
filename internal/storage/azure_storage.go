package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	apperrors "go-news-inspector/internal/errors"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
)

type azureStorage struct {
	client    *azblob.Client
	container string
}

// NewAzureStorage creates a shared-key blob uploader. serviceURL may be
// empty to use the account's public endpoint.
func NewAzureStorage(serviceURL, accountName, accountKey, container string) (Uploader, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("azure shared key credential: %w", err)
	}

	if serviceURL == "" {
		serviceURL = fmt.Sprintf("https://%s.blob.core.windows.net/", accountName)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, credential, &azblob.ClientOptions{
		ClientOptions: azcore.ClientOptions{Retry: policy.RetryOptions{MaxRetries: -1}},
	})
	if err != nil {
		return nil, fmt.Errorf("azure blob client: %w", err)
	}

	return &azureStorage{client: client, container: container}, nil
}

func (s *azureStorage) Provider() string {
	return "azure"
}

func (s *azureStorage) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.UploadBuffer(ctx, s.container, key, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return "", azureError(err)
	}

	return url.JoinPath(s.client.URL(), s.container, key)
}

// azureError surfaces the HTTP status of a failed blob call
func azureError(err error) error {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return fmt.Errorf("azure upload: %w", apperrors.NewStatusError(respErr.StatusCode, []byte(respErr.ErrorCode)))
	}
	return fmt.Errorf("azure upload: %w", err)
}
