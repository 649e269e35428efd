package storage

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// BlobUploader mirrors downloaded images into remote blob storage.
type BlobUploader interface {
	Upload(ctx context.Context, blobName string, data []byte) error
}

type azureStorage struct {
	client    *azblob.Client
	container string
}

// NewAzureStorage creates a blob uploader backed by an Azure storage account.
func NewAzureStorage(accountName, accountKey, container string) (BlobUploader, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, err
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, err
	}

	return &azureStorage{client: client, container: container}, nil
}

func (s *azureStorage) Upload(ctx context.Context, blobName string, data []byte) error {
	_, err := s.client.UploadBuffer(ctx, s.container, blobName, data, nil)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	return nil
}
