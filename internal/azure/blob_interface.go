package azure

import (
	"context"
)

// BlobStorage defines the interface for report blob storage operations
// This interface allows for easier testing with mock implementations
type BlobStorage interface {
	UploadReport(ctx context.Context, filename string, data []byte) (string, error)
	DownloadReport(ctx context.Context, blobName string) ([]byte, error)
}

// Ensure BlobStorageClient implements BlobStorage interface
var _ BlobStorage = (*BlobStorageClient)(nil)
