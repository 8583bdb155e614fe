package azure

import (
	"bytes"
	"context"
	"fmt"
	"sync"
)

// MockBlobStorageClient is an in-memory BlobStorage for tests and for
// running without Azure credentials. Stored bytes are cloned on both
// paths so callers cannot mutate each other's data.
type MockBlobStorageClient struct {
	mu      sync.RWMutex
	storage map[string][]byte
}

// NewMockBlobStorageClient creates an empty in-memory blob store
func NewMockBlobStorageClient() *MockBlobStorageClient {
	return &MockBlobStorageClient{
		storage: make(map[string][]byte),
	}
}

// UploadReport stores a report under the same blob naming scheme as the
// real client
func (c *MockBlobStorageClient) UploadReport(ctx context.Context, filename string, data []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	blobName := fmt.Sprintf("reports/%s", filename)
	c.storage[blobName] = bytes.Clone(data)

	return blobName, nil
}

// DownloadReport retrieves a stored report
func (c *MockBlobStorageClient) DownloadReport(ctx context.Context, blobName string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, exists := c.storage[blobName]
	if !exists {
		return nil, fmt.Errorf("blob not found: %s", blobName)
	}

	return bytes.Clone(data), nil
}

// Clear drops all stored blobs
func (c *MockBlobStorageClient) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.storage = make(map[string][]byte)
}

// ListBlobs returns all stored blob names
func (c *MockBlobStorageClient) ListBlobs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	blobs := make([]string, 0, len(c.storage))
	for name := range c.storage {
		blobs = append(blobs, name)
	}

	return blobs
}

var _ BlobStorage = (*MockBlobStorageClient)(nil)
