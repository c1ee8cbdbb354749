// Package blobs moves model artifacts between the local filesystem and
// blob storage (Google Cloud Storage, plain directories, HTTP servers).
package blobs

import "context"

// BlobReader fetches objects by key.
type BlobReader interface {
	// If no such object exists, Download should return an error for which errors.Is(err, os.ErrNotExist) is true.
	Download(ctx context.Context, key string, destPath string) error
}

// Blobstore is a BlobReader that also accepts uploads.
type Blobstore interface {
	BlobReader
	// Upload copies the file at sourcePath to the object key.
	// If the object already exists, Upload should do nothing and return no error.
	Upload(ctx context.Context, sourcePath string, key string) error
}
