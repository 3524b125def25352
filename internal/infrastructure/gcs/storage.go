// Package gcs adapts Google Cloud Storage to the application's ObjectStorage
// contract.
package gcs

import (
	"context"
	"io"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/inkstone-app/inkstone/pkg/helpers"
)

// Storage uploads and deletes objects in a single bucket.
type Storage struct {
	client *storage.Client
	bucket string
}

func NewStorage(client *storage.Client, bucket string) *Storage {
	return &Storage{client: client, bucket: bucket}
}

// Upload writes the object and returns its public URL.
func (s *Storage) Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	return helpers.UploadObject(ctx, s.client, s.bucket, objectPath, contentType, r)
}

// Delete removes the object; missing objects are ignored.
func (s *Storage) Delete(ctx context.Context, objectPath string) error {
	return helpers.DeleteObject(ctx, s.client, s.bucket, objectPath)
}

// ObjectPathFromURL reverses PublicURL for objects in this bucket. It returns
// "" for URLs that point elsewhere.
func (s *Storage) ObjectPathFromURL(url string) string {
	prefix := helpers.PublicURL(s.bucket, "")
	if !strings.HasPrefix(url, prefix) {
		return ""
	}
	return strings.TrimPrefix(url, prefix)
}
