// Package storage adapts blob stores (Azure Blob Storage, S3-compatible
// object storage, or process memory) to the operations the document
// services need.
//
// Every implementation reports a missing document as common.ErrNotFound and
// any other backend failure wrapped in common.ErrUpstream.
package storage

import (
	"context"
	"io"
	"time"

	"github.com/dmitrijs2005/officebridge/internal/server/models"
)

// UploadOptions are the HTTP content headers stored with an upload.
type UploadOptions struct {
	ContentType  string
	CacheControl string
}

// BlobStore is a flat namespace of named documents.
type BlobStore interface {
	Exists(ctx context.Context, name string) (bool, error)
	GetProperties(ctx context.Context, name string) (*models.Metadata, error)
	// Download streams the current bytes; the caller closes the reader.
	Download(ctx context.Context, name string) (io.ReadCloser, error)
	// Upload creates or overwrites name.
	Upload(ctx context.Context, name string, data []byte, opts UploadOptions) error
	// List returns every entry whose name starts with prefix, in store order.
	List(ctx context.Context, prefix string) ([]models.Metadata, error)
	// SignedReadURL returns a URL granting read access to name for ttl.
	SignedReadURL(ctx context.Context, name string, ttl time.Duration) (string, error)
}
