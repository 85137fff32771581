package storage

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/officebridge/internal/server/config"
)

// NewFromConfig creates the BlobStore selected by cfg.StorageBackend.
func NewFromConfig(ctx context.Context, cfg *config.Config) (BlobStore, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return NewMemoryStore(cfg.Container), nil
	case config.BackendAzure:
		s, err := NewAzureStore(AzureConfig{
			ConnectionString: cfg.AzureConnectionString,
			AccountName:      cfg.AzureAccountName,
			AccountKey:       cfg.AzureAccountKey,
			ServiceURL:       cfg.AzureServiceURL,
			Container:        cfg.Container,
		}, nil)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendS3:
		s, err := NewS3Store(ctx, S3Config{
			User:         cfg.S3RootUser,
			Password:     cfg.S3RootPassword,
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.StorageBackend)
	}
}
