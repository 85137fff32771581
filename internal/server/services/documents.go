// Package services contains the document bridge business logic: listing
// and describing stored documents, building signed editor sessions and
// reconciling editor callbacks back into the blob store.
package services

import (
	"context"
	"fmt"
	"regexp"

	"github.com/dmitrijs2005/officebridge/internal/common"
	"github.com/dmitrijs2005/officebridge/internal/server/models"
	"github.com/dmitrijs2005/officebridge/internal/server/storage"
)

// versionSuffix matches historical snapshots such as report_v3.docx.
var versionSuffix = regexp.MustCompile(`_v\d+\.[^.]+$`)

// IsVersionSnapshot reports whether name carries a _v<N>.<ext> suffix.
func IsVersionSnapshot(name string) bool {
	return versionSuffix.MatchString(name)
}

type DocumentService struct {
	store storage.BlobStore
}

func NewDocumentService(store storage.BlobStore) *DocumentService {
	return &DocumentService{store: store}
}

// ListDocuments returns every current document in store order, leaving out
// version snapshots. A failed enumeration returns no partial result.
func (s *DocumentService) ListDocuments(ctx context.Context) ([]models.Metadata, error) {
	all, err := s.store.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	out := make([]models.Metadata, 0, len(all))
	for _, md := range all {
		if IsVersionSnapshot(md.Name) {
			continue
		}
		out = append(out, md)
	}
	return out, nil
}

// GetDocument returns the properties of name, or common.ErrNotFound.
func (s *DocumentService) GetDocument(ctx context.Context, name string) (*models.Metadata, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty document name", common.ErrValidation)
	}

	ok, err := s.store.Exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrNotFound, name)
	}

	return s.store.GetProperties(ctx, name)
}
