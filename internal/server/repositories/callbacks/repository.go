// Package callbacks persists the journal of editor callbacks: one record
// per callback invocation, with what the reconciler did about it.
package callbacks

import (
	"context"

	"github.com/dmitrijs2005/officebridge/internal/server/models"
)

// DefaultListLimit caps ListByDocument when the caller passes limit <= 0.
const DefaultListLimit = 50

type Repository interface {
	// Create appends r. An empty ID or zero CreatedAt is filled in.
	Create(ctx context.Context, r *models.CallbackRecord) error
	// ListByDocument returns the newest records for name first.
	ListByDocument(ctx context.Context, name string, limit int) ([]models.CallbackRecord, error)
}
