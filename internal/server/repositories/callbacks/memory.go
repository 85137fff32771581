package callbacks

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/officebridge/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps the journal in process memory; it is lost on
// restart. Safe for concurrent use.
type MemoryRepository struct {
	mu      sync.RWMutex
	records []models.CallbackRecord
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Create(_ context.Context, rec *models.CallbackRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	cp := *rec
	cp.Users = slices.Clone(rec.Users)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, cp)
	return nil
}

func (r *MemoryRepository) ListByDocument(_ context.Context, name string, limit int) ([]models.CallbackRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.CallbackRecord, 0)
	for i := len(r.records) - 1; i >= 0 && len(out) < limit; i-- {
		if r.records[i].DocumentName == name {
			out = append(out, r.records[i])
		}
	}
	return out, nil
}
