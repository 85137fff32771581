package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/officebridge/internal/dbx"
	"github.com/dmitrijs2005/officebridge/internal/server/repositories/callbacks"
)

// InMemoryRepositoryManager serves the same in-memory repositories for
// every DBTX, including nil. Used when no database is configured.
type InMemoryRepositoryManager struct {
	callbacks *callbacks.MemoryRepository
}

func NewInMemoryRepositoryManager() RepositoryManager {
	return &InMemoryRepositoryManager{callbacks: callbacks.NewMemoryRepository()}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *InMemoryRepositoryManager) Callbacks(dbx.DBTX) callbacks.Repository {
	return m.callbacks
}
