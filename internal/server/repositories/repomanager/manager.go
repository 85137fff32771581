package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/officebridge/internal/dbx"
	"github.com/dmitrijs2005/officebridge/internal/server/repositories/callbacks"
)

// RepositoryManager vends repositories bound to a DBTX and owns the schema.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Callbacks(db dbx.DBTX) callbacks.Repository
}
