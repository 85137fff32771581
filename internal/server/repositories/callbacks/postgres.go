package callbacks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/officebridge/internal/dbx"
	"github.com/dmitrijs2005/officebridge/internal/server/models"
	"github.com/google/uuid"
)

// PostgresRepository stores records in the callbacks table over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, rec *models.CallbackRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	users, err := json.Marshal(nonNil(rec.Users))
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}

	query := `
		INSERT INTO callbacks (id, document_name, doc_key, status, outcome, error, users, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.DocumentName, rec.Key, rec.Status, string(rec.Outcome), rec.Error, string(users), rec.CreatedAt,
	); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByDocument(ctx context.Context, name string, limit int) ([]models.CallbackRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `
		SELECT id, document_name, doc_key, status, outcome, error, users, created_at
		FROM callbacks
		WHERE document_name = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, name, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make([]models.CallbackRecord, 0)
	for rows.Next() {
		var (
			rec     models.CallbackRecord
			outcome string
			users   []byte
		)
		if err := rows.Scan(&rec.ID, &rec.DocumentName, &rec.Key, &rec.Status, &outcome, &rec.Error, &users, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		rec.Outcome = models.CallbackOutcome(outcome)
		if len(users) > 0 {
			if err := json.Unmarshal(users, &rec.Users); err != nil {
				return nil, fmt.Errorf("decode users: %w", err)
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
