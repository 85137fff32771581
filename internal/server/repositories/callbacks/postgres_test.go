package callbacks

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/officebridge/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const insertQ = `(?s)^INSERT\s+INTO\s+callbacks\s*\(id,\s*document_name,\s*doc_key,\s*status,\s*outcome,\s*error,\s*users,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6,\s*\$7,\s*\$8\)\s*$`

const selectQ = `(?s)^SELECT\s+id,\s*document_name,\s*doc_key,\s*status,\s*outcome,\s*error,\s*users,\s*created_at\s+FROM\s+callbacks\s+WHERE\s+document_name\s*=\s*\$1\s+ORDER\s+BY\s+created_at\s+DESC\s+LIMIT\s+\$2\s*$`

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := &models.CallbackRecord{
		ID:           "11111111-1111-1111-1111-111111111111",
		DocumentName: "a.docx",
		Key:          "k1",
		Status:       2,
		Outcome:      models.OutcomeSaved,
		Users:        []string{"u1"},
		CreatedAt:    created,
	}

	mock.ExpectExec(insertQ).
		WithArgs(rec.ID, "a.docx", "k1", 2, "saved", "", `["u1"]`, created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_FillsIDAndTime(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQ).
		WithArgs(sqlmock.AnyArg(), "a.docx", "k1", 4, "ignored", "", `[]`, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := &models.CallbackRecord{DocumentName: "a.docx", Key: "k1", Status: 4, Outcome: models.OutcomeIgnored}
	require.NoError(t, repo.Create(context.Background(), rec))

	assert.Len(t, rec.ID, 36)
	assert.False(t, rec.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQ).WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &models.CallbackRecord{DocumentName: "a.docx"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestListByDocument_Rows(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	t1 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)

	rows := sqlmock.NewRows([]string{"id", "document_name", "doc_key", "status", "outcome", "error", "users", "created_at"}).
		AddRow("id2", "a.docx", "k2", 2, "failed", "failed to download file: 404 Not Found", []byte(`[]`), t2).
		AddRow("id1", "a.docx", "k1", 1, "ignored", "", []byte(`["u1","u2"]`), t1)

	mock.ExpectQuery(selectQ).WithArgs("a.docx", 10).WillReturnRows(rows)

	got, err := repo.ListByDocument(context.Background(), "a.docx", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "id2", got[0].ID)
	assert.Equal(t, models.OutcomeFailed, got[0].Outcome)
	assert.Equal(t, "failed to download file: 404 Not Found", got[0].Error)
	assert.Empty(t, got[0].Users)
	assert.Equal(t, []string{"u1", "u2"}, got[1].Users)
	assert.Equal(t, t1, got[1].CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByDocument_DefaultLimitAndEmpty(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectQ).WithArgs("none.docx", DefaultListLimit).
		WillReturnRows(sqlmock.NewRows([]string{"id", "document_name", "doc_key", "status", "outcome", "error", "users", "created_at"}))

	got, err := repo.ListByDocument(context.Background(), "none.docx", 0)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListByDocument_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectQ).WithArgs("a.docx", 5).WillReturnError(errors.New("db err"))

	_, err := repo.ListByDocument(context.Background(), "a.docx", 5)
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestListByDocument_BadUsersJSON(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "document_name", "doc_key", "status", "outcome", "error", "users", "created_at"}).
		AddRow("id1", "a.docx", "k1", 1, "ignored", "", []byte(`{not json`), time.Now())
	mock.ExpectQuery(selectQ).WithArgs("a.docx", 5).WillReturnRows(rows)

	_, err := repo.ListByDocument(context.Background(), "a.docx", 5)
	require.ErrorContains(t, err, "decode users")
}
