package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/officebridge/internal/common"
	"github.com/dmitrijs2005/officebridge/internal/dbx"
	"github.com/dmitrijs2005/officebridge/internal/server/config"
	"github.com/dmitrijs2005/officebridge/internal/server/models"
	"github.com/dmitrijs2005/officebridge/internal/server/repositories/callbacks"
	"github.com/dmitrijs2005/officebridge/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/officebridge/internal/server/storage"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type callbackFixture struct {
	store   *faultyStore
	manager repomanager.RepositoryManager
	svc     *CallbackService
	editor  *httptest.Server
	hits    *atomic.Int32
}

// newCallbackFixture starts an editor stand-in that serves "edited" at
// /ok, 404 at /gone and a large body at /big.
func newCallbackFixture(t *testing.T, tweak func(*config.Config)) *callbackFixture {
	t.Helper()

	hits := &atomic.Int32{}
	editor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/ok":
			_, _ = io.WriteString(w, "edited")
		case "/big":
			_, _ = w.Write(make([]byte, 64))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(editor.Close)

	cfg := testConfig()
	cfg.DownloadTimeout = 5 * time.Second
	if tweak != nil {
		tweak(cfg)
	}

	st := newFaultyStore()
	st.Put("a.docx", []byte("original"), nil, storage.UploadOptions{})
	m := repomanager.NewInMemoryRepositoryManager()

	return &callbackFixture{
		store:   st,
		manager: m,
		svc:     NewCallbackService(st, nil, m, editor.Client(), cfg),
		editor:  editor,
		hits:    hits,
	}
}

func status(s models.CallbackStatus) *models.CallbackStatus { return &s }

func (f *callbackFixture) content(t *testing.T, name string) string {
	t.Helper()
	rc, err := f.store.Download(context.Background(), name)
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(b)
}

func (f *callbackFixture) journal(t *testing.T, name string) []models.CallbackRecord {
	t.Helper()
	recs, err := f.manager.Callbacks(nil).ListByDocument(context.Background(), name, callbacks.DefaultListLimit)
	require.NoError(t, err)
	return recs
}

func TestHandleCallback_SaveStatusesWriteBack(t *testing.T) {
	for _, st := range []models.CallbackStatus{models.StatusMustSave, models.StatusMustForceSave} {
		f := newCallbackFixture(t, nil)
		ev := &models.CallbackEvent{Key: "k1", Status: status(st), URL: f.editor.URL + "/ok", Users: []string{"u1"}}

		outcome, err := f.svc.HandleCallback(context.Background(), "a.docx", ev, "")
		require.NoError(t, err)
		assert.Equal(t, models.OutcomeSaved, outcome)
		assert.Equal(t, "edited", f.content(t, "a.docx"))

		md, err := f.store.GetProperties(context.Background(), "a.docx")
		require.NoError(t, err)
		assert.Equal(t, common.SavedContentType, md.Properties.ContentType)
		assert.Equal(t, common.SavedCacheControl, md.Properties.CacheControl)

		recs := f.journal(t, "a.docx")
		require.Len(t, recs, 1)
		assert.Equal(t, models.OutcomeSaved, recs[0].Outcome)
		assert.Equal(t, int(st), recs[0].Status)
		assert.Equal(t, "k1", recs[0].Key)
		assert.Equal(t, []string{"u1"}, recs[0].Users)
	}
}

func TestHandleCallback_NonSaveStatusesIgnored(t *testing.T) {
	for _, st := range []models.CallbackStatus{
		models.StatusKeyNotFound, models.StatusEditing, models.StatusCorrupted,
		models.StatusClosed, models.StatusForceSaveError,
	} {
		f := newCallbackFixture(t, nil)
		ev := &models.CallbackEvent{Key: "k1", Status: status(st), URL: f.editor.URL + "/ok"}

		outcome, err := f.svc.HandleCallback(context.Background(), "a.docx", ev, "")
		require.NoError(t, err)
		assert.Equal(t, models.OutcomeIgnored, outcome)
		assert.Equal(t, "original", f.content(t, "a.docx"))
		assert.Zero(t, f.hits.Load())
		assert.Zero(t, f.store.uploads)
	}
}

func TestHandleCallback_SaveWithoutURLIgnored(t *testing.T) {
	f := newCallbackFixture(t, nil)

	outcome, err := f.svc.HandleCallback(context.Background(), "a.docx",
		&models.CallbackEvent{Key: "k1", Status: status(models.StatusMustSave)}, "")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeIgnored, outcome)
	assert.Zero(t, f.store.uploads)
}

func TestHandleCallback_DownloadFailureLeavesBlob(t *testing.T) {
	f := newCallbackFixture(t, nil)

	outcome, err := f.svc.HandleCallback(context.Background(), "a.docx",
		&models.CallbackEvent{Key: "k1", Status: status(models.StatusMustSave), URL: f.editor.URL + "/gone"}, "")
	require.ErrorIs(t, err, common.ErrDownload)
	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, models.OutcomeFailed, outcome)
	assert.Zero(t, f.store.uploads)
	assert.Equal(t, "original", f.content(t, "a.docx"))

	recs := f.journal(t, "a.docx")
	require.Len(t, recs, 1)
	assert.Equal(t, models.OutcomeFailed, recs[0].Outcome)
	assert.Contains(t, recs[0].Error, "failed to download file")
}

func TestHandleCallback_BodyOverLimit(t *testing.T) {
	f := newCallbackFixture(t, func(c *config.Config) { c.MaxDownloadBytes = 16 })

	outcome, err := f.svc.HandleCallback(context.Background(), "a.docx",
		&models.CallbackEvent{Key: "k1", Status: status(models.StatusMustSave), URL: f.editor.URL + "/big"}, "")
	require.ErrorIs(t, err, common.ErrDownload)
	assert.Equal(t, models.OutcomeFailed, outcome)
	assert.Zero(t, f.store.uploads)
}

func TestHandleCallback_UploadFailure(t *testing.T) {
	f := newCallbackFixture(t, nil)
	f.store.uploadErr = common.ErrUpstream

	outcome, err := f.svc.HandleCallback(context.Background(), "a.docx",
		&models.CallbackEvent{Key: "k1", Status: status(models.StatusMustSave), URL: f.editor.URL + "/ok"}, "")
	require.ErrorIs(t, err, common.ErrUpstream)
	assert.Equal(t, models.OutcomeFailed, outcome)
	assert.Equal(t, 1, f.store.uploads)
}

func TestHandleCallback_CreatesMissingDocument(t *testing.T) {
	f := newCallbackFixture(t, nil)

	_, err := f.svc.HandleCallback(context.Background(), "new.docx",
		&models.CallbackEvent{Key: "k1", Status: status(models.StatusMustSave), URL: f.editor.URL + "/ok"}, "")
	require.NoError(t, err)
	assert.Equal(t, "edited", f.content(t, "new.docx"))
}

func TestHandleCallback_Rejected(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		ev   *models.CallbackEvent
	}{
		{"nil event", "a.docx", nil},
		{"empty name", "", &models.CallbackEvent{Key: "k", Status: status(models.StatusMustSave)}},
		{"missing key", "a.docx", &models.CallbackEvent{Status: status(models.StatusMustSave), URL: "http://x/ok"}},
		{"missing status", "a.docx", &models.CallbackEvent{Key: "k", URL: "http://x/ok"}},
		{"non-http url", "a.docx", &models.CallbackEvent{Key: "k", Status: status(models.StatusMustSave), URL: "file:///etc/passwd"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCallbackFixture(t, nil)

			outcome, err := f.svc.HandleCallback(context.Background(), tt.doc, tt.ev, "")
			require.ErrorIs(t, err, common.ErrValidation)
			assert.True(t, IsClientError(err))
			assert.Equal(t, models.OutcomeRejected, outcome)
			assert.Zero(t, f.store.uploads)
		})
	}
}

func TestHandleCallback_AllowedHosts(t *testing.T) {
	f := newCallbackFixture(t, func(c *config.Config) { c.CallbackAllowedHosts = []string{"docs.example.com"} })

	outcome, err := f.svc.HandleCallback(context.Background(), "a.docx",
		&models.CallbackEvent{Key: "k", Status: status(models.StatusMustSave), URL: f.editor.URL + "/ok"}, "")
	require.ErrorIs(t, err, common.ErrValidation)
	assert.Equal(t, models.OutcomeRejected, outcome)
	assert.Zero(t, f.hits.Load())

	u, err := url.Parse(f.editor.URL)
	require.NoError(t, err)
	f = newCallbackFixture(t, func(c *config.Config) { c.CallbackAllowedHosts = []string{"DOCS.example.com", u.Hostname()} })
	outcome, err = f.svc.HandleCallback(context.Background(), "a.docx",
		&models.CallbackEvent{Key: "k", Status: status(models.StatusMustSave), URL: f.editor.URL + "/ok"}, "")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSaved, outcome)
}

func signCallback(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func TestHandleCallback_VerifiedTokenOverridesBody(t *testing.T) {
	f := newCallbackFixture(t, func(c *config.Config) { c.CallbackVerifyToken = true })

	token := signCallback(t, testSecret, jwt.MapClaims{
		"key":    "signed-key",
		"status": 2,
		"url":    f.editor.URL + "/ok",
	})
	ev := &models.CallbackEvent{Key: "body-key", Status: status(models.StatusEditing), Token: token}

	outcome, err := f.svc.HandleCallback(context.Background(), "a.docx", ev, "")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSaved, outcome)
	assert.Equal(t, "signed-key", ev.Key)
	assert.Equal(t, "edited", f.content(t, "a.docx"))
}

func TestHandleCallback_TokenFromHeaderPayload(t *testing.T) {
	f := newCallbackFixture(t, func(c *config.Config) { c.CallbackVerifyToken = true })

	token := signCallback(t, testSecret, jwt.MapClaims{
		"payload": map[string]any{"key": "k", "status": 1},
	})

	outcome, err := f.svc.HandleCallback(context.Background(), "a.docx",
		&models.CallbackEvent{}, "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeIgnored, outcome)
}

func TestHandleCallback_InvalidTokenRejected(t *testing.T) {
	f := newCallbackFixture(t, func(c *config.Config) { c.CallbackVerifyToken = true })

	for _, tok := range []string{"", "garbage", signCallback(t, "other-secret", jwt.MapClaims{"key": "k", "status": 2})} {
		outcome, err := f.svc.HandleCallback(context.Background(), "a.docx",
			&models.CallbackEvent{Key: "k", Status: status(models.StatusMustSave), URL: f.editor.URL + "/ok", Token: tok}, "")
		require.ErrorIs(t, err, common.ErrInvalidToken)
		assert.True(t, IsClientError(err))
		assert.Equal(t, models.OutcomeRejected, outcome)
	}
	assert.Zero(t, f.store.uploads)
	assert.Len(t, f.journal(t, "a.docx"), 3)
}

type failingRepo struct{}

func (failingRepo) Create(context.Context, *models.CallbackRecord) error { return errors.New("db down") }
func (failingRepo) ListByDocument(context.Context, string, int) ([]models.CallbackRecord, error) {
	return nil, errors.New("db down")
}

type failingManager struct{ repomanager.RepositoryManager }

func (failingManager) Callbacks(dbx.DBTX) callbacks.Repository { return failingRepo{} }

func TestHandleCallback_JournalFailureDoesNotChangeOutcome(t *testing.T) {
	f := newCallbackFixture(t, nil)
	f.svc.repomanager = failingManager{}

	outcome, err := f.svc.HandleCallback(context.Background(), "a.docx",
		&models.CallbackEvent{Key: "k", Status: status(models.StatusMustSave), URL: f.editor.URL + "/ok"}, "")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSaved, outcome)

	_, err = f.svc.History(context.Background(), "a.docx", 10)
	assert.ErrorIs(t, err, common.ErrUpstream)
}

func TestHistory(t *testing.T) {
	f := newCallbackFixture(t, nil)
	for i := 0; i < 3; i++ {
		_, err := f.svc.HandleCallback(context.Background(), "a.docx",
			&models.CallbackEvent{Key: "k", Status: status(models.StatusEditing)}, "")
		require.NoError(t, err)
	}
	_, _ = f.svc.HandleCallback(context.Background(), "b.docx",
		&models.CallbackEvent{Key: "k", Status: status(models.StatusEditing)}, "")

	recs, err := f.svc.History(context.Background(), "a.docx", 2)
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	recs, err = f.svc.History(context.Background(), "a.docx", 0)
	require.NoError(t, err)
	assert.Len(t, recs, 3)

	_, err = f.svc.History(context.Background(), "", 10)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestReject_Journals(t *testing.T) {
	f := newCallbackFixture(t, nil)

	f.svc.Reject(context.Background(), "a.docx", fmt.Errorf("%w: bad body", common.ErrValidation))

	recs := f.journal(t, "a.docx")
	require.Len(t, recs, 1)
	assert.Equal(t, models.OutcomeRejected, recs[0].Outcome)
	assert.Equal(t, "validation error: bad body", recs[0].Error)
	assert.Empty(t, recs[0].Key)
	assert.Zero(t, f.store.uploads)
}
