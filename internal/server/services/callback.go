package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/officebridge/internal/common"
	"github.com/dmitrijs2005/officebridge/internal/logging"
	"github.com/dmitrijs2005/officebridge/internal/netx"
	"github.com/dmitrijs2005/officebridge/internal/server/auth"
	"github.com/dmitrijs2005/officebridge/internal/server/config"
	"github.com/dmitrijs2005/officebridge/internal/server/models"
	"github.com/dmitrijs2005/officebridge/internal/server/repositories/callbacks"
	"github.com/dmitrijs2005/officebridge/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/officebridge/internal/server/storage"
)

// CallbackService reconciles editor callbacks: save statuses carrying a
// URL are fetched and written back over the stored document, everything
// else is acknowledged without side effects. Each invocation is journaled.
type CallbackService struct {
	store           storage.BlobStore
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	client          *http.Client
	jwtSecret       []byte
	verifyToken     bool
	allowedHosts    []string
	downloadTimeout time.Duration
	maxBytes        int64
}

func NewCallbackService(store storage.BlobStore, db *sql.DB, m repomanager.RepositoryManager, client *http.Client, cfg *config.Config) *CallbackService {
	hosts := make([]string, 0, len(cfg.CallbackAllowedHosts))
	for _, h := range cfg.CallbackAllowedHosts {
		hosts = append(hosts, strings.ToLower(h))
	}
	return &CallbackService{
		store:           store,
		db:              db,
		repomanager:     m,
		client:          client,
		jwtSecret:       []byte(cfg.JWTSecret),
		verifyToken:     cfg.CallbackVerifyToken,
		allowedHosts:    hosts,
		downloadTimeout: cfg.DownloadTimeout,
		maxBytes:        cfg.MaxDownloadBytes,
	}
}

// HandleCallback processes one editor callback for name. authHeader is the
// raw Authorization header, consulted when the body carries no token.
// At most one upload happens per call and nothing is retried.
func (s *CallbackService) HandleCallback(ctx context.Context, name string, ev *models.CallbackEvent, authHeader string) (models.CallbackOutcome, error) {
	outcome, err := s.reconcile(ctx, name, ev, authHeader)
	s.journal(ctx, name, ev, outcome, err)
	return outcome, err
}

func (s *CallbackService) reconcile(ctx context.Context, name string, ev *models.CallbackEvent, authHeader string) (models.CallbackOutcome, error) {
	if name == "" {
		return models.OutcomeRejected, fmt.Errorf("%w: empty document name", common.ErrValidation)
	}
	if ev == nil {
		return models.OutcomeRejected, fmt.Errorf("%w: empty callback body", common.ErrValidation)
	}

	if s.verifyToken {
		if err := s.applyToken(ev, authHeader); err != nil {
			return models.OutcomeRejected, err
		}
	}

	if err := validateEvent(ev); err != nil {
		return models.OutcomeRejected, err
	}

	if !ev.Status.IsSave() || ev.URL == "" {
		return models.OutcomeIgnored, nil
	}

	if err := s.checkHost(ev.URL); err != nil {
		return models.OutcomeRejected, err
	}

	dctx := ctx
	if s.downloadTimeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, s.downloadTimeout)
		defer cancel()
	}

	data, err := netx.Download(dctx, s.client, ev.URL, s.maxBytes)
	if err != nil {
		return models.OutcomeFailed, err
	}

	if err := s.store.Upload(ctx, name, data, storage.UploadOptions{
		ContentType:  common.SavedContentType,
		CacheControl: common.SavedCacheControl,
	}); err != nil {
		return models.OutcomeFailed, err
	}

	return models.OutcomeSaved, nil
}

func validateEvent(ev *models.CallbackEvent) error {
	if ev.Key == "" {
		return fmt.Errorf("%w: callback key is required", common.ErrValidation)
	}
	if ev.Status == nil {
		return fmt.Errorf("%w: callback status is required", common.ErrValidation)
	}
	return nil
}

// applyToken verifies the callback JWT and replaces the body with the
// signed payload, so unsigned fields cannot redirect the save.
func (s *CallbackService) applyToken(ev *models.CallbackEvent, authHeader string) error {
	token := ev.Token
	if token == "" {
		token = authHeader
	}

	claims, err := auth.VerifyCallbackToken(token, s.jwtSecret)
	if err != nil {
		return err
	}

	b, err := json.Marshal(claims)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}

	signed := models.CallbackEvent{}
	if err := json.Unmarshal(b, &signed); err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}
	signed.Token = token
	*ev = signed
	return nil
}

func (s *CallbackService) checkHost(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: invalid download url", common.ErrValidation)
	}
	if len(s.allowedHosts) == 0 {
		return nil
	}
	if !slices.Contains(s.allowedHosts, strings.ToLower(u.Hostname())) {
		return fmt.Errorf("%w: download host %q is not allowed", common.ErrValidation, u.Hostname())
	}
	return nil
}

// journal records the invocation. Failures are logged and never change
// the acknowledgment.
func (s *CallbackService) journal(ctx context.Context, name string, ev *models.CallbackEvent, outcome models.CallbackOutcome, cbErr error) {
	rec := &models.CallbackRecord{
		DocumentName: name,
		Outcome:      outcome,
	}
	if ev != nil {
		rec.Key = ev.Key
		rec.Users = ev.Users
		if ev.Status != nil {
			rec.Status = int(*ev.Status)
		}
	}
	if cbErr != nil {
		rec.Error = cbErr.Error()
	}

	if err := s.repomanager.Callbacks(s.db).Create(ctx, rec); err != nil {
		logging.FromContext(ctx).Warn(ctx, "callback journal write failed", "name", name, "error", err)
	}
}

// Reject journals a callback that never reached reconciliation, such as
// one whose body could not be decoded.
func (s *CallbackService) Reject(ctx context.Context, name string, cause error) {
	s.journal(ctx, name, nil, models.OutcomeRejected, cause)
}

// History returns the most recent journal records for name.
func (s *CallbackService) History(ctx context.Context, name string, limit int) ([]models.CallbackRecord, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty document name", common.ErrValidation)
	}
	if limit <= 0 || limit > callbacks.DefaultListLimit {
		limit = callbacks.DefaultListLimit
	}

	recs, err := s.repomanager.Callbacks(s.db).ListByDocument(ctx, name, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrUpstream, err)
	}
	return recs, nil
}

// IsClientError reports whether err stems from the caller's input rather
// than from a dependency.
func IsClientError(err error) bool {
	return errors.Is(err, common.ErrValidation) || errors.Is(err, common.ErrInvalidToken)
}
