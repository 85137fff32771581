package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/officebridge/internal/common"
	"github.com/dmitrijs2005/officebridge/internal/server/auth"
	"github.com/dmitrijs2005/officebridge/internal/server/config"
	"github.com/dmitrijs2005/officebridge/internal/server/models"
	"github.com/dmitrijs2005/officebridge/internal/server/storage"
)

// SessionService builds signed editor sessions for stored documents.
type SessionService struct {
	store     storage.BlobStore
	jwtSecret []byte
	ttl       time.Duration
	baseURL   string
	now       func() time.Time
}

func NewSessionService(store storage.BlobStore, cfg *config.Config) *SessionService {
	return &SessionService{
		store:     store,
		jwtSecret: []byte(cfg.JWTSecret),
		ttl:       cfg.SessionTTL,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		now:       time.Now,
	}
}

// CallbackURL is where the editor posts status updates for name.
func (s *SessionService) CallbackURL(name string) string {
	return s.baseURL + "/documents/" + url.PathEscape(name)
}

// BuildSession returns the signed editor descriptor for name. It reads the
// store but never writes to it.
func (s *SessionService) BuildSession(ctx context.Context, name string) (*models.Session, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty document name", common.ErrValidation)
	}

	if _, err := s.store.GetProperties(ctx, name); err != nil {
		return nil, err
	}

	now := s.now()

	signed, err := s.store.SignedReadURL(ctx, name, s.ttl)
	if err != nil {
		return nil, err
	}
	docURL := withCacheBuster(signed, now)

	rc, err := s.store.Download(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	key, err := DocumentKeyFrom(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", common.ErrUpstream, name, err)
	}

	fileType := FileType(name)
	cfg := models.SessionConfig{
		Document: models.SessionDocument{
			Title:    name,
			URL:      docURL,
			FileType: fileType,
			Key:      key,
		},
		DocumentType: DocumentTypeFor(fileType),
		EditorConfig: models.EditorConfig{
			Mode:        ModeFor(fileType),
			CallbackURL: s.CallbackURL(name),
			Customization: models.Customization{
				Autosave: true,
				Chat:     true,
				Feedback: true,
				Comments: true,
			},
		},
	}

	token, err := auth.SignSession(cfg, s.jwtSecret, now, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("%w: sign session: %w", common.ErrUpstream, err)
	}

	return &models.Session{SessionConfig: cfg, Token: token}, nil
}

// withCacheBuster appends ts=<unix ms> without re-encoding the signed query.
func withCacheBuster(signed string, now time.Time) string {
	sep := "?"
	if strings.Contains(signed, "?") {
		sep = "&"
	}
	return signed + sep + "ts=" + strconv.FormatInt(now.UnixMilli(), 10)
}
