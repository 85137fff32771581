// Package api exposes the document bridge over HTTP: the public routes the
// browser widget and the document server call, and an internal listener
// that hands signed editor sessions to trusted callers.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/officebridge/internal/common"
	"github.com/dmitrijs2005/officebridge/internal/server/models"
	"github.com/dmitrijs2005/officebridge/internal/server/services"
)

type Documents interface {
	ListDocuments(ctx context.Context) ([]models.Metadata, error)
	GetDocument(ctx context.Context, name string) (*models.Metadata, error)
}

type Callbacks interface {
	HandleCallback(ctx context.Context, name string, ev *models.CallbackEvent, authHeader string) (models.CallbackOutcome, error)
	Reject(ctx context.Context, name string, cause error)
	History(ctx context.Context, name string, limit int) ([]models.CallbackRecord, error)
}

type Sessions interface {
	BuildSession(ctx context.Context, name string) (*models.Session, error)
}

// NewRouter returns the public routes.
func NewRouter(d Documents, c Callbacks) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", Ping())
	mux.HandleFunc("GET /documents", ListDocuments(d))
	mux.HandleFunc("GET /documents/{name}", GetDocument(d))
	mux.HandleFunc("POST /documents/{name}", Callback(c))
	mux.HandleFunc("GET /documents/{name}/callbacks", CallbackHistory(c))
	return mux
}

// NewInternalRouter returns the routes served on the internal listener only.
func NewInternalRouter(s Sessions) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", Ping())
	mux.HandleFunc("GET /sessions/{name}", GetSession(s))
	return mux
}

type pingResponse struct {
	Status string `json:"status"`
}

func Ping() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		newHelper(w, r, "Ping").WriteResponse(pingResponse{Status: "OK"}, http.StatusOK)
	}
}

func ListDocuments(d Documents) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := newHelper(w, r, "ListDocuments")

		docs, err := d.ListDocuments(h.Ctx())
		if err != nil {
			h.Logger().Error(h.Ctx(), "list documents failed", "error", err)
			h.WriteError(&httpError{http.StatusInternalServerError, "Failed to list files."})
			return
		}

		h.WriteResponse(docs, http.StatusOK)
	}
}

// GetDocument answers 404 for every failure so nothing about the store leaks.
func GetDocument(d Documents) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := newHelper(w, r, "GetDocument")

		name, err := h.Name()
		if err != nil {
			h.WriteError(err)
			return
		}

		md, err := d.GetDocument(h.Ctx(), name)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				h.Logger().Info(h.Ctx(), "document not found", "name", name)
			} else {
				h.Logger().Error(h.Ctx(), "get document failed", "name", name, "error", err)
			}
			h.WriteError(&httpError{http.StatusNotFound, "File not found"})
			return
		}

		h.WriteResponse(md, http.StatusOK)
	}
}

type callbackResponse struct {
	Message string `json:"message,omitempty"`
	Error   int    `json:"error"`
}

// Callback acknowledges an editor status callback. Any failure, including
// a malformed body, is answered with the {message, error: 1} envelope the
// document server understands.
func Callback(c Callbacks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := newHelper(w, r, "Callback")

		fail := func(err error) {
			if services.IsClientError(err) {
				h.Logger().Warn(h.Ctx(), "callback rejected", "error", err)
			} else {
				h.Logger().Error(h.Ctx(), "callback failed", "error", err)
			}
			h.WriteResponse(callbackResponse{Message: err.Error(), Error: 1}, http.StatusInternalServerError)
		}

		name, err := h.Name()
		if err != nil {
			fail(err)
			return
		}

		var ev models.CallbackEvent
		if err := h.ReadRequest(&ev); err != nil {
			err = fmt.Errorf("%w: %w", common.ErrValidation, err)
			c.Reject(h.Ctx(), name, err)
			fail(err)
			return
		}

		outcome, err := c.HandleCallback(h.Ctx(), name, &ev, r.Header.Get(common.AuthorizationHeaderName))
		if err != nil {
			fail(err)
			return
		}

		h.Logger().Info(h.Ctx(), "callback handled", "name", name, "key", ev.Key, "outcome", outcome)

		if outcome == models.OutcomeSaved {
			h.WriteResponse(callbackResponse{Message: "Uploaded as " + name}, http.StatusOK)
			return
		}
		h.WriteResponse(callbackResponse{}, http.StatusOK)
	}
}

func CallbackHistory(c Callbacks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := newHelper(w, r, "CallbackHistory")

		name, err := h.Name()
		if err != nil {
			h.WriteError(err)
			return
		}

		limit, err := h.Limit()
		if err != nil {
			h.WriteError(err)
			return
		}

		recs, err := c.History(h.Ctx(), name, limit)
		if err != nil {
			h.Logger().Error(h.Ctx(), "load callback history failed", "name", name, "error", err)
			h.WriteError(&httpError{http.StatusInternalServerError, "Failed to load callbacks."})
			return
		}
		if recs == nil {
			recs = []models.CallbackRecord{}
		}

		h.WriteResponse(recs, http.StatusOK)
	}
}

func GetSession(s Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := newHelper(w, r, "GetSession")

		name, err := h.Name()
		if err != nil {
			h.WriteError(err)
			return
		}

		sess, err := s.BuildSession(h.Ctx(), name)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				h.WriteError(&httpError{http.StatusNotFound, "File not found"})
				return
			}
			h.Logger().Error(h.Ctx(), "build session failed", "name", name, "error", err)
			h.WriteError(&httpError{http.StatusInternalServerError, err.Error()})
			return
		}

		h.WriteResponse(sess, http.StatusOK)
	}
}
