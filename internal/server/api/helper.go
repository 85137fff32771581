package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/officebridge/internal/logging"
)

// maxCallbackBody caps callback bodies; the editor sends small JSON documents.
const maxCallbackBody = 1 << 20

type httpError struct {
	StatusCode int
	StatusMsg  string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.StatusMsg)
}

type errorResponse struct {
	Error string `json:"error"`
}

type helper struct {
	ctx context.Context
	log logging.Logger
	r   *http.Request
	w   http.ResponseWriter
}

func newHelper(w http.ResponseWriter, r *http.Request, op string) *helper {
	ctx := r.Context()
	return &helper{
		ctx: ctx,
		log: logging.FromContext(ctx).With("op", op),
		w:   w,
		r:   r,
	}
}

func (h *helper) Ctx() context.Context {
	return h.ctx
}

func (h *helper) Logger() logging.Logger {
	return h.log
}

// Name returns the percent-decoded {name} path segment.
func (h *helper) Name() (string, error) {
	name := h.r.PathValue("name")
	if name == "" {
		return "", &httpError{http.StatusBadRequest, "name is required"}
	}
	return name, nil
}

// Limit parses the optional ?limit= query parameter; zero means default.
func (h *helper) Limit() (int, error) {
	s := h.r.URL.Query().Get("limit")
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, &httpError{http.StatusBadRequest, "limit must be a non-negative integer"}
	}
	return v, nil
}

func (h *helper) WriteError(err error) {
	var httpErr *httpError
	if !errors.As(err, &httpErr) {
		h.log.Warn(h.ctx, "unhandled error has been detected", "error", err)
		httpErr = &httpError{http.StatusInternalServerError, "internal error"}
	}
	h.WriteResponse(errorResponse{Error: httpErr.StatusMsg}, httpErr.StatusCode)
}

func (h *helper) WriteResponse(resp any, statusCode int) {
	h.w.Header().Set("Content-Type", "application/json")
	h.w.WriteHeader(statusCode)
	if err := json.NewEncoder(h.w).Encode(resp); err != nil {
		h.log.Error(h.ctx, "write response failed", "error", err)
	}
}

func (h *helper) ReadRequest(req any) error {
	body, err := io.ReadAll(http.MaxBytesReader(h.w, h.r.Body, maxCallbackBody))
	if err != nil {
		return fmt.Errorf("can't read request body: %w", err)
	}

	if err := json.Unmarshal(body, req); err != nil {
		return fmt.Errorf("can't parse request body: %w", err)
	}

	return nil
}
