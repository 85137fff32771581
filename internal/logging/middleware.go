package logging

import (
	"net/http"
	"runtime/debug"

	"github.com/google/uuid"
)

// RequestIDHeader is echoed on every response so callers can correlate logs.
const RequestIDHeader = "X-Request-Id"

// HTTPLogging wraps h with request-scoped logging: every request gets a
// logger tagged with a request id, stored in the request context, and
// panics in h are recovered and answered with 500.
func HTTPLogging(log Logger, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}

		log := log.With("request_id", reqID, "from", r.RemoteAddr, "method", r.Method, "url", r.URL.String())
		ctx := Context(r.Context(), log)
		r = r.WithContext(ctx)

		log.Debug(ctx, "request received")

		w.Header().Set(RequestIDHeader, reqID)
		si := &statusInterceptor{ResponseWriter: w, log: log, r: r}

		defer func() {
			if p := recover(); p != nil {
				log.Error(ctx, "panic recovered", "panic", p, "stack", string(debug.Stack()))
				if si.status == 0 {
					http.Error(si, "internal error", http.StatusInternalServerError)
				}
			}
		}()

		h.ServeHTTP(si, r)
	})
}

type statusInterceptor struct {
	http.ResponseWriter
	log    Logger
	r      *http.Request
	status int
}

func (si *statusInterceptor) WriteHeader(status int) {
	ctx := si.r.Context()

	switch {
	case status >= 100 && status < 200:
		si.ResponseWriter.WriteHeader(status)
	case si.status == 0:
		si.status = status
		si.log.Debug(ctx, "response status", "status", status)
		si.ResponseWriter.WriteHeader(status)
	default:
		si.log.Warn(ctx, "redundant WriteHeader call", "status", status, "orig_status", si.status)
	}
}

func (si *statusInterceptor) Write(b []byte) (int, error) {
	if si.status == 0 {
		si.status = http.StatusOK
	}
	n, err := si.ResponseWriter.Write(b)
	if err != nil {
		si.log.Error(si.r.Context(), "write failed", "error", err)
	}
	return n, err
}
