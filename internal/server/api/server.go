package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/officebridge/internal/logging"
)

// Server runs one HTTP listener until its context is cancelled.
type Server struct {
	srv             *http.Server
	logger          logging.Logger
	shutdownTimeout time.Duration
}

// NewServer wraps h with request logging. name tags the server's log lines.
func NewServer(name, addr string, h http.Handler, l logging.Logger, shutdownTimeout time.Duration) *Server {
	logger := l.With("module", name)
	return &Server{
		srv: &http.Server{
			Addr:    addr,
			Handler: logging.HTTPLogging(logger, h),

			ReadTimeout:       30 * time.Second,
			ReadHeaderTimeout: 3 * time.Second,
			// covers the editor download and the upload made inside a callback
			WriteTimeout:   5 * time.Minute,
			IdleTimeout:    1 * time.Minute,
			MaxHeaderBytes: 8192,
		},
		logger:          logger,
		shutdownTimeout: shutdownTimeout,
	}
}

func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on l until ctx is done, then shuts down
// gracefully, waiting at most the shutdown timeout for in-flight requests.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	done := make(chan struct{})

	go func() {
		defer close(done)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		sctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(sctx); err != nil {
			s.logger.Error(ctx, "shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", l.Addr().String())

	if err := s.srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	<-done
	return nil
}
