package logging

import (
	"context"
	"log/slog"
)

type loggerKey struct{}

// Context returns a copy of ctx carrying log.
func Context(ctx context.Context, log Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, log)
}

// FromContext returns the logger stored by Context, or one wrapping
// slog.Default when there is none.
func FromContext(ctx context.Context) Logger {
	if log, ok := ctx.Value(loggerKey{}).(Logger); ok {
		return log
	}
	return NewSlogLogger(slog.Default())
}
