package requestctx

import (
	"context"
	"log/slog"
)

// LogHandler adds the request id stored in a record's context as a
// request_id attribute. Records logged without a context pass unchanged.
type LogHandler struct {
	inner slog.Handler
}

// NewLogHandler wraps inner.
func NewLogHandler(inner slog.Handler) *LogHandler {
	return &LogHandler{inner: inner}
}

// NewLogger returns logger with request ids attached to its records. A nil
// logger wraps slog.Default.
func NewLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	if _, ok := logger.Handler().(*LogHandler); ok {
		return logger
	}
	return slog.New(NewLogHandler(logger.Handler()))
}

func (h *LogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *LogHandler) Handle(ctx context.Context, record slog.Record) error {
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		record = record.Clone()
		record.AddAttrs(slog.String("request_id", requestID))
	}
	return h.inner.Handle(ctx, record)
}

func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LogHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *LogHandler) WithGroup(name string) slog.Handler {
	return &LogHandler{inner: h.inner.WithGroup(name)}
}
