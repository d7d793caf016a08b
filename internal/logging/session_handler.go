package logging

import (
	"context"
	"log/slog"
)

// FieldSessionID is the structured logging key for session identifiers.
const FieldSessionID = "session_id"

// sessionIDHandler stamps every record with the session it belongs to so
// interleaved output from several runs sharing a log file can be separated.
type sessionIDHandler struct {
	base      slog.Handler
	sessionID string
}

func newSessionIDHandler(base slog.Handler, sessionID string) slog.Handler {
	if base == nil {
		return NoopHandler{}
	}
	return &sessionIDHandler{base: base, sessionID: sessionID}
}

func (h *sessionIDHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

func (h *sessionIDHandler) Handle(ctx context.Context, record slog.Record) error {
	id := h.sessionID
	if fromCtx, ok := SessionIDFromContext(ctx); ok {
		id = fromCtx
	}
	record.AddAttrs(slog.String(FieldSessionID, id))
	return h.base.Handle(ctx, record)
}

func (h *sessionIDHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &sessionIDHandler{base: h.base.WithAttrs(attrs), sessionID: h.sessionID}
}

func (h *sessionIDHandler) WithGroup(name string) slog.Handler {
	return &sessionIDHandler{base: h.base.WithGroup(name), sessionID: h.sessionID}
}
