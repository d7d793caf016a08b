package logging

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldDevice is the device path a line refers to.
	FieldDevice = "device"
	// FieldTrack is a 1-based track number.
	FieldTrack = "track"
	// FieldSector is a logical sector number (LSN).
	FieldSector = "sector"
	// FieldEventType names the kind of event for log filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests a next step to the operator.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldDiscID carries the MusicBrainz disc identifier.
	FieldDiscID = "disc_id"
)

type contextKey int

const (
	sessionKey contextKey = iota
	deviceKey
	trackKey
)

// NewSessionID returns a fresh identifier for one open/rip session.
func NewSessionID() string {
	return uuid.NewString()
}

// WithSessionID stores a session identifier on ctx.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey, id)
}

// SessionIDFromContext returns the session identifier stored on ctx.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(sessionKey).(string)
	return id, ok && id != ""
}

// WithDevice stores the device path on ctx.
func WithDevice(ctx context.Context, device string) context.Context {
	return context.WithValue(ctx, deviceKey, device)
}

// WithTrack stores the track number on ctx.
func WithTrack(ctx context.Context, track int) context.Context {
	return context.WithValue(ctx, trackKey, track)
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := SessionIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSessionID, id))
	}
	if device, ok := ctx.Value(deviceKey).(string); ok && device != "" {
		fields = append(fields, slog.String(FieldDevice, device))
	}
	if track, ok := ctx.Value(trackKey).(int); ok && track > 0 {
		fields = append(fields, slog.Int(FieldTrack, track))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
