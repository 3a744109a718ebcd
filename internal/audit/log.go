// Package audit emits structured audit events for security-relevant
// actions: logins, logouts, token invalidation, user and organization
// mutations.
package audit

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"orgauth.dev/internal/auth"
	"orgauth.dev/internal/obs"
)

type ctxKey string

const requestIDKey ctxKey = "audit_request_id"

// WithRequestID attaches the request identifier to the context for
// audit logging.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// LogEvent writes an audit entry enriched with request and session
// context. Field values must not contain passwords or token values.
func LogEvent(ctx context.Context, event string, fields map[string]any) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return errors.New("event name is required")
	}

	attrs := []slog.Attr{slog.String("type", "audit")}
	if rid := requestIDFromContext(ctx); rid != "" {
		attrs = append(attrs, slog.String("request_id", rid))
	}
	if session, ok := auth.SessionFromContext(ctx); ok {
		attrs = append(attrs, slog.String("actor", session.User.Email))
	}
	for key, value := range fields {
		attrs = append(attrs, slog.Any(key, value))
	}

	obs.Logger().LogAttrs(ctx, slog.LevelInfo, event, attrs...)
	return nil
}
