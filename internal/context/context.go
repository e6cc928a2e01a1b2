package context

import (
	"context"
	"time"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// SessionKey is the context key for the authenticated session
	SessionKey ContextKey = "session"
)

// SessionInfo is the authenticated session carried in the request context.
type SessionInfo struct {
	Token     string
	UserID    int64
	Username  string
	LoginTime time.Time
}

// WithSession attaches the session to the context.
func WithSession(ctx context.Context, session SessionInfo) context.Context {
	return context.WithValue(ctx, SessionKey, session)
}

// ExtractSession extracts the authenticated session from the request context.
func ExtractSession(ctx context.Context) (SessionInfo, bool) {
	session, ok := ctx.Value(SessionKey).(SessionInfo)
	return session, ok
}
