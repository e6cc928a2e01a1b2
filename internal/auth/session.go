package auth

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	appctx "github.com/welldanyogia/auth-ledger/internal/context"
)

// tokenLength is the number of random bytes per session token (64 hex chars).
const tokenLength = 32

// Session is an issued login session. Sessions live only in process memory;
// their lifecycle is independent of the persisted user record.
type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	LoginTime time.Time `json:"login_time"`
}

// SessionRegistry maps opaque tokens to live sessions. All access goes
// through a single RWMutex; cardinality is low enough that finer-grained
// locking buys nothing.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewSessionRegistry creates an empty SessionRegistry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]Session),
	}
}

// Create issues a new session for the user and returns its token. The token
// is unique across all live sessions.
func (r *SessionRegistry) Create(userID int64, username string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		buf := make([]byte, tokenLength)
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		token := hex.EncodeToString(buf)
		if _, exists := r.sessions[token]; exists {
			continue
		}
		r.sessions[token] = Session{
			Token:     token,
			UserID:    userID,
			Username:  username,
			LoginTime: time.Now().UTC(),
		}
		return token, nil
	}
}

// Lookup resolves a token to its session.
func (r *SessionRegistry) Lookup(token string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[token]
	return session, ok
}

// Resolve resolves a token to the context-layer session view. It satisfies
// the middleware's resolver contract without exposing the registry itself.
func (r *SessionRegistry) Resolve(token string) (appctx.SessionInfo, bool) {
	session, ok := r.Lookup(token)
	if !ok {
		return appctx.SessionInfo{}, false
	}
	return appctx.SessionInfo{
		Token:     session.Token,
		UserID:    session.UserID,
		Username:  session.Username,
		LoginTime: session.LoginTime,
	}, true
}

// Invalidate removes a session. Invalidating an unknown token is a no-op.
func (r *SessionRegistry) Invalidate(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, token)
}

// Count returns the number of live sessions.
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}
