package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appctx "github.com/welldanyogia/auth-ledger/internal/context"
)

// fakeResolver implements SessionResolver for testing
type fakeResolver struct {
	sessions map[string]appctx.SessionInfo
}

func (f *fakeResolver) Resolve(token string) (appctx.SessionInfo, bool) {
	info, ok := f.sessions[token]
	return info, ok
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		sessions: map[string]appctx.SessionInfo{
			"valid-token": {
				Token:     "valid-token",
				UserID:    1,
				Username:  "alice",
				LoginTime: time.Now().UTC(),
			},
		},
	}
}

func protectedHandler(t *testing.T, gotSession *appctx.SessionInfo) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := appctx.ExtractSession(r.Context())
		if !ok {
			t.Error("expected session in context")
		}
		*gotSession = session
		w.WriteHeader(http.StatusOK)
	})
}

func TestSessionAuthBearerToken(t *testing.T) {
	var session appctx.SessionInfo
	handler := SessionAuth(newFakeResolver())(protectedHandler(t, &session))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if session.UserID != 1 || session.Username != "alice" {
		t.Errorf("unexpected session %+v", session)
	}
}

func TestSessionAuthHeaderToken(t *testing.T) {
	var session appctx.SessionInfo
	handler := SessionAuth(newFakeResolver())(protectedHandler(t, &session))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("X-Session-Token", "valid-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if session.Token != "valid-token" {
		t.Errorf("unexpected session %+v", session)
	}
}

func TestSessionAuthMissingToken(t *testing.T) {
	handler := SessionAuth(newFakeResolver())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestSessionAuthUnknownToken(t *testing.T) {
	handler := SessionAuth(newFakeResolver())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer no-such-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestSessionAuthMalformedAuthorizationHeader(t *testing.T) {
	handler := SessionAuth(newFakeResolver())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}
