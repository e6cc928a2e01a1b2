package auth

import (
	"sync"
	"testing"
)

func TestSessionRegistryCreateAndLookup(t *testing.T) {
	reg := NewSessionRegistry()

	token, err := reg.Create(1, "alice")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(token) != tokenLength*2 {
		t.Errorf("expected %d hex chars, got %d", tokenLength*2, len(token))
	}

	session, ok := reg.Lookup(token)
	if !ok {
		t.Fatal("expected session for issued token")
	}
	if session.UserID != 1 || session.Username != "alice" {
		t.Errorf("unexpected session %+v", session)
	}
	if session.LoginTime.IsZero() {
		t.Error("expected login time to be set")
	}
}

func TestSessionRegistryTokensAreUnique(t *testing.T) {
	reg := NewSessionRegistry()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := reg.Create(int64(i), "user")
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if seen[token] {
			t.Fatalf("duplicate token issued: %s", token)
		}
		seen[token] = true
	}
	if reg.Count() != 100 {
		t.Errorf("expected 100 live sessions, got %d", reg.Count())
	}
}

func TestSessionRegistryInvalidate(t *testing.T) {
	reg := NewSessionRegistry()

	token, err := reg.Create(1, "alice")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	reg.Invalidate(token)
	if _, ok := reg.Lookup(token); ok {
		t.Error("expected token to be gone after invalidate")
	}

	// Invalidating again, or an unknown token, is a no-op.
	reg.Invalidate(token)
	reg.Invalidate("no-such-token")
	if reg.Count() != 0 {
		t.Errorf("expected 0 sessions, got %d", reg.Count())
	}
}

func TestSessionRegistryConcurrentAccess(t *testing.T) {
	reg := NewSessionRegistry()

	var wg sync.WaitGroup
	tokens := make([]string, 50)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token, err := reg.Create(int64(i), "user")
			if err != nil {
				t.Errorf("Create failed: %v", err)
				return
			}
			tokens[i] = token
			reg.Lookup(token)
		}(i)
	}
	wg.Wait()

	if reg.Count() != 50 {
		t.Fatalf("expected 50 sessions, got %d", reg.Count())
	}

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reg.Invalidate(tokens[i])
		}(i)
	}
	wg.Wait()

	if reg.Count() != 0 {
		t.Fatalf("expected 0 sessions after invalidation, got %d", reg.Count())
	}
}

func TestSessionRegistryResolve(t *testing.T) {
	reg := NewSessionRegistry()

	token, err := reg.Create(7, "alice")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	info, ok := reg.Resolve(token)
	if !ok {
		t.Fatal("expected resolve to succeed")
	}
	if info.Token != token || info.UserID != 7 || info.Username != "alice" {
		t.Errorf("unexpected session info %+v", info)
	}

	if _, ok := reg.Resolve("unknown"); ok {
		t.Error("expected resolve to fail for unknown token")
	}
}
