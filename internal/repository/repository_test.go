package repository

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
)

// openTestDB opens a migrated sqlite database in a temp directory.
func openTestDB(t *testing.T) (*sqlx.DB, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(EngineSQLite, path)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := Migrate(db, EngineSQLite); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db, path
}

func createUser(t *testing.T, repo UserRepository, username string) *User {
	t.Helper()
	user := &User{
		Username:     username,
		PasswordHash: "aabb:ccdd",
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create user %q: %v", username, err)
	}
	return user
}

func TestOpenRejectsUnknownEngine(t *testing.T) {
	if _, err := Open("oracle", "dsn"); err == nil {
		t.Error("expected error for unsupported engine")
	}
}

func TestUserRepositoryCreateAndGet(t *testing.T) {
	db, _ := openTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	email := "alice@example.com"
	user := &User{
		Username:     "alice",
		PasswordHash: "aabb:ccdd",
		Email:        &email,
	}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("expected assigned ID")
	}
	if user.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}

	byID, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if byID.Username != "alice" || byID.Email == nil || *byID.Email != email {
		t.Errorf("unexpected user %+v", byID)
	}

	byName, err := repo.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUsername failed: %v", err)
	}
	if byName.ID != user.ID {
		t.Errorf("expected ID %d, got %d", user.ID, byName.ID)
	}
}

func TestUserRepositoryNotFound(t *testing.T) {
	db, _ := openTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, 999); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := repo.GetByUsername(ctx, "nobody"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserRepositoryDuplicateUsername(t *testing.T) {
	db, _ := openTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	createUser(t, repo, "alice")

	dup := &User{Username: "alice", PasswordHash: "eeff:0011"}
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestUserRepositoryConcurrentRegistration(t *testing.T) {
	db, _ := openTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	const attempts = 10
	var wg sync.WaitGroup
	results := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := &User{Username: "contended", PasswordHash: "aabb:ccdd"}
			results[i] = repo.Create(ctx, user)
		}(i)
	}
	wg.Wait()

	// Exactly one registration wins, the rest see the taken username.
	wins := 0
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrUsernameTaken):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("expected exactly 1 successful registration, got %d", wins)
	}
}

func TestLoginHistoryRepository(t *testing.T) {
	db, _ := openTestDB(t)
	users := NewUserRepository(db)
	history := NewLoginHistoryRepository(db)
	ctx := context.Background()

	user := createUser(t, users, "alice")

	t.Run("records attempts with and without a user", func(t *testing.T) {
		ip := "10.0.0.1"
		if err := history.RecordLogin(ctx, &user.ID, true, &ip); err != nil {
			t.Fatalf("RecordLogin failed: %v", err)
		}
		if err := history.RecordLogin(ctx, nil, false, nil); err != nil {
			t.Fatalf("RecordLogin without user failed: %v", err)
		}
	})

	t.Run("lists only the user's attempts newest first", func(t *testing.T) {
		if err := history.RecordLogin(ctx, &user.ID, false, nil); err != nil {
			t.Fatalf("RecordLogin failed: %v", err)
		}

		attempts, err := history.ListByUser(ctx, user.ID)
		if err != nil {
			t.Fatalf("ListByUser failed: %v", err)
		}
		if len(attempts) != 2 {
			t.Fatalf("expected 2 attempts for the user, got %d", len(attempts))
		}
		if attempts[0].Success {
			t.Error("expected the failed attempt first (newest)")
		}
		for i := 1; i < len(attempts); i++ {
			if attempts[i].LoginTime.After(attempts[i-1].LoginTime) {
				t.Errorf("attempts not newest first at index %d", i)
			}
		}
	})

	t.Run("returns empty slice for unknown user", func(t *testing.T) {
		attempts, err := history.ListByUser(ctx, 999)
		if err != nil {
			t.Fatalf("ListByUser failed: %v", err)
		}
		if attempts == nil || len(attempts) != 0 {
			t.Errorf("expected empty slice, got %v", attempts)
		}
	})
}

func TestLogoutHistoryRepository(t *testing.T) {
	db, _ := openTestDB(t)
	users := NewUserRepository(db)
	logouts := NewLogoutHistoryRepository(db)
	ctx := context.Background()

	user := createUser(t, users, "alice")

	if err := logouts.RecordLogout(ctx, user.ID); err != nil {
		t.Fatalf("RecordLogout failed: %v", err)
	}

	var count int
	if err := db.GetContext(ctx, &count, "SELECT COUNT(*) FROM logout_history WHERE user_id = ?", user.ID); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 logout row, got %d", count)
	}
}

func TestDataSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "durable.db")

	db, err := Open(EngineSQLite, path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := Migrate(db, EngineSQLite); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	ctx := context.Background()
	user := &User{Username: "alice", PasswordHash: "aabb:ccdd"}
	if err := NewUserRepository(db).Create(ctx, user); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := NewLoginHistoryRepository(db).RecordLogin(ctx, &user.ID, true, nil); err != nil {
		t.Fatalf("RecordLogin failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// A fresh handle against the same file sees the committed state.
	reopened, err := Open(EngineSQLite, path)
	if err != nil {
		t.Fatalf("failed to reopen database: %v", err)
	}
	defer reopened.Close()

	got, err := NewUserRepository(reopened).GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUsername after reopen failed: %v", err)
	}
	if got.ID != user.ID || got.PasswordHash != user.PasswordHash {
		t.Errorf("unexpected user after reopen: %+v", got)
	}

	attempts, err := NewLoginHistoryRepository(reopened).ListByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListByUser after reopen failed: %v", err)
	}
	if len(attempts) != 1 {
		t.Errorf("expected 1 attempt after reopen, got %d", len(attempts))
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, _ := openTestDB(t)

	// Running migrations again against the same schema is a no-op.
	if err := Migrate(db, EngineSQLite); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
}

func TestForeignKeyCascade(t *testing.T) {
	db, _ := openTestDB(t)
	users := NewUserRepository(db)
	history := NewLoginHistoryRepository(db)
	ctx := context.Background()

	user := createUser(t, users, "alice")
	if err := history.RecordLogin(ctx, &user.ID, true, nil); err != nil {
		t.Fatalf("RecordLogin failed: %v", err)
	}

	if _, err := db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", user.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	var count int
	if err := db.GetContext(ctx, &count, "SELECT COUNT(*) FROM login_history WHERE user_id = ?", user.ID); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected cascade to remove history rows, got %d", count)
	}
}

func TestLoginTimesAreUTC(t *testing.T) {
	db, _ := openTestDB(t)
	users := NewUserRepository(db)
	history := NewLoginHistoryRepository(db)
	ctx := context.Background()

	user := createUser(t, users, "alice")
	before := time.Now().UTC().Add(-time.Second)

	if err := history.RecordLogin(ctx, &user.ID, true, nil); err != nil {
		t.Fatalf("RecordLogin failed: %v", err)
	}

	attempts, err := history.ListByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(attempts) != 1 {
		t.Fatalf("expected 1 attempt, got %d", len(attempts))
	}
	after := time.Now().UTC().Add(time.Second)
	if attempts[0].LoginTime.Before(before) || attempts[0].LoginTime.After(after) {
		t.Errorf("login time %v outside [%v, %v]", attempts[0].LoginTime, before, after)
	}
}
