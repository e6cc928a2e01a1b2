package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

// User repository errors
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
}

// userRepository implements UserRepository over sqlx.
type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user. Username uniqueness is enforced by the UNIQUE
// constraint on the table, so the insert itself is the duplicate check and
// there is no read-then-write window for concurrent registrations to race
// through. A constraint violation maps to ErrUsernameTaken.
func (r *userRepository) Create(ctx context.Context, user *User) error {
	query := r.db.Rebind(`
		INSERT INTO users (username, password_hash, email, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`)

	user.CreatedAt = time.Now().UTC()
	err := r.db.QueryRowxContext(ctx, query,
		user.Username,
		user.PasswordHash,
		user.Email,
		user.CreatedAt,
	).Scan(&user.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameTaken
		}
		return err
	}

	return nil
}

// GetByID retrieves a user by their ID.
func (r *userRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	query := r.db.Rebind(`
		SELECT id, username, password_hash, email, created_at
		FROM users
		WHERE id = ?
	`)

	user := &User{}
	if err := r.db.GetContext(ctx, user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}

// GetByUsername retrieves a user by their username (case-sensitive).
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	query := r.db.Rebind(`
		SELECT id, username, password_hash, email, created_at
		FROM users
		WHERE username = ?
	`)

	user := &User{}
	if err := r.db.GetContext(ctx, user, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}

// isUniqueViolation reports whether err is a uniqueness constraint failure
// from either engine: SQLSTATE 23505 for postgres, the driver error text
// for sqlite.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
