package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// LoginHistoryRepository defines the interface for the append-only login
// audit trail. Rows are never updated or deleted.
type LoginHistoryRepository interface {
	RecordLogin(ctx context.Context, userID *int64, success bool, ipAddress *string) error
	ListByUser(ctx context.Context, userID int64) ([]LoginAttempt, error)
}

// LogoutHistoryRepository defines the interface for the append-only logout
// audit trail.
type LogoutHistoryRepository interface {
	RecordLogout(ctx context.Context, userID int64) error
}

// loginHistoryRepository implements LoginHistoryRepository over sqlx.
type loginHistoryRepository struct {
	db *sqlx.DB
}

// NewLoginHistoryRepository creates a new LoginHistoryRepository instance.
func NewLoginHistoryRepository(db *sqlx.DB) LoginHistoryRepository {
	return &loginHistoryRepository{db: db}
}

// RecordLogin appends one attempt row. The timestamp is assigned here, in
// UTC with full precision, so ListByUser ordering is stable even for
// attempts landing within the same second.
func (r *loginHistoryRepository) RecordLogin(ctx context.Context, userID *int64, success bool, ipAddress *string) error {
	query := r.db.Rebind(`
		INSERT INTO login_history (user_id, login_time, success, ip_address)
		VALUES (?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query, userID, time.Now().UTC(), success, ipAddress)
	return err
}

// ListByUser returns all attempts recorded against the user, newest first.
func (r *loginHistoryRepository) ListByUser(ctx context.Context, userID int64) ([]LoginAttempt, error) {
	query := r.db.Rebind(`
		SELECT id, user_id, login_time, success, ip_address
		FROM login_history
		WHERE user_id = ?
		ORDER BY login_time DESC, id DESC
	`)

	attempts := []LoginAttempt{}
	if err := r.db.SelectContext(ctx, &attempts, query, userID); err != nil {
		return nil, err
	}

	return attempts, nil
}

// logoutHistoryRepository implements LogoutHistoryRepository over sqlx.
type logoutHistoryRepository struct {
	db *sqlx.DB
}

// NewLogoutHistoryRepository creates a new LogoutHistoryRepository instance.
func NewLogoutHistoryRepository(db *sqlx.DB) LogoutHistoryRepository {
	return &logoutHistoryRepository{db: db}
}

// RecordLogout appends one logout event row.
func (r *logoutHistoryRepository) RecordLogout(ctx context.Context, userID int64) error {
	query := r.db.Rebind(`
		INSERT INTO logout_history (user_id, logout_time)
		VALUES (?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query, userID, time.Now().UTC())
	return err
}
