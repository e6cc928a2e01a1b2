package repository

import (
	"time"
)

// User represents a user account in the database. A user record is never
// mutated after creation.
type User struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	Email        *string   `db:"email"`
	CreatedAt    time.Time `db:"created_at"`
}

// LoginAttempt represents one row of the append-only login audit trail.
// UserID is nil when the attempted username did not resolve to a user.
type LoginAttempt struct {
	ID        int64     `db:"id"`
	UserID    *int64    `db:"user_id"`
	LoginTime time.Time `db:"login_time"`
	Success   bool      `db:"success"`
	IPAddress *string   `db:"ip_address"`
}

// LogoutEvent represents one row of the append-only logout audit trail.
type LogoutEvent struct {
	ID         int64     `db:"id"`
	UserID     int64     `db:"user_id"`
	LogoutTime time.Time `db:"logout_time"`
}
