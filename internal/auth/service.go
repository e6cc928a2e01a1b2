// Package auth implements the user authentication core: credential
// registration, login verification, session issuance, and the append-only
// login/logout audit trail. AuthService is the sole entry point consumed by
// the console and the web API.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/welldanyogia/auth-ledger/internal/metrics"
	"github.com/welldanyogia/auth-ledger/internal/repository"
)

// Validation limits for registration input.
const (
	MinUsernameLength = 3
	MinPasswordLength = 6
)

// emailPattern is deliberately loose: one local part, one @, one domain
// with at least one dot. Anything stricter belongs to a mail system.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// User is the public view of a user record returned by AuthService. It
// never carries the password hash.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     *string   `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginHistoryEntry is one row of a user's login audit trail.
type LoginHistoryEntry struct {
	LoginTime time.Time `json:"login_time"`
	Success   bool      `json:"success"`
	IPAddress *string   `json:"ip_address,omitempty"`
}

// LogoutResult is the result of a successful logout.
type LogoutResult struct {
	Success bool  `json:"success"`
	UserID  int64 `json:"user_id"`
}

// AuthService orchestrates the stores and the hasher. It validates input,
// enforces business rules, and translates storage failures into the tagged
// error set; no raw storage error escapes it.
type AuthService struct {
	users      repository.UserRepository
	loginHist  repository.LoginHistoryRepository
	logoutHist repository.LogoutHistoryRepository
	hasher     *PasswordHasher
	logger     *slog.Logger
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(
	users repository.UserRepository,
	loginHist repository.LoginHistoryRepository,
	logoutHist repository.LogoutHistoryRepository,
	hasher *PasswordHasher,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:      users,
		loginHist:  loginHist,
		logoutHist: logoutHist,
		hasher:     hasher,
		logger:     logger,
	}
}

// Register validates the input and persists a new user. Validation is
// ordered and the first failure wins. A username collision surfaces as a
// validation error, not a storage error.
func (s *AuthService) Register(ctx context.Context, username, password string, email *string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, NewValidationError("username", "username must not be empty")
	}
	// Lengths count characters, not bytes, so multi-byte alphabets are
	// held to the same minimums as ASCII.
	if utf8.RuneCountInString(username) < MinUsernameLength {
		return nil, NewValidationError("username", "username must be at least 3 characters", "value", username)
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return nil, NewValidationError("password", "password must be at least 6 characters")
	}
	if email != nil {
		trimmed := strings.TrimSpace(*email)
		if trimmed == "" {
			email = nil
		} else {
			if !emailPattern.MatchString(trimmed) {
				return nil, NewValidationError("email", "invalid email address", "value", trimmed)
			}
			email = &trimmed
		}
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, Classify("register", err)
	}

	user := &repository.User{
		Username:     username,
		PasswordHash: passwordHash,
		Email:        email,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			metrics.AuthOperationsTotal.WithLabelValues("register", "duplicate").Inc()
			return nil, NewValidationError("username", "username is already registered", "reason", "duplicate", "value", username)
		}
		metrics.AuthOperationsTotal.WithLabelValues("register", "error").Inc()
		return nil, Classify("register", err)
	}

	metrics.AuthOperationsTotal.WithLabelValues("register", "success").Inc()
	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)

	return publicUser(user), nil
}

// Login verifies the credentials and returns the user's public fields.
// Every lookup outcome past validation is recorded in the login history:
// unknown username as a row with no user reference, a wrong password as a
// failed row against the user, a match as a successful row.
func (s *AuthService) Login(ctx context.Context, username, password string, ipAddress *string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, NewValidationError("username", "username must not be empty")
	}
	if password == "" {
		return nil, NewValidationError("password", "password must not be empty")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.recordLoginAttempt(ctx, nil, false, ipAddress)
			metrics.AuthOperationsTotal.WithLabelValues("login", "unknown_user").Inc()
			return nil, NewNotFoundError("user", username)
		}
		metrics.AuthOperationsTotal.WithLabelValues("login", "error").Inc()
		return nil, Classify("login", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		metrics.AuthOperationsTotal.WithLabelValues("login", "error").Inc()
		return nil, Classify("login", err)
	}
	if !ok {
		s.recordLoginAttempt(ctx, &user.ID, false, ipAddress)
		metrics.AuthOperationsTotal.WithLabelValues("login", "wrong_password").Inc()
		return nil, NewValidationError("password", "wrong password")
	}

	s.recordLoginAttempt(ctx, &user.ID, true, ipAddress)
	metrics.AuthOperationsTotal.WithLabelValues("login", "success").Inc()
	s.logger.Info("user logged in", "user_id", user.ID, "username", user.Username)

	return publicUser(user), nil
}

// Logout records a logout event for the user. It operates purely on the
// persisted identity; live sessions are the web boundary's concern.
func (s *AuthService) Logout(ctx context.Context, userID int64) (*LogoutResult, error) {
	if userID <= 0 {
		return nil, NewValidationError("userId", "user ID is required")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, NewNotFoundError("user", formatID(userID))
		}
		return nil, Classify("logout", err)
	}

	if err := s.logoutHist.RecordLogout(ctx, userID); err != nil {
		metrics.AuthOperationsTotal.WithLabelValues("logout", "error").Inc()
		return nil, Classify("logout", err)
	}

	metrics.AuthOperationsTotal.WithLabelValues("logout", "success").Inc()
	s.logger.Info("user logged out", "user_id", userID, "username", user.Username)

	return &LogoutResult{Success: true, UserID: userID}, nil
}

// GetLoginHistory returns the user's login attempts, newest first.
func (s *AuthService) GetLoginHistory(ctx context.Context, userID int64) ([]LoginHistoryEntry, error) {
	if userID <= 0 {
		return nil, NewValidationError("userId", "user ID is required")
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, NewNotFoundError("user", formatID(userID))
		}
		return nil, Classify("get login history", err)
	}

	attempts, err := s.loginHist.ListByUser(ctx, userID)
	if err != nil {
		return nil, Classify("get login history", err)
	}

	entries := make([]LoginHistoryEntry, 0, len(attempts))
	for _, a := range attempts {
		entries = append(entries, LoginHistoryEntry{
			LoginTime: a.LoginTime,
			Success:   a.Success,
			IPAddress: a.IPAddress,
		})
	}
	return entries, nil
}

// GetUserByUsername looks up a user's public fields by username.
func (s *AuthService) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, NewValidationError("username", "username must not be empty")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, NewNotFoundError("user", username)
		}
		return nil, Classify("get user", err)
	}

	return publicUser(user), nil
}

// recordLoginAttempt appends to the login audit trail best-effort: a write
// failure is logged and swallowed so auditing never blocks authentication.
func (s *AuthService) recordLoginAttempt(ctx context.Context, userID *int64, success bool, ipAddress *string) {
	if err := s.loginHist.RecordLogin(ctx, userID, success, ipAddress); err != nil {
		s.logger.Error("failed to record login attempt", "error", err, "success", success)
	}
}

func publicUser(u *repository.User) *User {
	return &User{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
