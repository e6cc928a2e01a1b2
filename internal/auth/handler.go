package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	appctx "github.com/welldanyogia/auth-ledger/internal/context"
	"github.com/welldanyogia/auth-ledger/internal/metrics"
)

// APIResponse represents the standard API response format
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// APIError represents the error detail in API response
type APIError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	StatusCode int               `json:"status_code"`
	Details    map[string]string `json:"details,omitempty"`
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Username string  `json:"username" validate:"required"`
	Password string  `json:"password" validate:"required"`
	Email    *string `json:"email,omitempty" validate:"omitempty,max=254"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthHandler handles HTTP requests for the authentication endpoints. It
// owns the web-layer session concept: login issues an opaque token through
// the registry, protected endpoints resolve it back to a user.
type AuthHandler struct {
	service  *AuthService
	sessions *SessionRegistry
	validate *validator.Validate
}

// NewAuthHandler creates a new AuthHandler instance.
func NewAuthHandler(service *AuthService, sessions *SessionRegistry) *AuthHandler {
	return &AuthHandler{
		service:  service,
		sessions: sessions,
		validate: validator.New(),
	}
}

// Register handles user registration
// POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", nil)
		return
	}
	if details, ok := h.validatePayload(req); !ok {
		h.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "username and password are required", details)
		return
	}

	user, err := h.service.Register(r.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeSuccess(w, http.StatusCreated, map[string]interface{}{
		"user": user,
	})
}

// Login handles user authentication and issues a session token
// POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", nil)
		return
	}
	if details, ok := h.validatePayload(req); !ok {
		h.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "username and password are required", details)
		return
	}

	ipAddress := getClientIP(r)
	user, err := h.service.Login(r.Context(), req.Username, req.Password, &ipAddress)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	token, err := h.sessions.Create(user.ID, user.Username)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to create session", nil)
		return
	}
	metrics.SessionsActive.Set(float64(h.sessions.Count()))

	h.writeSuccess(w, http.StatusOK, map[string]interface{}{
		"user":          user,
		"session_token": token,
	})
}

// Logout invalidates the caller's session and records the logout event
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := appctx.ExtractSession(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "SESSION_INVALID", "not logged in", nil)
		return
	}

	result, err := h.service.Logout(r.Context(), session.UserID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.sessions.Invalidate(session.Token)
	metrics.SessionsActive.Set(float64(h.sessions.Count()))

	h.writeSuccess(w, http.StatusOK, result)
}

// History returns the login history for a user. The session owner must
// match the requested user; anything else is a 403, never a data leak.
// GET /api/v1/auth/history/{userID}
func (h *AuthHandler) History(w http.ResponseWriter, r *http.Request) {
	session, ok := appctx.ExtractSession(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "SESSION_INVALID", "not logged in", nil)
		return
	}

	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid user ID", map[string]string{"field": "userId"})
		return
	}

	if session.UserID != userID {
		h.writeError(w, http.StatusForbidden, "FORBIDDEN", "session does not own this resource", nil)
		return
	}

	history, err := h.service.GetLoginHistory(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, map[string]interface{}{
		"history": history,
	})
}

// Me returns the current session's user
// GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := appctx.ExtractSession(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "SESSION_INVALID", "not logged in", nil)
		return
	}

	h.writeSuccess(w, http.StatusOK, map[string]interface{}{
		"user": map[string]interface{}{
			"id":       session.UserID,
			"username": session.Username,
		},
		"login_time": session.LoginTime,
	})
}

// validatePayload runs struct-tag validation and flattens failures into a
// field→message detail map.
func (h *AuthHandler) validatePayload(payload interface{}) (map[string]string, bool) {
	err := h.validate.Struct(payload)
	if err == nil {
		return nil, true
	}

	details := make(map[string]string)
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			details[strings.ToLower(fe.Field())] = "failed on " + fe.Tag()
		}
	}
	return details, false
}

// writeSuccess writes a successful JSON response
func (h *AuthHandler) writeSuccess(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}

	json.NewEncoder(w).Encode(response)
}

// writeError writes an error JSON response
func (h *AuthHandler) writeError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := APIResponse{
		Success: false,
		Error: &APIError{
			Code:       code,
			Message:    message,
			StatusCode: statusCode,
			Details:    details,
		},
		Timestamp: time.Now().UTC(),
	}

	json.NewEncoder(w).Encode(response)
}

// writeServiceError maps a tagged service error onto the HTTP status
// contract: validation 400, not found 404, database and unknown 500.
func (h *AuthHandler) writeServiceError(w http.ResponseWriter, err error) {
	if appErr, ok := AsError(err); ok {
		h.writeError(w, appErr.StatusCode(), appErr.Kind.String(), appErr.Message, appErr.Details)
		return
	}
	h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred", nil)
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs, take the first one
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
