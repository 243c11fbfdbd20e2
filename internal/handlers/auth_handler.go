package handlers

import (
	"net/http"
	"time"

	"deutschdrill/internal/models"
	"deutschdrill/internal/security"

	"go.uber.org/zap"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	auth     Authenticator
	activity ActivityTracker
	csrf     *security.CSRFGenerator
	logger   *zap.Logger
	now      func() time.Time
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth Authenticator, activity ActivityTracker, csrf *security.CSRFGenerator, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, activity: activity, csrf: csrf, logger: logger, now: time.Now}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	User      *models.User `json:"user"`
	CSRFToken string       `json:"csrf_token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login checks credentials, sets the session cookie and opens an activity log
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}

	session, user, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondWithServiceError(w, h.logger, "login failed", err)
		return
	}

	csrfToken, err := h.csrf.GenerateToken(session.ID)
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "failed to generate CSRF token", err)
		return
	}

	if err := h.activity.Start(r.Context(), user.ID, h.now()); err != nil {
		h.logger.Warn("failed to start activity log", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	http.SetCookie(w, security.CreateSessionCookie(r, SessionCookieName, session.ID, session.ExpiresAt))
	respondWithJSON(w, http.StatusOK, loginResponse{User: user, CSRFToken: csrfToken, ExpiresAt: session.ExpiresAt})
}

// Logout ends the session and closes the activity log
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if sessionID := GetSessionIDFromContext(ctx); sessionID != "" {
		if err := h.auth.Logout(ctx, sessionID); err != nil {
			h.logger.Warn("failed to delete session", zap.Error(err))
		}
	}
	if user := GetUserFromContext(ctx); user != nil {
		if err := h.activity.End(ctx, user.ID, h.now()); err != nil {
			h.logger.Warn("failed to close activity log", zap.Int64("user_id", user.ID), zap.Error(err))
		}
	}

	http.SetCookie(w, security.CreateDeleteCookie(r, SessionCookieName))
	w.WriteHeader(http.StatusNoContent)
}

// Token issues a bearer token for API clients
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}

	token, expiresAt, err := h.auth.IssueToken(r.Context(), req.Username, req.Password)
	if err != nil {
		respondWithServiceError(w, h.logger, "token request failed", err)
		return
	}
	respondWithJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: expiresAt})
}
