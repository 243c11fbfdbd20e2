package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"deutschdrill/internal/models"
	"deutschdrill/internal/security"

	"go.uber.org/zap"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	UserContextKey    ContextKey = "user"
	SessionContextKey ContextKey = "session"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	auth     Authenticator
	activity ActivityTracker
	csrf     *security.CSRFGenerator
	logger   *zap.Logger
	now      func() time.Time
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(auth Authenticator, activity ActivityTracker, csrf *security.CSRFGenerator, logger *zap.Logger) *Middleware {
	return &Middleware{auth: auth, activity: activity, csrf: csrf, logger: logger, now: time.Now}
}

// RequireAuth accepts a bearer token or a session cookie and touches the
// user's activity log on every request.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var user *models.User
		var err error
		if token, ok := bearerToken(r); ok {
			user, err = m.auth.ValidateToken(ctx, token)
		} else if cookie, cerr := r.Cookie(SessionCookieName); cerr == nil {
			user, err = m.auth.ValidateSession(ctx, cookie.Value)
			if err != nil {
				http.SetCookie(w, security.CreateDeleteCookie(r, SessionCookieName))
			} else {
				ctx = context.WithValue(ctx, SessionContextKey, cookie.Value)
			}
		} else {
			respondWithError(w, m.logger, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}
		if err != nil {
			respondWithError(w, m.logger, http.StatusUnauthorized, ErrUnauthorized, "authentication failed", err)
			return
		}

		if err := m.activity.Touch(ctx, user.ID, m.now()); err != nil {
			m.logger.Warn("failed to record activity", zap.Int64("user_id", user.ID), zap.Error(err))
		}

		ctx = context.WithValue(ctx, UserContextKey, user)
		next(w, r.WithContext(ctx))
	}
}

// CSRFProtect checks the CSRF header on cookie-authenticated writes.
// Bearer-token requests carry no ambient credentials and pass through.
func (m *Middleware) CSRFProtect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := GetSessionIDFromContext(r.Context())
		if sessionID == "" || isSafeMethod(r.Method) {
			next(w, r)
			return
		}
		if !m.csrf.ValidateToken(sessionID, r.Header.Get(security.CSRFHeader)) {
			respondWithError(w, m.logger, http.StatusForbidden, "invalid CSRF token", "", nil)
			return
		}
		next(w, r)
	}
}

// RequireAdmin must run inside RequireAuth
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r.Context())
		if user == nil || !user.IsAdmin {
			respondWithError(w, m.logger, http.StatusForbidden, ErrForbidden, "", nil)
			return
		}
		next(w, r)
	}
}

// RateLimit rejects clients that exceed the limiter's budget
func (m *Middleware) RateLimit(limiter *security.RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow(security.GetClientIP(r)) {
			w.Header().Set("Retry-After", "60")
			respondWithError(w, m.logger, http.StatusTooManyRequests, ErrTooManyRequests, "", nil)
			return
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Logging middleware logs HTTP requests
func Logging(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)),
		)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func isSafeMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}

// GetUserFromContext retrieves the user from the request context
func GetUserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// GetSessionIDFromContext returns the cookie session, empty for bearer requests
func GetSessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(SessionContextKey).(string)
	return id
}
