package security

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionCookiePath scopes session cookies to the JSON API
const SessionCookiePath = "/api/"

// GenerateSessionID returns a random login session id
func GenerateSessionID() string {
	return uuid.NewString()
}

// IsSecureRequest reports whether the client reached us over HTTPS,
// directly or through a TLS-terminating proxy.
func IsSecureRequest(r *http.Request) bool {
	if r.TLS != nil || r.URL.Scheme == "https" {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func apiCookie(r *http.Request, name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     SessionCookiePath,
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteStrictMode,
	}
}

// CreateSessionCookie carries a login session until expires
func CreateSessionCookie(r *http.Request, name, sessionID string, expires time.Time) *http.Cookie {
	c := apiCookie(r, name, sessionID)
	c.Expires = expires
	return c
}

// CreateDeleteCookie makes the browser drop the session cookie
func CreateDeleteCookie(r *http.Request, name string) *http.Cookie {
	c := apiCookie(r, name, "")
	c.MaxAge = -1
	return c
}
