// Package session talks to the upstream application about the browser's
// session. It never inspects token contents: a session is "present" when its
// cookie is, and "valid" when the upstream says so.
package session

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Cookie names issued by the upstream.
const (
	DefaultAccessCookie  = "access_token_cookie"
	DefaultRefreshCookie = "refresh_token_cookie"
)

// ErrUnauthenticated is returned when the upstream rejects the session.
var ErrUnauthenticated = errors.New("session: not authenticated")

// User is the account returned by GET /auth/me.
type User struct {
	ID                   int64  `json:"id"`
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Role                 string `json:"role"`
	AvatarFilename       string `json:"avatar_filename"`
	HasSubmittedFeedback bool   `json:"has_submitted_feedback"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == "admin"
}

// SessionProbe answers whether the request carries session cookies and can
// remove them from the browser.
type SessionProbe interface {
	HasSession(r *http.Request) bool
	HasRefresh(r *http.Request) bool
	Clear(w http.ResponseWriter)
}

// TokenProbe is a SessionProbe that also exposes the raw access token, used
// to key cached lookups.
type TokenProbe interface {
	SessionProbe
	AccessToken(r *http.Request) string
}

// Forgetter drops whatever is remembered about the request's session.
type Forgetter interface {
	Forget(r *http.Request)
}

// Service is the upstream session API.
type Service interface {
	CurrentUser(ctx context.Context, r *http.Request) (*User, error)
	Refresh(ctx context.Context, r *http.Request) ([]*http.Cookie, error)
	Logout(ctx context.Context, r *http.Request) error
}

var _ TokenProbe = CookieProbe{}

// CookieProbe implements TokenProbe by cookie name.
type CookieProbe struct {
	AccessCookie  string
	RefreshCookie string
	Secure        bool
}

// NewCookieProbe returns a probe for the given cookie names. Empty names
// fall back to the upstream defaults.
func NewCookieProbe(access, refresh string, secure bool) CookieProbe {
	if access == "" {
		access = DefaultAccessCookie
	}
	if refresh == "" {
		refresh = DefaultRefreshCookie
	}
	return CookieProbe{AccessCookie: access, RefreshCookie: refresh, Secure: secure}
}

// HasSession reports whether a non-empty access cookie is present.
func (p CookieProbe) HasSession(r *http.Request) bool {
	return p.AccessToken(r) != ""
}

// HasRefresh reports whether a non-empty refresh cookie is present.
func (p CookieProbe) HasRefresh(r *http.Request) bool {
	c, err := r.Cookie(p.RefreshCookie)
	return err == nil && c.Value != ""
}

// AccessToken returns the raw access cookie value, or "".
func (p CookieProbe) AccessToken(r *http.Request) string {
	c, err := r.Cookie(p.AccessCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

// Clear expires both session cookies on the browser.
func (p CookieProbe) Clear(w http.ResponseWriter) {
	for _, name := range []string{p.AccessCookie, p.RefreshCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			HttpOnly: true,
			Secure:   p.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
