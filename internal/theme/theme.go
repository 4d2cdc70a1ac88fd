// Package theme decides the light/dark theme of a page and persists the
// choice in a cookie.
package theme

import (
	"net/http"
	"time"
)

// Theme is a page colour scheme.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// DefaultCookie is the name of the cookie that carries the theme.
const DefaultCookie = "theme"

// CookieMaxAge is how long a chosen theme is remembered.
const CookieMaxAge = 365 * 24 * time.Hour

// Parse returns the theme named s.
func Parse(s string) (Theme, bool) {
	switch Theme(s) {
	case Light, Dark:
		return Theme(s), true
	}
	return "", false
}

// Toggle flips dark to light and anything else to dark.
func (t Theme) Toggle() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

// Icon is the Bootstrap Icons class shown on the toggle button.
func (t Theme) Icon() string {
	if t == Dark {
		return "bi bi-moon-fill"
	}
	return "bi bi-sun-fill"
}

func (t Theme) String() string { return string(t) }

// Service reads and writes the theme cookie.
type Service struct {
	cookie string
	def    Theme
	secure bool
}

// NewService returns a Service. An invalid default falls back to Light.
func NewService(cookie string, def string, secure bool) *Service {
	if cookie == "" {
		cookie = DefaultCookie
	}
	d, ok := Parse(def)
	if !ok {
		d = Light
	}
	return &Service{cookie: cookie, def: d, secure: secure}
}

// Default returns the theme used when the browser has not chosen one.
func (s *Service) Default() Theme { return s.def }

// FromRequest returns the theme stored in the cookie, or the default when
// the cookie is missing or holds an unknown value.
func (s *Service) FromRequest(r *http.Request) Theme {
	c, err := r.Cookie(s.cookie)
	if err != nil {
		return s.def
	}
	if t, ok := Parse(c.Value); ok {
		return t
	}
	return s.def
}

// Set persists t. The cookie is readable from script so the page can apply
// the theme before first paint.
func (s *Service) Set(w http.ResponseWriter, t Theme) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookie,
		Value:    string(t),
		Path:     "/",
		MaxAge:   int(CookieMaxAge / time.Second),
		SameSite: http.SameSiteLaxMode,
		Secure:   s.secure,
		HttpOnly: false,
	})
}
