package auth

import (
	"context"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/joestump/feedback-web/internal/metrics"
	"github.com/joestump/feedback-web/internal/session"
)

type contextKey string

const UserContextKey contextKey = "user"

// LoginPath is where unauthenticated browsers are sent.
const LoginPath = "/auth/login"

// Middleware provides HTTP middleware for authentication and authorization.
// Whether a session is valid is always decided by the upstream.
type Middleware struct {
	sessions session.Service
	probe    session.SessionProbe
	log      *zap.Logger
}

// NewMiddleware creates a new auth Middleware.
func NewMiddleware(svc session.Service, probe session.SessionProbe, log *zap.Logger) *Middleware {
	return &Middleware{sessions: svc, probe: probe, log: log}
}

// OptionalUser loads the current user when a session cookie is present and
// sets it on the request context. Requests without a session pass through as
// guests. A session the upstream rejects is ended: on the login page the
// cookies are cleared and the page renders as guest, anywhere else the
// browser is redirected to the login page.
func (m *Middleware) OptionalUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.probe.HasSession(r) {
			metrics.SessionChecksTotal.WithLabelValues("none").Inc()
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.sessions.CurrentUser(r.Context(), r)
		if err != nil {
			metrics.SessionChecksTotal.WithLabelValues("rejected").Inc()
			m.log.Debug("session rejected", zap.String("path", r.URL.Path), zap.Error(err))
			if r.URL.Path == LoginPath {
				m.probe.Clear(w)
				next.ServeHTTP(w, r)
				return
			}
			endSession(w, r, m.sessions, m.probe, m.log)
			return
		}

		metrics.SessionChecksTotal.WithLabelValues("user").Inc()
		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth redirects to /auth/login if no valid session exists.
// On success, sets the *session.User on the request context.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return m.OptionalUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == nil {
			http.Redirect(w, r, LoginPath+"?redirect="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// RequireGuest sends signed-in users to their dashboard.
func (m *Middleware) RequireGuest(next http.Handler) http.Handler {
	return m.OptionalUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) != nil {
			http.Redirect(w, r, "/dashboard", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// UserFromContext retrieves the authenticated user from the context.
func UserFromContext(ctx context.Context) *session.User {
	u, _ := ctx.Value(UserContextKey).(*session.User)
	return u
}
