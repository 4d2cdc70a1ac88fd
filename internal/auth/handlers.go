package auth

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/joestump/feedback-web/internal/session"
)

// Handlers provides the session endpoints served by this tier. Both end up
// calling the upstream; neither looks inside a token.
type Handlers struct {
	sessions session.Service
	probe    session.SessionProbe
	log      *zap.Logger
}

// NewHandlers creates a new Handlers with the given dependencies.
func NewHandlers(svc session.Service, probe session.SessionProbe, log *zap.Logger) *Handlers {
	return &Handlers{sessions: svc, probe: probe, log: log}
}

// Logout handles POST /auth/logout: the upstream session is ended, the
// cookies are cleared and the browser goes to the login page.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	endSession(w, r, h.sessions, h.probe, h.log)
}

// Refresh handles POST /auth/refresh. New cookies from the upstream are
// passed to the browser. A failed refresh ends the session immediately.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	if !h.probe.HasRefresh(r) {
		endSession(w, r, h.sessions, h.probe, h.log)
		return
	}
	cookies, err := h.sessions.Refresh(r.Context(), r)
	if err != nil {
		h.log.Info("session refresh failed", zap.Error(err))
		endSession(w, r, h.sessions, h.probe, h.log)
		return
	}
	for _, c := range cookies {
		http.SetCookie(w, c)
	}
	w.WriteHeader(http.StatusNoContent)
}

// endSession is the fallback for a session that is gone or rejected:
// best-effort upstream logout, clear both cookies, send the browser to the
// login page.
func endSession(w http.ResponseWriter, r *http.Request, svc session.Service, probe session.SessionProbe, log *zap.Logger) {
	if probe.HasSession(r) || probe.HasRefresh(r) {
		if err := svc.Logout(r.Context(), r); err != nil {
			log.Debug("upstream logout failed", zap.Error(err))
		}
	}
	probe.Clear(w)
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", LoginPath)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, LoginPath, http.StatusFound)
}
