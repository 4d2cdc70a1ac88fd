package handler

import (
	"net/http"

	"github.com/joestump/feedback-web/internal/auth"
)

// LandingHandler serves the public landing page.
type LandingHandler struct {
	pages *Pages
}

// NewLandingHandler creates a new LandingHandler.
func NewLandingHandler(pages *Pages) *LandingHandler { return &LandingHandler{pages: pages} }

// Index serves GET /. Authenticated users are redirected to /dashboard.
func (h *LandingHandler) Index(w http.ResponseWriter, r *http.Request) {
	if auth.UserFromContext(r.Context()) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	render(w, http.StatusOK, "landing.html", h.pages.Base(r, "Welcome"))
}

// Healthz answers liveness probes.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
