package handler

import (
	"encoding/json"
	"net/http"

	"github.com/joestump/feedback-web/internal/theme"
)

// ThemeHandler handles the theme toggle endpoint.
type ThemeHandler struct {
	themes *theme.Service
}

// NewThemeHandler creates a new ThemeHandler.
func NewThemeHandler(themes *theme.Service) *ThemeHandler {
	return &ThemeHandler{themes: themes}
}

// Toggle handles POST /theme. An explicit theme=light|dark is applied as
// given; without one the current theme is flipped. Script callers get an
// HX-Trigger to swap the page in place, plain form posts are redirected back.
func (h *ThemeHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	var next theme.Theme
	if v := r.FormValue("theme"); v != "" {
		t, ok := theme.Parse(v)
		if !ok {
			http.Error(w, "invalid theme", http.StatusBadRequest)
			return
		}
		next = t
	} else {
		next = h.themes.FromRequest(r).Toggle()
	}

	h.themes.Set(w, next)

	if !isHTMX(r) {
		back := r.Referer()
		if back == "" {
			back = "/"
		}
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	trigger, _ := json.Marshal(map[string]any{
		"themeChanged": map[string]string{"theme": next.String(), "icon": next.Icon()},
	})
	w.Header().Set("HX-Trigger", string(trigger))
	w.WriteHeader(http.StatusOK)
}
