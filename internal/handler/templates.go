package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/joestump/feedback-web/internal/auth"
	"github.com/joestump/feedback-web/internal/flash"
	"github.com/joestump/feedback-web/internal/nav"
	"github.com/joestump/feedback-web/internal/session"
	"github.com/joestump/feedback-web/internal/theme"
	"github.com/joestump/feedback-web/web"
)

// BasePage carries layout-level data available to every template.
type BasePage struct {
	Title     string
	Theme     theme.Theme
	ThemeIcon string
	User      *session.User // nil for guests
	Nav       nav.Menu
	Flashes   []flash.Message
}

// pageCache maps a render key (e.g. "landing.html", "auth/login.html") to a
// compiled template set containing base.html + partials + that one page file.
// Each page gets its own set so {{define "content"}} blocks don't collide.
var pageCache map[string]*template.Template

func init() {
	partials, err := fs.Glob(web.TemplateFS, "templates/partials/*.html")
	if err != nil {
		panic("glob partials: " + err.Error())
	}

	// Count how many page files share each basename to detect collisions.
	baseCount := map[string]int{}
	_ = fs.WalkDir(web.TemplateFS, "templates/pages", func(p string, d fs.DirEntry, e error) error {
		if e != nil || d.IsDir() || !strings.HasSuffix(p, ".html") {
			return e
		}
		baseCount[filepath.Base(p)]++
		return nil
	})

	pageCache = make(map[string]*template.Template)
	err = fs.WalkDir(web.TemplateFS, "templates/pages", func(p string, d fs.DirEntry, e error) error {
		if e != nil || d.IsDir() || !strings.HasSuffix(p, ".html") {
			return e
		}

		files := make([]string, 0, 2+len(partials))
		files = append(files, "templates/base.html")
		files = append(files, partials...)
		files = append(files, p)

		t, err := template.New("").ParseFS(web.TemplateFS, files...)
		if err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}

		rel, _ := strings.CutPrefix(p, "templates/pages/")
		pageCache[rel] = t

		// Alias under bare basename when it is unique across all page files.
		base := filepath.Base(p)
		if baseCount[base] == 1 {
			pageCache[base] = t
		}
		return nil
	})
	if err != nil {
		panic("build page cache: " + err.Error())
	}
}

// executePage writes a full page (base layout + named page) to w.
func executePage(w io.Writer, tmpl string, data any) error {
	t, ok := pageCache[tmpl]
	if !ok {
		return fmt.Errorf("template not found: %s", tmpl)
	}
	return t.ExecuteTemplate(w, "base", data)
}

// isHTMX returns true when the request was sent by HTMX or the page script.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// Pages builds the layout data shared by every page.
type Pages struct {
	themes  *theme.Service
	flashes *flash.Notifier
}

// NewPages returns a Pages.
func NewPages(themes *theme.Service, flashes *flash.Notifier) *Pages {
	return &Pages{themes: themes, flashes: flashes}
}

// Base returns the layout data for r. Queued flash messages are consumed.
func (p *Pages) Base(r *http.Request, title string) BasePage {
	t := p.themes.FromRequest(r)
	user := auth.UserFromContext(r.Context())
	return BasePage{
		Title:     title,
		Theme:     t,
		ThemeIcon: t.Icon(),
		User:      user,
		Nav:       nav.Build(user),
		Flashes:   p.flashes.Pop(r.Context()),
	}
}

// Blank returns layout data for rendering outside a request.
func (p *Pages) Blank() BasePage {
	t := p.themes.Default()
	return BasePage{Theme: t, ThemeIcon: t.Icon(), Nav: nav.Build(nil)}
}

// render executes a full-page template with the given status.
// tmpl is the render key, e.g. "landing.html" or "auth/login.html".
func render(w http.ResponseWriter, status int, tmpl string, data any) {
	var buf bytes.Buffer
	if err := executePage(&buf, tmpl, data); err != nil {
		http.Error(w, "template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
