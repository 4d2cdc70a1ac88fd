package handler

import (
	"io/fs"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/joestump/feedback-web/internal/auth"
	"github.com/joestump/feedback-web/internal/flash"
	"github.com/joestump/feedback-web/internal/forms"
	"github.com/joestump/feedback-web/internal/logging"
	"github.com/joestump/feedback-web/internal/session"
	"github.com/joestump/feedback-web/internal/theme"
	"github.com/joestump/feedback-web/web"
)

// Deps holds all dependencies required to build the HTTP router.
type Deps struct {
	SessionManager *scs.SessionManager
	AuthHandlers   *auth.Handlers
	AuthMiddleware *auth.Middleware
	Forms          *forms.Registry
	Themes         *theme.Service
	Flashes        *flash.Notifier
	Upstream       http.Handler
	SessionCache   session.Forgetter // optional
	Logger         *zap.Logger
}

// NewRouter assembles the full chi router with all middleware and routes.
// Registered forms must already be compiled. Anything this tier does not
// serve itself is passed to the upstream.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(deps.SessionManager.LoadAndSave)

	// Static assets (embedded). Use fs.Sub so the file server sees
	// css/app.css and js/app.js directly, not static/css/... paths.
	staticSub, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		panic("failed to sub static FS: " + err.Error())
	}
	r.Handle("/static/*", http.StripPrefix("/static", http.FileServerFS(staticSub)))

	r.Get("/healthz", Healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/auth/logout", deps.AuthHandlers.Logout)
	r.Post("/auth/refresh", deps.AuthHandlers.Refresh)

	themeHandler := NewThemeHandler(deps.Themes)
	r.Post("/theme", themeHandler.Toggle)

	pages := NewPages(deps.Themes, deps.Flashes)

	landing := NewLandingHandler(pages)
	r.With(deps.AuthMiddleware.OptionalUser).Get("/", landing.Index)

	formsHandler := NewFormsHandler(deps.Forms, pages, deps.Flashes, deps.Upstream, deps.SessionCache, deps.Logger)
	for _, e := range deps.Forms.Entries() {
		gate := r.With(formAccess(deps.AuthMiddleware, e.Auth))
		gate.Get(e.Path, formsHandler.Show(e))
		gate.Post(e.Path, formsHandler.Submit(e))
	}

	r.NotFound(deps.Upstream.ServeHTTP)
	r.MethodNotAllowed(deps.Upstream.ServeHTTP)

	return r
}

func formAccess(m *auth.Middleware, a forms.Auth) func(http.Handler) http.Handler {
	switch a {
	case forms.AuthRequired:
		return m.RequireAuth
	case forms.AuthGuest:
		return m.RequireGuest
	default:
		return m.OptionalUser
	}
}
