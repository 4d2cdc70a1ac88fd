package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/joestump/feedback-web/internal/auth"
	"github.com/joestump/feedback-web/internal/flash"
	"github.com/joestump/feedback-web/internal/forms"
	"github.com/joestump/feedback-web/internal/session"
	"github.com/joestump/feedback-web/internal/testutil"
	"github.com/joestump/feedback-web/internal/theme"
	"github.com/joestump/feedback-web/web"
)

type routerEnv struct {
	up     *testutil.Upstream
	router http.Handler
}

// newRouterEnv wires the full router against a fake upstream, the same way
// the serve command does.
func newRouterEnv(t *testing.T) *routerEnv {
	t.Helper()
	up := testutil.NewUpstream(t)
	up.AddUser("good", session.User{ID: 1, Name: "Ada", Email: "ada@example.com", Role: "user"})

	sm := auth.NewSessionManager(time.Hour, false)
	flashes := flash.NewNotifier(sm, 0)
	themes := theme.NewService("", "light", false)
	probe := session.NewCookieProbe("", "", false)
	client, err := session.NewClient(up.URL, time.Second)
	require.NoError(t, err)
	cached, err := session.NewCachedClient(client, probe, 16, time.Minute)
	require.NoError(t, err)

	registry, err := forms.LoadFS(web.FormsFS, "forms.yaml")
	require.NoError(t, err)
	require.NoError(t, CompileForms(registry, NewPages(themes, flashes)))

	proxy, err := NewUpstreamProxy(up.URL, flashes, zap.NewNop())
	require.NoError(t, err)

	router := NewRouter(Deps{
		SessionManager: sm,
		AuthHandlers:   auth.NewHandlers(cached, probe, zap.NewNop()),
		AuthMiddleware: auth.NewMiddleware(cached, probe, zap.NewNop()),
		Forms:          registry,
		Themes:         themes,
		Flashes:        flashes,
		Upstream:       proxy,
		SessionCache:   cached,
		Logger:         zap.NewNop(),
	})
	return &routerEnv{up: up, router: router}
}

func (e *routerEnv) do(r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, r)
	return w
}

func postForm(path string, values url.Values, cookies ...*http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		r.AddCookie(c)
	}
	return r
}

func signedIn() *http.Cookie {
	return &http.Cookie{Name: session.DefaultAccessCookie, Value: "good"}
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "feedback_web_session" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestCompileForms_RealTemplates(t *testing.T) {
	registry, err := forms.LoadFS(web.FormsFS, "forms.yaml")
	require.NoError(t, err)
	sm := auth.NewSessionManager(time.Hour, false)
	require.NoError(t, CompileForms(registry, NewPages(theme.NewService("", "", false), flash.NewNotifier(sm, 0))))

	want := map[string][]string{
		"login":            {"email", "password"},
		"register":         {"name", "email", "password", "confirm_password"},
		"profile":          {"name", "email", "bio"},
		"welcome-feedback": {"rating", "text"},
		"feedback":         {"rating", "text"},
	}
	for name, fields := range want {
		tmpl, err := registry.Template(name)
		require.NoError(t, err, name)
		var got []string
		for _, f := range tmpl.Fields {
			got = append(got, f.Name)
		}
		assert.Equal(t, fields, got, name)
	}

	login, _ := registry.Template("login")
	assert.Equal(t, "required", login.Field("password").Kind.String())
	reg, _ := registry.Template("register")
	require.NotNil(t, reg.Field("confirm_password").Pair)
	profile, _ := registry.Template("profile")
	assert.False(t, profile.Field("bio").Required)
}

func TestRouter_Healthz(t *testing.T) {
	env := newRouterEnv(t)
	w := env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestRouter_Static(t *testing.T) {
	env := newRouterEnv(t)
	w := env.do(httptest.NewRequest(http.MethodGet, "/static/js/app.js", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "IntersectionObserver")
}

func TestRouter_Landing(t *testing.T) {
	env := newRouterEnv(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `data-bs-theme="light"`)
	assert.Contains(t, w.Body.String(), "/auth/register")

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(signedIn())
	w = env.do(r)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
}

func TestRouter_ShowForm(t *testing.T) {
	env := newRouterEnv(t)
	w := env.do(httptest.NewRequest(http.MethodGet, "/auth/register", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `id="register-form"`)
	assert.Contains(t, body, `action="/auth/register"`)
	assert.Contains(t, body, `id="confirm_password-error"`)
}

func TestRouter_RequiredFormRedirectsGuests(t *testing.T) {
	env := newRouterEnv(t)
	w := env.do(httptest.NewRequest(http.MethodGet, "/feedback/submit", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login?redirect=%2Ffeedback%2Fsubmit", w.Header().Get("Location"))

	r := httptest.NewRequest(http.MethodGet, "/feedback/submit", nil)
	r.AddCookie(signedIn())
	w = env.do(r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `id="feedback-form"`)
}

func TestRouter_GuestFormRedirectsUsers(t *testing.T) {
	env := newRouterEnv(t)
	r := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	r.AddCookie(signedIn())
	w := env.do(r)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
}

func TestRouter_InvalidSubmissionIsHeldBack(t *testing.T) {
	env := newRouterEnv(t)
	w := env.do(postForm("/auth/register", url.Values{
		"name":             {"A"},
		"email":            {"not-an-email"},
		"password":         {"Passw0rd!"},
		"confirm_password": {"different"},
	}))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, MsgIncomplete)
	assert.Contains(t, body, "Name must be at least 2 characters long")
	assert.Contains(t, body, "Please enter a valid email address")
	assert.Contains(t, body, "Passwords do not match")
	assert.Contains(t, body, "is-invalid")
	assert.Contains(t, body, "is-valid")
	assert.Contains(t, body, `value="A"`)
	assert.NotContains(t, body, "Passw0rd!")
	assert.Empty(t, env.up.Forwarded())
}

func TestRouter_EmptySubmissionMarksEveryField(t *testing.T) {
	env := newRouterEnv(t)
	w := env.do(postForm("/auth/login", url.Values{}))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Please enter a valid email address")
	assert.Contains(t, body, "This field is required")
	assert.Empty(t, env.up.Forwarded())
}

func TestRouter_ValidSubmissionIsForwarded(t *testing.T) {
	env := newRouterEnv(t)
	values := url.Values{
		"name":             {"Ada Lovelace"},
		"email":            {"ada@example.com"},
		"password":         {"Passw0rd!"},
		"confirm_password": {"Passw0rd!"},
	}
	w := env.do(postForm("/auth/register", values))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "upstream POST /auth/register", w.Body.String())
	fwd := env.up.Forwarded()
	require.Len(t, fwd, 1)
	assert.Equal(t, values.Encode(), fwd[0].Body)
	assert.Equal(t, "application/x-www-form-urlencoded", fwd[0].Header.Get("Content-Type"))
}

func TestRouter_FeedbackRadioGroup(t *testing.T) {
	env := newRouterEnv(t)

	w := env.do(postForm("/feedback/submit", url.Values{"text": {"far too short"}, "rating": {"7"}}, signedIn()))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Rating must be a number between 1 and 5")

	w = env.do(postForm("/feedback/submit", url.Values{"text": {"Loving it so far"}, "rating": {"4"}}, signedIn()))
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, env.up.Forwarded(), 1)
}

func TestRouter_ForwardedSubmissionRefreshesUser(t *testing.T) {
	env := newRouterEnv(t)

	show := func() string {
		r := httptest.NewRequest(http.MethodGet, "/feedback/submit", nil)
		r.AddCookie(signedIn())
		w := env.do(r)
		require.Equal(t, http.StatusOK, w.Code)
		return w.Body.String()
	}

	assert.Contains(t, show(), "Complete Welcome Feedback")
	env.up.AddUser("good", session.User{ID: 1, Name: "Ada", Email: "ada@example.com", Role: "user", HasSubmittedFeedback: true})
	assert.Contains(t, show(), "Complete Welcome Feedback", "user is served from cache")

	w := env.do(postForm("/feedback/welcome", url.Values{"rating": {"5"}, "text": {"Happy to be here"}}, signedIn()))
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, env.up.Forwarded(), 1)

	body := show()
	assert.Contains(t, body, "My Feedback")
	assert.NotContains(t, body, "Complete Welcome Feedback")
	assert.Equal(t, 2, env.up.Calls("me"))
}

func TestRouter_MultipartRejected(t *testing.T) {
	env := newRouterEnv(t)
	r := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("--x--"))
	r.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	w := env.do(r)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	assert.Empty(t, env.up.Forwarded())
}

func TestRouter_UnknownPathsGoUpstream(t *testing.T) {
	env := newRouterEnv(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "upstream GET /dashboard", w.Body.String())

	w = env.do(httptest.NewRequest(http.MethodPut, "/auth/login", nil))
	assert.Equal(t, "upstream PUT /auth/login", w.Body.String())
	assert.Len(t, env.up.Forwarded(), 2)
}

func TestRouter_UpstreamFlashShownOnNextPage(t *testing.T) {
	env := newRouterEnv(t)
	env.up.SetFlash("success", "<b>Feedback</b> saved")

	w := env.do(httptest.NewRequest(http.MethodGet, "/feedback/list", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get(flash.HeaderMessage))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(sessionCookie(t, w))
	w = env.do(r)
	body := w.Body.String()
	assert.Contains(t, body, "Feedback saved")
	assert.Contains(t, body, "alert-success")
	assert.NotContains(t, body, "<b>Feedback</b>")
}

func TestRouter_ThemeToggle(t *testing.T) {
	env := newRouterEnv(t)

	r := httptest.NewRequest(http.MethodPost, "/theme", nil)
	r.Header.Set("HX-Request", "true")
	w := env.do(r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"themeChanged":{"theme":"dark","icon":"bi bi-moon-fill"}}`, w.Header().Get("HX-Trigger"))

	r = httptest.NewRequest(http.MethodPost, "/theme", nil)
	r.Header.Set("Referer", "/auth/login")
	r.AddCookie(&http.Cookie{Name: theme.DefaultCookie, Value: "dark"})
	w = env.do(r)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/auth/login", w.Header().Get("Location"))
	var got string
	for _, c := range w.Result().Cookies() {
		if c.Name == theme.DefaultCookie {
			got = c.Value
		}
	}
	assert.Equal(t, "light", got)
}

func TestRouter_ThemeRejectsUnknown(t *testing.T) {
	env := newRouterEnv(t)
	w := env.do(postForm("/theme", url.Values{"theme": {"purple"}}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_LogoutEndsSession(t *testing.T) {
	env := newRouterEnv(t)
	r := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	r.AddCookie(signedIn())
	w := env.do(r)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, auth.LoginPath, w.Header().Get("Location"))
	assert.Equal(t, 1, env.up.Calls("logout"))
}
