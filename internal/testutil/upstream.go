package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/joestump/feedback-web/internal/session"
)

// Forwarded is a request that reached the fake upstream outside /auth.
type Forwarded struct {
	Method string
	Path   string
	Body   string
	Header http.Header
}

// Upstream is a fake application server implementing the three session
// endpoints and recording every other request.
type Upstream struct {
	*httptest.Server

	mu        sync.Mutex
	users     map[string]session.User
	refresh   map[string]string
	forwarded []Forwarded
	calls     map[string]int
	failMe    bool
	flashType string
	flashMsg  string
}

// NewUpstream starts a fake upstream that is closed when the test ends.
func NewUpstream(t *testing.T) *Upstream {
	t.Helper()
	u := &Upstream{
		users:   map[string]session.User{},
		refresh: map[string]string{},
		calls:   map[string]int{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/me", u.me)
	mux.HandleFunc("POST /auth/refresh", u.doRefresh)
	mux.HandleFunc("POST /auth/logout", u.logout)
	mux.HandleFunc("/", u.record)
	u.Server = httptest.NewServer(mux)
	t.Cleanup(u.Close)
	return u
}

// AddUser makes accessToken a valid session for user.
func (u *Upstream) AddUser(accessToken string, user session.User) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.users[accessToken] = user
}

// AddRefresh makes refreshToken exchangeable for accessToken.
func (u *Upstream) AddRefresh(refreshToken, accessToken string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.refresh[refreshToken] = accessToken
}

// FailMe makes GET /auth/me answer 503.
func (u *Upstream) FailMe(fail bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.failMe = fail
}

// SetFlash makes forwarded requests answer with flash headers.
func (u *Upstream) SetFlash(typ, msg string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.flashType, u.flashMsg = typ, msg
}

// Calls returns how often an endpoint ("me", "refresh", "logout") was hit.
func (u *Upstream) Calls(endpoint string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls[endpoint]
}

// Forwarded returns a copy of the recorded non-auth requests.
func (u *Upstream) Forwarded() []Forwarded {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]Forwarded(nil), u.forwarded...)
}

func (u *Upstream) me(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.calls["me"]++
	fail := u.failMe
	var user session.User
	ok := false
	if c, err := r.Cookie(session.DefaultAccessCookie); err == nil {
		user, ok = u.users[c.Value]
	}
	u.mu.Unlock()

	if fail {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (u *Upstream) doRefresh(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.calls["refresh"]++
	var access string
	ok := false
	if c, err := r.Cookie(session.DefaultRefreshCookie); err == nil {
		access, ok = u.refresh[c.Value]
	}
	u.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token refresh failed"})
		return
	}
	http.SetCookie(w, &http.Cookie{Name: session.DefaultAccessCookie, Value: access, Path: "/", HttpOnly: true})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Token refreshed successfully"})
}

func (u *Upstream) logout(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.calls["logout"]++
	u.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

func (u *Upstream) record(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	u.mu.Lock()
	u.forwarded = append(u.forwarded, Forwarded{
		Method: r.Method,
		Path:   r.URL.Path,
		Body:   string(body),
		Header: r.Header.Clone(),
	})
	typ, msg := u.flashType, u.flashMsg
	u.mu.Unlock()

	if msg != "" {
		w.Header().Set("X-Flash-Type", typ)
		w.Header().Set("X-Flash-Message", msg)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "upstream "+r.Method+" "+r.URL.Path)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
