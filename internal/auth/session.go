package auth

import (
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
)

// NewSessionManager creates the SCS session manager that carries flash
// messages between requests. Authentication itself lives in the upstream's
// cookies; this session holds nothing else, so an in-memory store is enough.
func NewSessionManager(lifetime time.Duration, secure bool) *scs.SessionManager {
	sm := scs.New()
	sm.Store = memstore.New()
	sm.Lifetime = lifetime
	sm.Cookie.Name = "feedback_web_session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = secure
	sm.Cookie.SameSite = http.SameSiteLaxMode
	return sm
}
