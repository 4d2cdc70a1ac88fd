package session

import (
	"context"
	"fmt"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/zeebo/xxh3"
)

var (
	_ Service   = (*CachedClient)(nil)
	_ Forgetter = (*CachedClient)(nil)
)

type cachedUser struct {
	user    User
	expires time.Time
}

// CachedClient remembers CurrentUser answers per access cookie for a short
// time, so rendering a page does not cost an upstream round trip every time.
// Keys are hashes of the cookie value; the cookie itself is never stored.
type CachedClient struct {
	next  Service
	probe TokenProbe
	cache *lru.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewCachedClient wraps next with an LRU of at most size users, each kept
// for ttl.
func NewCachedClient(next Service, probe TokenProbe, size int, ttl time.Duration) (*CachedClient, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("session: user cache: %w", err)
	}
	return &CachedClient{next: next, probe: probe, cache: cache, ttl: ttl, now: time.Now}, nil
}

func (c *CachedClient) key(r *http.Request) (uint64, bool) {
	tok := c.probe.AccessToken(r)
	if tok == "" {
		return 0, false
	}
	return xxh3.HashString(tok), true
}

// CurrentUser returns the cached user for the request's access cookie, or
// asks the upstream and caches the answer. Failures are never cached.
func (c *CachedClient) CurrentUser(ctx context.Context, r *http.Request) (*User, error) {
	key, ok := c.key(r)
	if !ok {
		return c.next.CurrentUser(ctx, r)
	}
	if v, hit := c.cache.Get(key); hit {
		e := v.(cachedUser)
		if c.now().Before(e.expires) {
			u := e.user
			return &u, nil
		}
		c.cache.Remove(key)
	}

	u, err := c.next.CurrentUser(ctx, r)
	if err != nil {
		c.cache.Remove(key)
		return nil, err
	}
	c.cache.Add(key, cachedUser{user: *u, expires: c.now().Add(c.ttl)})
	return u, nil
}

// Refresh drops the cached user before refreshing.
func (c *CachedClient) Refresh(ctx context.Context, r *http.Request) ([]*http.Cookie, error) {
	c.Forget(r)
	return c.next.Refresh(ctx, r)
}

// Logout drops the cached user before logging out.
func (c *CachedClient) Logout(ctx context.Context, r *http.Request) error {
	c.Forget(r)
	return c.next.Logout(ctx, r)
}

// Forget removes any cached user for the request's access cookie.
func (c *CachedClient) Forget(r *http.Request) {
	if key, ok := c.key(r); ok {
		c.cache.Remove(key)
	}
}
