package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client calls the upstream auth endpoints on behalf of the browser,
// forwarding its cookies.
type Client struct {
	base *url.URL
	http *http.Client
}

// NewClient returns a Client for the upstream at baseURL. Every call is
// bounded by timeout.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("session: parse upstream url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("session: upstream url %q must be http or https", baseURL)
	}
	return &Client{base: u, http: &http.Client{Timeout: timeout}}, nil
}

// CurrentUser calls GET /auth/me.
func (c *Client) CurrentUser(ctx context.Context, r *http.Request) (*User, error) {
	resp, err := c.do(ctx, r, http.MethodGet, "/auth/me")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var body struct {
		User *User `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("session: decode /auth/me: %w", err)
	}
	if body.User == nil {
		return nil, fmt.Errorf("%w: /auth/me returned no user", ErrUnauthenticated)
	}
	return body.User, nil
}

// Refresh calls POST /auth/refresh and returns the cookies the upstream set,
// so they can be passed on to the browser.
func (c *Client) Refresh(ctx context.Context, r *http.Request) ([]*http.Cookie, error) {
	resp, err := c.do(ctx, r, http.MethodPost, "/auth/refresh")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Cookies(), nil
}

// Logout calls POST /auth/logout.
func (c *Client) Logout(ctx context.Context, r *http.Request) error {
	resp, err := c.do(ctx, r, http.MethodPost, "/auth/logout")
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// do sends a request to the upstream with the browser's cookies. Any
// non-2xx answer is reported as ErrUnauthenticated.
func (c *Client) do(ctx context.Context, r *http.Request, method, path string) (*http.Response, error) {
	target := c.base.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("session: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if r != nil {
		for _, ck := range r.Cookies() {
			req.AddCookie(ck)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("session: %s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: %s %s returned %d", ErrUnauthenticated, method, path, resp.StatusCode)
	}
	return resp, nil
}

// String returns the upstream base URL.
func (c *Client) String() string {
	return strings.TrimSuffix(c.base.String(), "/")
}
