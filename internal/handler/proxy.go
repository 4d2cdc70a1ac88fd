package handler

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"go.uber.org/zap"

	"github.com/joestump/feedback-web/internal/flash"
	"github.com/joestump/feedback-web/internal/metrics"
)

// NewUpstreamProxy returns a reverse proxy to the application server.
// Flash headers on upstream responses are moved into the browser session so
// the next rendered page shows them.
func NewUpstreamProxy(upstream string, flashes *flash.Notifier, log *zap.Logger) (*httputil.ReverseProxy, error) {
	target, err := url.Parse(upstream)
	if err != nil {
		return nil, fmt.Errorf("parse upstream url: %w", err)
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return nil, fmt.Errorf("upstream url %q must be http or https", upstream)
	}

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			pr.Out.Host = pr.In.Host
		},
		ModifyResponse: func(resp *http.Response) error {
			if flashes.ImportHeaders(resp.Request.Context(), resp.Header) {
				resp.Header.Del(flash.HeaderType)
				resp.Header.Del(flash.HeaderMessage)
			}
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			metrics.UpstreamErrorsTotal.Inc()
			log.Error("upstream request failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
			http.Error(w, "bad gateway", http.StatusBadGateway)
		},
	}, nil
}
