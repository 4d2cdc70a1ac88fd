package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joestump/feedback-web/internal/auth"
	"github.com/joestump/feedback-web/internal/build"
	"github.com/joestump/feedback-web/internal/config"
	"github.com/joestump/feedback-web/internal/flash"
	"github.com/joestump/feedback-web/internal/handler"
	"github.com/joestump/feedback-web/internal/logging"
	"github.com/joestump/feedback-web/internal/session"
	"github.com/joestump/feedback-web/internal/theme"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			log, err := logging.New(logging.Options{
				Level:      cfg.Log.Level,
				Format:     cfg.Log.Format,
				File:       cfg.Log.File,
				MaxSizeMB:  cfg.Log.MaxSizeMB,
				MaxBackups: cfg.Log.MaxBackups,
				MaxAgeDays: cfg.Log.MaxAgeDays,
			})
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			secure := !cfg.InsecureCookies
			sessionManager := auth.NewSessionManager(cfg.Session.Lifetime, secure)
			flashes := flash.NewNotifier(sessionManager, cfg.Flash.DismissAfter)
			themes := theme.NewService(cfg.Theme.Cookie, cfg.Theme.Default, secure)

			probe := session.NewCookieProbe(cfg.Session.AccessCookie, cfg.Session.RefreshCookie, secure)
			client, err := session.NewClient(cfg.Upstream.URL, cfg.Upstream.Timeout)
			if err != nil {
				return err
			}
			var (
				sessions session.Service = client
				cache    session.Forgetter
			)
			if cfg.Session.CacheTTL > 0 {
				cached, err := session.NewCachedClient(client, probe, cfg.Session.CacheSize, cfg.Session.CacheTTL)
				if err != nil {
					return err
				}
				sessions, cache = cached, cached
			}

			registry, err := loadForms(themes, flashes)
			if err != nil {
				return err
			}

			upstream, err := handler.NewUpstreamProxy(cfg.Upstream.URL, flashes, log)
			if err != nil {
				return err
			}

			router := handler.NewRouter(handler.Deps{
				SessionManager: sessionManager,
				AuthHandlers:   auth.NewHandlers(sessions, probe, log),
				AuthMiddleware: auth.NewMiddleware(sessions, probe, log),
				Forms:          registry,
				Themes:         themes,
				Flashes:        flashes,
				Upstream:       upstream,
				SessionCache:   cache,
				Logger:         log,
			})

			srv := &http.Server{
				Addr:              cfg.HTTP.Addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Info("listening",
					zap.String("addr", cfg.HTTP.Addr),
					zap.String("upstream", client.String()),
					zap.Strings("forms", registry.Names()),
					zap.String("version", build.String()),
				)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
