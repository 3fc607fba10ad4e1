package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shindakun/urlshort/internal/auth"
	"github.com/shindakun/urlshort/internal/authapi"
	"github.com/shindakun/urlshort/internal/metrics"
	"github.com/shindakun/urlshort/internal/version"
	"github.com/shindakun/urlshort/internal/web"
	"github.com/shindakun/urlshort/internal/web/handlers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the sign-in page",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	logger.Info("starting urlshort", zap.String("version", version.GetVersion()))

	m := metrics.New()

	client, err := authapi.New(cfg.Auth.Endpoint,
		authapi.WithTimeout(cfg.Auth.Timeout),
		authapi.WithUserAgent(cfg.Auth.UserAgent),
		authapi.WithLogger(logger),
		authapi.WithObserver(m.ObserveAuth),
	)
	if err != nil {
		return err
	}
	logger.Info("auth endpoint configured", zap.String("endpoint", client.Endpoint()))

	sessionManager := auth.InitSessions(
		cfg.Session.Secret,
		cfg.Session.MaxAge,
		cfg.SecureCookies(),
		auth.ParseSameSite(cfg.Session.CookieSameSite),
	)

	h, err := handlers.New(sessionManager, client, cfg.Notification.Duration, m.ObserveOutcome, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.GetAddr(),
		Handler:      web.NewRouter(cfg, h, sessionManager, m.Handler(), logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server listening", zap.String("addr", cfg.GetAddr()), zap.String("base_url", cfg.GetBaseURL()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("server shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return err
	}
	logger.Info("server exited")
	return nil
}
