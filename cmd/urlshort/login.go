package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shindakun/urlshort/internal/authapi"
	"github.com/shindakun/urlshort/internal/models"
	"github.com/shindakun/urlshort/internal/storage"
	"github.com/shindakun/urlshort/internal/tui"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in from the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return runLogin(ctx)
	},
}

func runLogin(ctx context.Context) error {
	db, err := storage.InitDB(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	client, err := authapi.New(cfg.Auth.Endpoint,
		authapi.WithTimeout(cfg.Auth.Timeout),
		authapi.WithUserAgent(cfg.Auth.UserAgent),
		authapi.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	m, err := tui.New(tui.Deps{
		Auth:     client,
		Store:    storage.NewKV(db),
		Duration: cfg.Notification.Duration,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	final, err := tui.Run(ctx, m)
	if err != nil {
		return err
	}

	if route := final.Route(); route != models.LoginPath {
		logger.Info("signed in", zap.String("route", route))
		fmt.Printf("Signed in. Profile: %s\n", route)
	}
	return nil
}
