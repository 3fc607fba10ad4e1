package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shindakun/urlshort/internal/models"
	"github.com/shindakun/urlshort/internal/storage"
)

var errNotSignedIn = errors.New("not signed in")

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Print the signed-in username",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := storage.InitDB(cfg.Storage.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		kv := storage.NewKV(db)
		user, err := kv.Get(cmd.Context(), models.KeyUsername)
		if errors.Is(err, storage.ErrNotFound) {
			return errNotSignedIn
		}
		if err != nil {
			return err
		}
		if _, err := kv.Get(cmd.Context(), models.KeyToken); errors.Is(err, storage.ErrNotFound) {
			return errNotSignedIn
		} else if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s (since %s)\n", user.Value, user.UpdatedAt.Local().Format("2006-01-02 15:04"))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored token and username",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := storage.InitDB(cfg.Storage.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := storage.NewKV(db).Delete(cmd.Context(), models.KeyToken, models.KeyUsername); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
		return nil
	},
}
