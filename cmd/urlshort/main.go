package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shindakun/urlshort/internal/config"
	"github.com/shindakun/urlshort/internal/logging"
)

var (
	// Global flags
	configPath string
	verbose    bool

	// Set up by PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "urlshort",
	Short: "Sign in to the URL shortener",
	Long: `urlshort serves the sign-in page of the URL shortener and offers the
same form in the terminal.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}

		path := resolveConfigPath()

		var err error
		if cmd.Name() == "serve" {
			cfg, err = config.Load(path)
		} else {
			cfg, err = config.LoadClient(path)
		}
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		// The terminal form owns the screen; its logs go to a file
		if cmd.Name() == "login" {
			logger, err = logging.NewFile(cfg.Logging, verbose)
		} else {
			logger, err = logging.New(cfg.Logging, verbose)
		}
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "./config.yaml"
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $CONFIG_PATH or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd, loginCmd, whoamiCmd, logoutCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
