package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shindakun/urlshort/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "urlshort %s\n", version.GetFullVersion())
	},
}
