package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/guidepress-io/guidepress/internal/interfaces/cli/migrate"
	"github.com/guidepress-io/guidepress/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "guidepress",
		Short: "Guidepress membership and entitlement service",
		Long:  `Guidepress serves tier entitlements, usage metering, and subscription lifecycle management for the guide marketplace.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
