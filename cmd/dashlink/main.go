package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/dashlink/internal/config"
	"github.com/MrSnakeDoc/dashlink/internal/logger"
	"github.com/MrSnakeDoc/dashlink/internal/version"
)

func newRootCmd() *cobra.Command {
	serve := newServeCmd()
	root := &cobra.Command{
		Use:           "dashlink",
		Short:         "Dashboard link manager with admin and per-user links",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		// running the binary without a subcommand starts the server
		RunE: serve.RunE,
	}
	root.SetVersionTemplate("dashlink {{.Version}}\n")
	root.AddCommand(serve, newMigrateCmd(), newTokenCmd(), newPurgeUserCmd())
	return root
}

// setup loads the configuration and builds the logger shared by every
// subcommand.
func setup() (*config.Config, logger.Logger) {
	cfg := config.Load()
	return cfg, logger.New(cfg.LogLevel, cfg.PrettyLog)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ dashlink: %v\n", err)
		os.Exit(1)
	}
}
