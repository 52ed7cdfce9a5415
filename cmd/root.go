package cmd

import (
	"fmt"
	"os"

	"tenant-bootstrapper/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "tenant-bootstrapper",
	Short: "Tenant Bootstrapper",
	Long: `Tenant Bootstrapper makes a headless commerce tenant match a declarative spec.
It creates missing shapes, languages, catalog settings, topics and grids, then
creates or updates every item of the spec and publishes it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console format at debug level gives readable ISO8601 timestamps on a terminal.
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
