package cmd

import (
	"fmt"

	"tenant-bootstrapper/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// validateCmd checks a spec file without contacting the API.
var validateCmd = &cobra.Command{
	Use:   "validate <spec-file>",
	Short: "Check a spec file for structural problems",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logg, err := logger.New(&logger.Config{Level: "info", Format: "console"})
		if err != nil {
			return err
		}
		defer logg.Sync()

		s, problems, err := loadSpec(args[0], logg)
		if err != nil {
			return err
		}
		if len(problems) > 0 {
			return fmt.Errorf("spec has %d problems", len(problems))
		}
		logg.Info("Spec is valid",
			zap.Int("shapes", len(s.Shapes)),
			zap.Int("languages", len(s.Languages)),
			zap.Int("items", len(s.Items)),
		)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(validateCmd)
}
