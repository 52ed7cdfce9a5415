package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"tenant-bootstrapper/core/config"
	"tenant-bootstrapper/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var bootstrapFlags runFlags

// bootstrapCmd runs a bootstrap and exits.
var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap <spec-file>",
	Short: "Bootstrap a tenant from a spec file",
	Long: `Bootstrap a tenant from a JSON or YAML spec file.

Shapes, languages, price variants, stock locations, vat types, topic maps and
grids are created when missing, then every item is created or updated and
published according to the publish policy.

Examples:
  # Bootstrap in the tenant default language
  bootstrap tenant.yaml

  # Norwegian content, keep topics already set on items
  bootstrap tenant.yaml --language no --topics amend

  # Publish every item, even those that were drafts
  bootstrap tenant.yaml --publish publish --verbose`,
	Args: cobra.ExactArgs(1),
	RunE: runBootstrap,
}

func init() {
	bootstrapFlags.register(bootstrapCmd)
	RootCmd.AddCommand(bootstrapCmd)
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := bootstrapFlags.apply(cfg); err != nil {
		return err
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logg.Sync()
	zap.ReplaceGlobals(logg)

	s, _, err := loadSpec(args[0], logg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := newRunner(ctx, cfg, logg).run(ctx, s)
	if err != nil {
		return err
	}
	if res.Items.Failed > 0 || len(res.FailedAreas) > 0 {
		return fmt.Errorf("bootstrap finished with %d failed items and %d failed areas", res.Items.Failed, len(res.FailedAreas))
	}
	return nil
}
