package cmd

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"tenant-bootstrapper/core/config"
	"tenant-bootstrapper/core/loader"
	"tenant-bootstrapper/core/logger"
	"tenant-bootstrapper/core/middleware/auth"
	"tenant-bootstrapper/core/middleware/rayid"
	"tenant-bootstrapper/feature/bootstrap"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "tenant-bootstrapper/docs/swagger"
)

// @title Tenant Bootstrapper API
// @version 1.0
// @description Status and event journal of tenant bootstrap runs.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

var serveFlags runFlags

// serveCmd runs a bootstrap while serving its status over HTTP.
var serveCmd = &cobra.Command{
	Use:   "serve <spec-file>",
	Short: "Bootstrap a tenant and serve the run status",
	Long: `Starts the HTTP status server, then bootstraps the tenant from the spec file.
The server keeps answering /bootstrap/status and /bootstrap/events after the run
ends, until the process is interrupted.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		if err := serveFlags.apply(cfg); err != nil {
			log.Fatalf("Invalid run settings: %v", err)
		}
		if err := cfg.Server.Validate(); err != nil {
			log.Fatalf("Invalid server settings: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Load the spec before anything listens
		s, _, err := loadSpec(args[0], logg)
		if err != nil {
			logg.Fatal("Failed to load spec", zap.Error(err))
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		r := newRunner(ctx, cfg, logg)

		// 4. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		// 5. Initialize Feature Loader
		mgr := loader.NewManager()
		mgr.Register(bootstrap.NewFeature(bootstrap.NewService(r.tracker, r.journal, logg)))

		// RayID must be first to trace everything
		app.Use(rayid.New())
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// Swagger Documentation (Public)
		app.Get("/swagger/*", swagger.HandlerDefault)

		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 6. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(cfg.Server.Addr()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 7. Run the bootstrap
		go func() {
			if _, err := r.run(ctx, s); err != nil && !errors.Is(err, context.Canceled) {
				logg.Error("Bootstrap failed", zap.Error(err))
			}
		}()

		// 8. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		cancel()
		_ = app.Shutdown()
	},
}

func init() {
	serveFlags.register(serveCmd)
	RootCmd.AddCommand(serveCmd)
}
