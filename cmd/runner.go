package cmd

import (
	"context"
	"fmt"

	"tenant-bootstrapper/core/api"
	"tenant-bootstrapper/core/config"
	"tenant-bootstrapper/core/database"
	"tenant-bootstrapper/core/events"
	"tenant-bootstrapper/core/journal"
	"tenant-bootstrapper/core/logger"
	"tenant-bootstrapper/core/storage"
	"tenant-bootstrapper/feature/bootstrap"
	"tenant-bootstrapper/feature/items"
	"tenant-bootstrapper/feature/media"
	"tenant-bootstrapper/feature/spec"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// runFlags override the bootstrap section of the configuration.
type runFlags struct {
	language string
	topics   string
	publish  string
	verbose  bool
	silent   bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.language, "language", "", "Target language (defaults to the tenant default language)")
	cmd.Flags().StringVar(&f.topics, "topics", "", "Topic policy for existing items: replace or amend")
	cmd.Flags().StringVar(&f.publish, "publish", "", "Publish policy: auto or publish")
	cmd.Flags().BoolVar(&f.verbose, "verbose", false, "Log every API request")
	cmd.Flags().BoolVar(&f.silent, "silent", false, "Only log API warnings and errors")
}

// apply copies the set flags onto cfg and checks the resulting run settings.
func (f *runFlags) apply(cfg *config.Config) error {
	if f.language != "" {
		cfg.Bootstrap.Language = f.language
	}
	if f.topics != "" {
		cfg.Bootstrap.Topics = f.topics
	}
	if f.publish != "" {
		cfg.Bootstrap.Publish = f.publish
	}
	switch {
	case f.verbose:
		cfg.API.Verbosity = api.VerbosityVerbose
	case f.silent:
		cfg.API.Verbosity = api.VerbositySilent
	}

	if cfg.Bootstrap.TenantID == "" {
		return fmt.Errorf("tenant id is required (BOOTSTRAP_TENANT_ID)")
	}
	switch items.TopicPolicy(cfg.Bootstrap.Topics) {
	case items.TopicsReplace, items.TopicsAmend:
	default:
		return fmt.Errorf("invalid topic policy %q: use replace or amend", cfg.Bootstrap.Topics)
	}
	switch items.PublishPolicy(cfg.Bootstrap.Publish) {
	case items.PublishAuto, items.PublishAlways:
	default:
		return fmt.Errorf("invalid publish policy %q: use auto or publish", cfg.Bootstrap.Publish)
	}
	return nil
}

// runner holds everything one bootstrap run needs.
type runner struct {
	logger       *zap.Logger
	tracker      *bootstrap.Tracker
	journal      *journal.Journal
	manager      *api.Manager
	orchestrator *bootstrap.Orchestrator
}

func newRunner(ctx context.Context, cfg *config.Config, logg *zap.Logger) *runner {
	runID := uuid.NewString()
	logg = logg.With(zap.String("run_id", runID), zap.String("tenant_id", cfg.Bootstrap.TenantID))

	r := &runner{logger: logg, tracker: bootstrap.NewTracker(runID)}
	sinks := []events.Sink{r.tracker, events.LogSink(logg.Named("events"))}

	// The journal is optional: without it the status API only lacks event queries.
	if db, err := database.Connect(cfg.Database); err != nil {
		logg.Warn("Journal database unavailable", zap.Error(err))
	} else if j, err := journal.New(db, runID, logg); err != nil {
		logg.Warn("Journal unavailable", zap.Error(err))
	} else {
		r.journal = j
		sinks = append(sinks, j)
	}
	sink := events.Multi(sinks...)

	r.manager = api.NewManager(api.NewHTTPTransport(cfg.API),
		api.WithLogger(logger.Component(logg, "api", cfg.API.Verbosity == api.VerbositySilent)),
		api.WithNotifier(bootstrap.Notifier(sink)),
		api.WithInitialWorkers(cfg.API.InitialWorkers),
		api.WithVerbose(cfg.API.Verbosity == api.VerbosityVerbose),
	)

	r.orchestrator = bootstrap.NewOrchestrator(r.manager, newMedia(ctx, cfg, r.manager, logg), sink, logg, bootstrap.Options{
		TenantID: cfg.Bootstrap.TenantID,
		Items: items.Options{
			Language:       cfg.Bootstrap.Language,
			Topics:         items.TopicPolicy(cfg.Bootstrap.Topics),
			Publish:        items.PublishPolicy(cfg.Bootstrap.Publish),
			FallbackFolder: cfg.Bootstrap.FallbackFolder,
		},
	})
	return r
}

// newMedia connects the object store. Without it media components are skipped
// and the run goes on.
func newMedia(ctx context.Context, cfg *config.Config, caller api.Caller, logg *zap.Logger) bootstrap.Media {
	store, err := storage.NewClient(cfg.Storage)
	if err != nil {
		logg.Warn("Media uploads disabled", zap.Error(err))
		return nil
	}
	if err := storage.EnsureBucket(ctx, store, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
		logg.Warn("Media uploads disabled", zap.Error(err))
		return nil
	}
	return media.NewService(store, cfg.Storage.Bucket, caller, cfg.Bootstrap.TenantID, logg.Named("media"),
		media.WithPrefix(cfg.Storage.Prefix))
}

// run bootstraps s and stops the scheduler afterwards.
func (r *runner) run(ctx context.Context, s *spec.Spec) (bootstrap.Result, error) {
	defer r.manager.Kill()

	res, err := r.orchestrator.Run(ctx, s)
	if err != nil {
		r.tracker.Fail(err)
		return res, fmt.Errorf("bootstrap aborted: %w", err)
	}

	r.logger.Info("Bootstrap finished",
		zap.String("language", res.Language),
		zap.Int("created", res.Items.Created),
		zap.Int("updated", res.Items.Updated),
		zap.Int("published", res.Items.Published),
		zap.Int("failed", res.Items.Failed),
		zap.Strings("failed_areas", res.FailedAreas),
		zap.Duration("duration", res.Duration),
	)
	return res, nil
}

// loadSpec reads the spec file and logs its structural problems.
func loadSpec(path string, logg *zap.Logger) (*spec.Spec, []spec.Problem, error) {
	s, err := spec.Load(path)
	if err != nil {
		return nil, nil, err
	}
	problems := s.Validate()
	for _, p := range problems {
		logg.Warn("Spec problem", zap.String("path", p.Path), zap.String("problem", p.Message))
	}
	return s, problems, nil
}
