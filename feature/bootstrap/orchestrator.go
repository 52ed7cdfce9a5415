package bootstrap

import (
	"context"
	"fmt"
	"time"

	"tenant-bootstrapper/core/api"
	"tenant-bootstrapper/core/events"
	"tenant-bootstrapper/feature/components"
	"tenant-bootstrapper/feature/items"
	"tenant-bootstrapper/feature/media"
	"tenant-bootstrapper/feature/resolver"
	"tenant-bootstrapper/feature/shapes"
	"tenant-bootstrapper/feature/spec"
	"tenant-bootstrapper/feature/tenant"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AreaMedia is the event area of media warnings raised before items run.
const AreaMedia = "media"

// Media uploads files and reports whether video playlists can be transcoded.
// *media.Service implements it.
type Media interface {
	media.Uploader
	TranscoderAvailable() bool
}

// Options configure a run.
type Options struct {
	TenantID string
	Items    items.Options
}

// Result summarises a finished run.
type Result struct {
	Language    string        `json:"language"`
	Items       items.Summary `json:"items"`
	FailedAreas []string      `json:"failedAreas,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// Orchestrator runs every area of a spec against one tenant.
type Orchestrator struct {
	caller api.Caller
	media  Media
	sink   events.Sink
	logger *zap.Logger
	opts   Options
}

// NewOrchestrator creates an orchestrator. m may be nil when the spec holds
// no media; media components then compile to nothing.
func NewOrchestrator(caller api.Caller, m Media, sink events.Sink, logger *zap.Logger, opts Options) *Orchestrator {
	if sink == nil {
		sink = events.Discard
	}
	return &Orchestrator{caller: caller, media: m, sink: sink, logger: logger, opts: opts}
}

// Run bootstraps s. The returned error is reserved for cancellation and for
// failures that leave nothing to reconcile items against.
func (o *Orchestrator) Run(ctx context.Context, s *spec.Spec) (Result, error) {
	start := time.Now()
	var res Result

	registry := shapes.NewRegistry()
	ten := tenant.NewService(o.caller, o.opts.TenantID, o.sink, o.logger)
	catalog := ten.Catalog()

	area := func(name string, fn func(ctx context.Context) error) error {
		failed, err := o.area(ctx, name, fn)
		if failed {
			res.FailedAreas = append(res.FailedAreas, name)
		}
		return err
	}

	if err := area(shapes.AreaName, func(ctx context.Context) error {
		return shapes.NewArea(o.caller, o.opts.TenantID, registry, o.sink, o.logger).Sync(ctx, s.Shapes)
	}); err != nil {
		return res, err
	}

	if err := area(tenant.AreaLanguages, func(ctx context.Context) error {
		return ten.SyncLanguages(ctx, s.Languages)
	}); err != nil {
		return res, err
	}

	res.Language = o.opts.Items.Language
	if res.Language == "" {
		res.Language = catalog.DefaultLanguage
	}
	if res.Language == "" {
		res.Language = s.DefaultLanguage()
	}
	if res.Language == "" {
		return res, fmt.Errorf("no target language: the tenant has no languages")
	}

	// These areas fill disjoint parts of the catalog.
	var (
		g      errgroup.Group
		failed = make([]bool, 4)
	)
	settings := []struct {
		name string
		fn   func(ctx context.Context) error
	}{
		{tenant.AreaPriceVariants, func(ctx context.Context) error { return ten.SyncPriceVariants(ctx, s.PriceVariants) }},
		{tenant.AreaStockLocations, func(ctx context.Context) error { return ten.SyncStockLocations(ctx, s.StockLocations) }},
		{tenant.AreaVatTypes, func(ctx context.Context) error { return ten.SyncVatTypes(ctx, s.VatTypes) }},
		{tenant.AreaSubscriptionPlans, ten.LoadSubscriptionPlans},
	}
	for i, st := range settings {
		i, st := i, st
		g.Go(func() error {
			var err error
			failed[i], err = o.area(ctx, st.name, st.fn)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	for i, st := range settings {
		if failed[i] {
			res.FailedAreas = append(res.FailedAreas, st.name)
		}
	}

	others := catalog.OtherLanguages(res.Language)
	if err := area(tenant.AreaTopics, func(ctx context.Context) error {
		if err := ten.SyncTopics(ctx, s.TopicMaps, res.Language); err != nil {
			return err
		}
		for _, lang := range others {
			if err := ten.SyncTopics(ctx, nil, lang); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return res, err
	}

	if err := area(tenant.AreaGrids, func(ctx context.Context) error {
		if err := ten.SyncGrids(ctx, s.Grids, res.Language); err != nil {
			return err
		}
		for _, lang := range others {
			if err := ten.SyncGrids(ctx, nil, lang); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return res, err
	}

	if err := ten.LoadRoot(ctx); err != nil {
		return res, err
	}

	var uploader media.Uploader
	if o.media != nil {
		uploader = o.media
		if !o.media.TranscoderAvailable() {
			o.sink.Emit(events.Event{
				Type:    events.TypeWarning,
				Area:    AreaMedia,
				Code:    events.CodeFFmpegUnavailable,
				Message: "ffmpeg is not installed, m3u8 video sources will fail to upload",
			})
		}
	}

	compiler := components.NewCompiler(uploader, catalog, o.sink, o.logger)
	itemOpts := o.opts.Items
	itemOpts.Language = res.Language
	engine := items.NewEngine(o.caller, o.opts.TenantID, registry, catalog, compiler,
		resolver.New(o.caller, o.opts.TenantID), o.sink, o.logger, itemOpts)

	o.status(items.Area)
	itemsStart := time.Now()
	summary, err := engine.Run(ctx, s.Items)
	res.Items = summary
	if err != nil {
		return res, err
	}
	o.sink.Emit(events.Event{
		Type:     events.TypeAreaDone,
		Area:     items.Area,
		Message:  fmt.Sprintf("%d items created, %d updated, %d published, %d failed", summary.Created, summary.Updated, summary.Published, summary.Failed),
		Duration: time.Since(itemsStart),
	})

	res.Duration = time.Since(start)
	o.sink.Emit(events.Event{Type: events.TypeDone, Message: "Bootstrap finished", Duration: res.Duration})
	return res, nil
}

// area runs one area. A failure other than an abort is reported as an error
// event and failed is set; the area is done either way.
func (o *Orchestrator) area(ctx context.Context, name string, fn func(ctx context.Context) error) (failed bool, err error) {
	o.status(name)
	start := time.Now()

	if err := fn(ctx); err != nil {
		if api.IsAbort(err) {
			return false, err
		}
		failed = true
		o.sink.Emit(events.Event{
			Type:    events.TypeError,
			Area:    name,
			Code:    events.CodeOf(err, events.CodeRemoteError),
			Message: fmt.Sprintf("failed to bootstrap %s: %v", name, err),
		})
	}

	o.sink.Emit(events.Event{Type: events.TypeAreaDone, Area: name, Message: name + " done", Duration: time.Since(start)})
	return failed, nil
}

func (o *Orchestrator) status(area string) {
	o.sink.Emit(events.Event{Type: events.TypeStatusUpdate, Area: area, Message: "Bootstrapping " + area})
}

// Notifier turns scheduler error notifications into error events.
func Notifier(sink events.Sink) api.ErrorNotifier {
	return func(message string, willRetry bool) {
		sink.Emit(events.Event{
			Type:      events.TypeError,
			Code:      events.CodeRemoteError,
			Message:   message,
			WillRetry: willRetry,
		})
	}
}
