package items

import (
	"context"
	"errors"
	"fmt"

	"tenant-bootstrapper/core/api"
	"tenant-bootstrapper/core/events"
	"tenant-bootstrapper/feature/components"
	"tenant-bootstrapper/feature/resolver"
	"tenant-bootstrapper/feature/shapes"
	"tenant-bootstrapper/feature/spec"
	"tenant-bootstrapper/feature/tenant"

	"go.uber.org/zap"
)

// Area is the event area of item reconciliation.
const Area = "items"

// TopicPolicy decides how spec topics combine with the topics of an existing item.
type TopicPolicy string

const (
	TopicsReplace TopicPolicy = "replace"
	TopicsAmend   TopicPolicy = "amend"
)

// PublishPolicy decides which items are published in the second pass.
type PublishPolicy string

const (
	// PublishAuto publishes new items and keeps the published or draft state
	// of existing ones.
	PublishAuto PublishPolicy = "auto"
	// PublishAlways publishes every item.
	PublishAlways PublishPolicy = "publish"
)

// Options tune a run.
type Options struct {
	// Language is the target language. Empty means the tenant default.
	Language string
	Topics   TopicPolicy
	Publish  PublishPolicy
	// FallbackFolder is the external reference of the folder that receives
	// items whose declared parent cannot be found. Empty means the root.
	FallbackFolder string
}

// Summary counts what a run did.
type Summary struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Published int `json:"published"`
	Failed    int `json:"failed"`
}

// Engine reconciles items. An Engine may run several times, but runs must not
// overlap since they share the resolver.
type Engine struct {
	caller   api.Caller
	tenantID string
	registry *shapes.Registry
	catalog  *tenant.Catalog
	compiler *components.Compiler
	resolver *resolver.Resolver
	sink     events.Sink
	logger   *zap.Logger
	opts     Options
}

// NewEngine creates an engine. catalog must be filled before Run is called.
func NewEngine(
	caller api.Caller,
	tenantID string,
	registry *shapes.Registry,
	catalog *tenant.Catalog,
	compiler *components.Compiler,
	res *resolver.Resolver,
	sink events.Sink,
	logger *zap.Logger,
	opts Options,
) *Engine {
	if sink == nil {
		sink = events.Discard
	}
	if opts.Topics == "" {
		opts.Topics = TopicsReplace
	}
	if opts.Publish == "" {
		opts.Publish = PublishAuto
	}
	return &Engine{
		caller:   caller,
		tenantID: tenantID,
		registry: registry,
		catalog:  catalog,
		compiler: compiler,
		resolver: res,
		sink:     sink,
		logger:   logger,
		opts:     opts,
	}
}

// state is the side table entry of one tree node.
type state struct {
	id       string
	parentID string
	exists   bool
	failed   bool
	shape    *shapes.Shape

	// product input sent by create, reused by the update that follows it
	created map[string]any

	// per language
	topicIDs   map[string][]string
	components map[string]*components.Set
	variants   map[string]map[string]*components.Set
}

func (st *state) setVariant(language, sku string, set *components.Set) {
	if st.variants == nil {
		st.variants = make(map[string]map[string]*components.Set)
	}
	if st.variants[language] == nil {
		st.variants[language] = make(map[string]*components.Set)
	}
	st.variants[language][sku] = set
}

type run struct {
	*Engine
	tree       *spec.Tree
	states     []state
	versions   *resolver.Versions
	language   string
	rootID     string
	fallbackID string
	done       int
	total      int
	summary    Summary
}

// Run reconciles items and their descendants. Item failures are reported as
// events and counted in the Summary; the returned error is reserved for
// cancellation and setup failures.
func (e *Engine) Run(ctx context.Context, items []*spec.Item) (Summary, error) {
	tree := spec.NewTree(items)
	r := &run{
		Engine:   e,
		tree:     tree,
		states:   make([]state, tree.Len()),
		versions: resolver.NewVersions(e.caller),
		language: e.opts.Language,
		rootID:   e.catalog.RootItemID,
		total:    2 * tree.Len(),
	}
	if r.language == "" {
		r.language = e.catalog.DefaultLanguage
	}
	if r.language == "" {
		return Summary{}, errors.New("no target language: the tenant has no default language")
	}
	if tree.Len() == 0 {
		return Summary{}, nil
	}

	r.fallbackID = r.rootID
	if e.opts.FallbackFolder != "" {
		entry, err := e.resolver.Resolve(ctx, resolver.Ref{ExternalReference: e.opts.FallbackFolder}, r.language, resolver.ModeQuery)
		if err != nil {
			return Summary{}, fmt.Errorf("failed to resolve fallback folder: %w", err)
		}
		if entry.Found() {
			r.fallbackID = entry.ItemID
		} else {
			e.logger.Warn("Fallback folder not found, using the tenant root", zap.String("external_reference", e.opts.FallbackFolder))
		}
	}

	for _, h := range tree.Roots() {
		if err := r.put(ctx, h, r.rootID); err != nil {
			return r.summary, err
		}
	}
	for _, h := range tree.Roots() {
		if err := r.relate(ctx, h); err != nil {
			return r.summary, err
		}
	}
	return r.summary, nil
}

// languages returns the target language followed by every other tenant language.
func (r *run) languages() []string {
	return append([]string{r.language}, r.catalog.OtherLanguages(r.language)...)
}

func (r *run) ref(item *spec.Item, st *state, language string) *events.ItemRef {
	ref := &events.ItemRef{
		ID:                st.id,
		Name:              item.Name.Get(language),
		Language:          language,
		ShapeIdentifier:   item.Shape,
		ExternalReference: item.ExternalReference,
		CataloguePath:     item.CataloguePath,
	}
	if st.shape != nil {
		ref.ShapeType = string(st.shape.Type)
	}
	return ref
}

func (r *run) tick(n int) {
	r.done += n
	r.sink.Emit(events.Event{Type: events.TypeProgress, Area: Area, Progress: float64(r.done) / float64(r.total)})
}

// descendants counts the nodes below h.
func (r *run) descendants(h spec.Handle) int {
	n := 0
	for _, child := range r.tree.Node(h).Children {
		n += 1 + r.descendants(child)
	}
	return n
}

// fatal reports errors that end the whole run instead of a single item.
func fatal(err error) bool {
	return api.IsAbort(err)
}

// mutate sends req. Query errors were already reported by the scheduler, so
// they only abandon this call.
func (r *run) mutate(ctx context.Context, req api.Request, ref *events.ItemRef) error {
	res, err := r.caller.Call(ctx, req)
	if err != nil {
		return err
	}
	if qe := res.Err(); qe != nil {
		r.logger.Warn("Item mutation failed", zap.String("item", ref.Key()), zap.String("language", ref.Language), zap.Error(qe))
	}
	return nil
}
