package shapes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"tenant-bootstrapper/core/api"
	"tenant-bootstrapper/core/events"
	"tenant-bootstrapper/core/graphql"
	"tenant-bootstrapper/core/reconcile"

	"go.uber.org/zap"
)

// AreaName is the event area of shape synchronisation.
const AreaName = "shapes"

// Area makes sure every desired shape exists remotely and fills the registry.
type Area struct {
	caller   api.Caller
	tenantID string
	registry *Registry
	sink     events.Sink
	logger   *zap.Logger
}

// NewArea creates the shapes area.
func NewArea(caller api.Caller, tenantID string, registry *Registry, sink events.Sink, logger *zap.Logger) *Area {
	return &Area{caller: caller, tenantID: tenantID, registry: registry, sink: sink, logger: logger}
}

var adapter = reconcile.Funcs[Shape, Shape]{
	Kind:     AreaName,
	Desired:  func(s Shape) string { return s.Identifier },
	Existing: func(s Shape) string { return s.Identifier },
	Diff:     diffShapes,
}

// Sync loads remote shapes, creates missing ones and updates those whose
// component layout differs. Every desired shape that exists after the sync is
// registered with its desired definition.
func (a *Area) Sync(ctx context.Context, desired []Shape) error {
	res, err := a.caller.Call(ctx, graphql.GetShapes(a.tenantID))
	if err != nil {
		return fmt.Errorf("failed to fetch shapes: %w", err)
	}
	if err := res.Err(); err != nil {
		return fmt.Errorf("failed to fetch shapes: %w", err)
	}

	var existing []Shape
	if err := res.Decode("$.shape.getMany", &existing); err != nil {
		return err
	}
	for _, s := range existing {
		a.registry.Add(s)
	}

	normalized := make([]Shape, 0, len(desired))
	for _, s := range desired {
		id, truncated := NormalizeIdentifier(s.Identifier)
		if truncated {
			a.sink.Emit(events.Event{
				Type:    events.TypeWarning,
				Area:    AreaName,
				Code:    events.CodeShapeIdentifierTooLong,
				Message: fmt.Sprintf("shape identifier %q is longer than %d characters and was truncated to %q", s.Identifier, MaxIdentifierLength, id),
			})
		}
		s.Identifier = id
		normalized = append(normalized, s)
	}

	plan := reconcile.BuildPlan[Shape, Shape](adapter, normalized, existing)
	a.logger.Info("Shapes planned",
		zap.Int("create", plan.Summary.CreateActions),
		zap.Int("update", plan.Summary.UpdateActions),
		zap.Int("remote_only", plan.Summary.RemoteOnly),
	)

	_, applyErr := reconcile.ApplyPlan(ctx, plan, a, func(done, total int) {
		a.sink.Emit(events.Event{Type: events.TypeProgress, Area: AreaName, Progress: float64(done) / float64(total)})
	})

	for _, s := range normalized {
		if _, ok := plan.Existing[s.Identifier]; ok {
			a.registry.Add(s)
		}
	}
	return applyErr
}

// Create implements reconcile.Mutator.
func (a *Area) Create(ctx context.Context, s Shape) (Shape, error) {
	input, err := toInput(s)
	if err != nil {
		return Shape{}, err
	}
	if err := a.mutate(ctx, graphql.CreateShape(a.tenantID, input)); err != nil {
		return Shape{}, err
	}
	return s, nil
}

// Update implements reconcile.Updater.
func (a *Area) Update(ctx context.Context, s Shape, _ Shape) (Shape, error) {
	input, err := toInput(s)
	if err != nil {
		return Shape{}, err
	}
	delete(input, "identifier")
	delete(input, "type")
	if err := a.mutate(ctx, graphql.UpdateShape(a.tenantID, s.Identifier, input)); err != nil {
		return Shape{}, err
	}
	return s, nil
}

func (a *Area) mutate(ctx context.Context, req api.Request) error {
	res, err := a.caller.Call(ctx, req)
	if err != nil {
		return err
	}
	return res.Err()
}

func toInput(s Shape) (map[string]any, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode shape %s: %w", s.Identifier, err)
	}
	var input map[string]any
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, fmt.Errorf("failed to encode shape %s: %w", s.Identifier, err)
	}
	return input, nil
}

func diffShapes(d, e Shape) []string {
	var diff []string
	if d.Type != "" && d.Type != e.Type {
		diff = append(diff, fmt.Sprintf("type: spec=%s remote=%s", d.Type, e.Type))
	}
	if d.Name != "" && d.Name != e.Name {
		diff = append(diff, fmt.Sprintf("name: spec=%s remote=%s", d.Name, e.Name))
	}
	if a, b := layout(d.Components), layout(e.Components); a != b {
		diff = append(diff, fmt.Sprintf("components: spec=[%s] remote=[%s]", a, b))
	}
	if a, b := layout(d.VariantComponents), layout(e.VariantComponents); a != b {
		diff = append(diff, fmt.Sprintf("variantComponents: spec=[%s] remote=[%s]", a, b))
	}
	return diff
}

func layout(list []Component) string {
	parts := make([]string, 0, len(list))
	for _, c := range list {
		parts = append(parts, c.ID+":"+string(c.Type))
	}
	return strings.Join(parts, ",")
}
