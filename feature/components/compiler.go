package components

import (
	"context"
	"encoding/json"
	"fmt"

	"tenant-bootstrapper/core/events"
	"tenant-bootstrapper/core/utils"
	"tenant-bootstrapper/feature/media"
	"tenant-bootstrapper/feature/shapes"
	"tenant-bootstrapper/feature/spec"

	"go.uber.org/zap"
)

// GridLookup resolves a grid name to its remote id.
type GridLookup interface {
	GridID(name, language string) (string, bool)
}

// Scope is the item and language a value is compiled for. Item is only used
// to annotate events.
type Scope struct {
	Language string
	Item     *events.ItemRef
}

// Compiler turns raw component values into inputs.
type Compiler struct {
	uploader media.Uploader
	grids    GridLookup
	sink     events.Sink
	logger   *zap.Logger
}

// NewCompiler creates a compiler. uploader and grids may be nil when the
// compiled shapes have no media or grid components.
func NewCompiler(uploader media.Uploader, grids GridLookup, sink events.Sink, logger *zap.Logger) *Compiler {
	if sink == nil {
		sink = events.Discard
	}
	return &Compiler{uploader: uploader, grids: grids, sink: sink, logger: logger}
}

// cleared marks a value that compiles to an explicit clear.
type cleared struct{}

// CompileAll compiles every component of comps that defs declares. It returns
// nil when comps requests no action and a Set with Clear when comps is null.
// Component ids without a definition are ignored.
func (c *Compiler) CompileAll(ctx context.Context, sc Scope, defs []shapes.Component, comps spec.Components) (*Set, error) {
	if comps.IsNull() {
		return &Set{Clear: true}, nil
	}
	if comps.IsEmpty() {
		return nil, nil
	}

	set := &Set{}
	for _, id := range comps.Keys() {
		def, ok := definition(defs, id)
		if !ok {
			c.logger.Debug("Skipping undeclared component", zap.String("component_id", id), zap.String("item", sc.Item.Key()))
			continue
		}

		raw, _ := comps.Get(id)
		in, err := c.Compile(ctx, sc, def, raw)
		if err != nil {
			return nil, err
		}
		if in != nil {
			set.Inputs = append(set.Inputs, *in)
		}
	}
	return set, nil
}

// Compile compiles a single value against def. It returns nil when the value
// results in no action.
func (c *Compiler) Compile(ctx context.Context, sc Scope, def shapes.Component, raw json.RawMessage) (*Input, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	in := &Input{ComponentID: def.ID, Type: def.Type}
	if spec.IsNull(raw) {
		return in, nil
	}

	content, err := c.content(ctx, sc, def, raw)
	if err != nil {
		return nil, err
	}
	switch content.(type) {
	case nil:
		return nil, nil
	case cleared:
		return in, nil
	}
	in.Content = content
	return in, nil
}

func (c *Compiler) content(ctx context.Context, sc Scope, def shapes.Component, raw json.RawMessage) (any, error) {
	switch def.Type {
	case shapes.Boolean:
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, c.invalid(sc, def, err)
		}
		if !utils.ToBool(v) {
			return cleared{}, nil
		}
		return &BooleanContent{Value: true}, nil

	case shapes.SingleLine:
		return &SingleLineContent{Text: translate(raw, sc.Language)}, nil

	case shapes.RichText:
		rt, err := richText(raw, sc.Language)
		if err != nil {
			return nil, c.invalid(sc, def, err)
		}
		if rt == nil {
			return nil, nil
		}
		return rt, nil

	case shapes.Numeric:
		return numeric(raw), nil

	case shapes.Location:
		var v struct {
			Lat  any `json:"lat"`
			Long any `json:"long"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, c.invalid(sc, def, err)
		}
		return &LocationContent{Lat: utils.ToFloat(v.Lat), Long: utils.ToFloat(v.Long)}, nil

	case shapes.Datetime:
		ts, err := parseDatetime(raw)
		if err != nil {
			return nil, events.NewItemError(events.CodeInvalidDatetime, sc.Item,
				"component %q has an invalid date: %s", def.ID, string(raw))
		}
		if ts == "" {
			return cleared{}, nil
		}
		return &DatetimeContent{Datetime: ts}, nil

	case shapes.Selection:
		return &SelectionContent{Keys: selectionKeys(raw)}, nil

	case shapes.Images:
		return c.images(ctx, sc, raw), nil

	case shapes.Videos:
		return c.videos(ctx, sc, raw), nil

	case shapes.Files:
		return c.files(ctx, sc, raw), nil

	case shapes.ParagraphCollection:
		content, err := c.paragraphs(ctx, sc, raw)
		if err != nil {
			return nil, c.invalid(sc, def, err)
		}
		return content, nil

	case shapes.PropertiesTable:
		content, err := propertiesTable(raw, sc.Language)
		if err != nil {
			return nil, c.invalid(sc, def, err)
		}
		return content, nil

	case shapes.ItemRelations:
		return &ItemRelationsContent{ItemIDs: []string{}}, nil

	case shapes.GridRelations:
		return c.gridRelations(sc, raw), nil

	case shapes.ComponentChoice:
		return c.choice(ctx, sc, def, raw)

	case shapes.ContentChunk:
		return c.chunks(ctx, sc, def, raw)
	}

	c.logger.Debug("Skipping unsupported component type", zap.String("component_id", def.ID), zap.String("type", string(def.Type)))
	return nil, nil
}

func (c *Compiler) choice(ctx context.Context, sc Scope, def shapes.Component, raw json.RawMessage) (any, error) {
	obj, err := spec.DecodeObject(raw)
	if err != nil {
		return nil, c.invalid(sc, def, err)
	}
	if obj.Len() == 0 {
		return cleared{}, nil
	}

	selected := obj.Keys[0]
	choiceDef, ok := def.Choice(selected)
	if !ok {
		c.sink.Emit(events.Event{
			Type:    events.TypeWarning,
			Code:    events.CodeCannotHandleItem,
			Message: fmt.Sprintf("component %q has no choice %q", def.ID, selected),
			Item:    sc.Item,
		})
		return nil, nil
	}

	nested, err := c.Compile(ctx, sc, choiceDef, obj.Values[selected])
	if err != nil || nested == nil {
		return nil, err
	}
	return *nested, nil
}

func (c *Compiler) chunks(ctx context.Context, sc Scope, def shapes.Component, raw json.RawMessage) (any, error) {
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, c.invalid(sc, def, err)
	}

	content := &ChunkContent{Chunks: [][]Input{}}
	for i, rawChunk := range list {
		obj, err := spec.DecodeObject(rawChunk)
		if err != nil {
			return nil, c.invalid(sc, def, err)
		}

		var chunk []Input
		for _, id := range obj.Keys {
			slotDef, ok := def.Child(id)
			if !ok {
				continue
			}
			in, err := c.Compile(ctx, sc, slotDef, obj.Values[id])
			if err != nil {
				return nil, err
			}
			if in != nil {
				chunk = append(chunk, *in)
			}
		}

		if len(chunk) > 0 {
			content.Chunks = append(content.Chunks, chunk)
			content.sources = append(content.sources, i)
		}
	}
	return content, nil
}

func (c *Compiler) gridRelations(sc Scope, raw json.RawMessage) *GridRelationsContent {
	content := &GridRelationsContent{GridIDs: []string{}}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return content
	}
	for _, entry := range list {
		name := gridName(entry, sc.Language)
		if name == "" {
			continue
		}

		var (
			id string
			ok bool
		)
		if c.grids != nil {
			id, ok = c.grids.GridID(name, sc.Language)
		}
		if !ok {
			c.sink.Emit(events.Event{
				Type:    events.TypeError,
				Code:    events.CodeGridNotFound,
				Message: fmt.Sprintf("could not find grid with name %q, skipping the grid relation", name),
				Item:    sc.Item,
			})
			continue
		}
		content.GridIDs = append(content.GridIDs, id)
	}
	return content
}

func (c *Compiler) invalid(sc Scope, def shapes.Component, err error) error {
	return &events.ItemError{
		Code:    events.CodeCannotHandleItem,
		Message: fmt.Sprintf("invalid value for %s component %q", def.Type, def.ID),
		Item:    sc.Item,
		Err:     err,
	}
}

func definition(defs []shapes.Component, id string) (shapes.Component, bool) {
	for _, d := range defs {
		if d.ID == id {
			return d, true
		}
	}
	return shapes.Component{}, false
}
