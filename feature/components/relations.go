package components

import (
	"context"
	"encoding/json"
	"fmt"

	"tenant-bootstrapper/core/events"
	"tenant-bootstrapper/feature/shapes"
	"tenant-bootstrapper/feature/spec"
)

// RefResolver returns the remote id of a referenced item, or "" when the item
// does not exist.
type RefResolver func(ctx context.Context, ref spec.ItemReference) (string, error)

// Wire resolves the item relations held by raw. compiled is the first pass
// input of the same component; its non relation content is kept as is. Wire
// returns nil when there is nothing to wire.
func (c *Compiler) Wire(ctx context.Context, sc Scope, def shapes.Component, raw json.RawMessage, compiled *Input, resolve RefResolver) *Input {
	if len(raw) == 0 || spec.IsNull(raw) {
		return nil
	}

	switch def.Type {
	case shapes.ItemRelations:
		return &Input{
			ComponentID: def.ID,
			Type:        def.Type,
			Content:     &ItemRelationsContent{ItemIDs: c.relationIDs(ctx, sc, raw, resolve)},
		}

	case shapes.ComponentChoice:
		if compiled == nil {
			return nil
		}
		chosen, ok := compiled.Content.(Input)
		if !ok || !chosen.HasRelations() {
			return nil
		}
		choiceDef, ok := def.Choice(chosen.ComponentID)
		if !ok {
			return nil
		}
		obj, err := spec.DecodeObject(raw)
		if err != nil {
			return nil
		}
		wired := c.Wire(ctx, sc, choiceDef, obj.Values[chosen.ComponentID], &chosen, resolve)
		if wired == nil {
			return nil
		}
		return &Input{ComponentID: def.ID, Type: def.Type, Content: *wired}

	case shapes.ContentChunk:
		if compiled == nil {
			return nil
		}
		cc, ok := compiled.Content.(*ChunkContent)
		if !ok {
			return nil
		}
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil
		}

		out := &ChunkContent{Chunks: make([][]Input, len(cc.Chunks)), sources: cc.sources}
		changed := false
		for i, chunk := range cc.Chunks {
			out.Chunks[i] = append([]Input(nil), chunk...)

			src := cc.Source(i)
			if src >= len(list) {
				continue
			}
			obj, err := spec.DecodeObject(list[src])
			if err != nil {
				continue
			}
			for j, slot := range chunk {
				if !slot.HasRelations() {
					continue
				}
				slotDef, ok := def.Child(slot.ComponentID)
				if !ok {
					continue
				}
				if wired := c.Wire(ctx, sc, slotDef, obj.Values[slot.ComponentID], &slot, resolve); wired != nil {
					out.Chunks[i][j] = *wired
					changed = true
				}
			}
		}
		if !changed {
			return nil
		}
		return &Input{ComponentID: def.ID, Type: def.Type, Content: out}
	}
	return nil
}

// relationIDs resolves every reference in declared order. Unresolved
// references are reported and dropped.
func (c *Compiler) relationIDs(ctx context.Context, sc Scope, raw json.RawMessage, resolve RefResolver) []string {
	ids := []string{}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return ids
	}
	for _, entry := range list {
		var ref spec.ItemReference
		if err := json.Unmarshal(entry, &ref); err != nil {
			continue
		}
		if ref.ExternalReference == "" && ref.CataloguePath == "" {
			continue
		}

		id, err := resolve(ctx, ref)
		if err != nil || id == "" {
			msg := fmt.Sprintf("could not determine an id for related item %q", ref.String())
			if err != nil {
				msg += ": " + err.Error()
			}
			c.sink.Emit(events.Event{
				Type:    events.TypeError,
				Code:    events.CodeCannotHandleItemRelation,
				Message: msg,
				Item:    sc.Item,
			})
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
