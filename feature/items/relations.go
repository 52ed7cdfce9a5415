package items

import (
	"context"
	"fmt"

	"tenant-bootstrapper/core/api"
	"tenant-bootstrapper/core/events"
	"tenant-bootstrapper/core/graphql"
	"tenant-bootstrapper/feature/components"
	"tenant-bootstrapper/feature/resolver"
	"tenant-bootstrapper/feature/shapes"
	"tenant-bootstrapper/feature/spec"
)

// relate runs the second pass for h and its subtree. Items that have no id
// after the first pass are only counted.
func (r *run) relate(ctx context.Context, h spec.Handle) error {
	node := r.tree.Node(h)
	st := &r.states[h]

	if st.id != "" && !st.failed {
		if err := r.wire(ctx, node, st); err != nil {
			return err
		}
		if err := r.publish(ctx, node, st); err != nil {
			return err
		}
	}
	r.tick(1)

	for _, child := range node.Children {
		if err := r.relate(ctx, child); err != nil {
			return err
		}
	}
	return nil
}

// lookup answers relation targets from the resolver cache only: every item of
// the spec has been registered by the first pass.
func (r *run) lookup(ctx context.Context, ref spec.ItemReference) (string, error) {
	entry, err := r.resolver.Resolve(ctx, resolver.Ref{
		ExternalReference: ref.ExternalReference,
		CataloguePath:     ref.CataloguePath,
	}, r.language, resolver.ModePreferCache)
	return entry.ItemID, err
}

// wire sends one call per component holding item relations, for the item and
// for each of its variants.
func (r *run) wire(ctx context.Context, node *spec.Node, st *state) error {
	item := node.Item
	ref := r.ref(item, st, r.language)
	sc := components.Scope{Language: r.language, Item: ref}

	set := st.components[r.language]
	for _, id := range item.Components.Keys() {
		def, ok := st.shape.Component(id)
		if !ok {
			continue
		}
		raw, _ := item.Components.Get(id)
		wired := r.compiler.Wire(ctx, sc, def, raw, compiled(set, id), r.lookup)
		if wired == nil {
			continue
		}
		if err := r.relation(ctx, graphql.UpdateItemComponent(st.id, r.language, *wired), ref, def); err != nil {
			return err
		}
	}

	for _, v := range item.Variants {
		vset := st.variants[r.language][v.SKU]
		for _, id := range v.Components.Keys() {
			def, ok := st.shape.VariantComponent(id)
			if !ok {
				continue
			}
			raw, _ := v.Components.Get(id)
			wired := r.compiler.Wire(ctx, sc, def, raw, compiled(vset, id), r.lookup)
			if wired == nil {
				continue
			}
			if err := r.relation(ctx, graphql.UpdateVariantComponent(st.id, v.SKU, r.language, *wired), ref, def); err != nil {
				return err
			}
		}
	}
	return nil
}

func compiled(set *components.Set, id string) *components.Input {
	in, ok := set.Get(id)
	if !ok {
		return nil
	}
	return &in
}

// relation sends a relation update. A failure is reported and does not stop
// the remaining components.
func (r *run) relation(ctx context.Context, req api.Request, ref *events.ItemRef, def shapes.Component) error {
	res, err := r.caller.Call(ctx, req)
	if err != nil {
		if fatal(err) {
			return err
		}
		r.relationFailed(ref, def, err)
		return nil
	}
	if qe := res.Err(); qe != nil {
		r.relationFailed(ref, def, qe)
	}
	return nil
}

func (r *run) relationFailed(ref *events.ItemRef, def shapes.Component, err error) {
	r.sink.Emit(events.Event{
		Type:    events.TypeError,
		Area:    Area,
		Code:    events.CodeCannotHandleItemRelation,
		Message: fmt.Sprintf("failed to update relations of component %q: %v", def.ID, err),
		Item:    ref,
	})
}

// publish publishes the item in every language the policy selects.
func (r *run) publish(ctx context.Context, node *spec.Node, st *state) error {
	published := false
	for _, lang := range r.languages() {
		if !r.shouldPublish(node.Item, st, lang) {
			continue
		}
		ref := r.ref(node.Item, st, lang)

		res, err := r.caller.Call(ctx, graphql.PublishItem(st.id, lang))
		if err != nil {
			if fatal(err) {
				return err
			}
		} else {
			err = res.Err()
		}
		if err != nil {
			r.sink.Emit(events.Event{
				Type:    events.TypeError,
				Area:    Area,
				Code:    events.CodeCannotPublishItem,
				Message: fmt.Sprintf("failed to publish item: %v", err),
				Item:    ref,
			})
			continue
		}

		published = true
		r.sink.Emit(events.Event{Type: events.TypeItemPublished, Area: Area, Item: ref})
	}
	if published {
		r.summary.Published++
	}
	return nil
}

// shouldPublish honours an explicit publish option, then the publish policy.
// Under the auto policy an item without version info is new and published;
// otherwise only languages already published are published again.
func (r *run) shouldPublish(item *spec.Item, st *state, language string) bool {
	if item.Options.Publish != nil {
		return *item.Options.Publish
	}
	if r.opts.Publish == PublishAlways {
		return true
	}
	if !r.versions.Known(st.id) {
		return true
	}
	vs, _ := r.versions.State(st.id, language)
	return vs == resolver.StatePublished
}
