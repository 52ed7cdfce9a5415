package items

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"tenant-bootstrapper/core/events"
	"tenant-bootstrapper/core/graphql"
	"tenant-bootstrapper/feature/components"
	"tenant-bootstrapper/feature/resolver"
	"tenant-bootstrapper/feature/shapes"
	"tenant-bootstrapper/feature/spec"

	"go.uber.org/zap"
)

// put runs the first pass for h and its subtree. A failed item is reported and
// its subtree skipped.
func (r *run) put(ctx context.Context, h spec.Handle, parentID string) error {
	node := r.tree.Node(h)
	st := &r.states[h]

	err := r.upsert(ctx, node, st, parentID)
	if fatal(err) {
		return err
	}
	if err != nil {
		st.failed = true
		r.summary.Failed++
		r.sink.Emit(events.ErrorEvent(err, events.CodeCannotHandleItem, r.ref(node.Item, st, r.language)))
		r.tick(1 + r.descendants(h))
		return nil
	}
	r.tick(1)

	r.resolver.Register(
		resolver.Ref{ExternalReference: node.Item.ExternalReference, CataloguePath: node.Item.CataloguePath},
		resolver.Entry{ItemID: st.id, ParentID: st.parentID, Shape: st.shape.Identifier},
	)
	for _, child := range node.Children {
		if err := r.put(ctx, child, st.id); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) upsert(ctx context.Context, node *spec.Node, st *state, parentID string) error {
	item := node.Item
	if item.Shape == "" {
		return events.NewItemError(events.CodeShapeIDMissing, r.ref(item, st, r.language), "item has no shape identifier")
	}
	if normalized, truncated := shapes.NormalizeIdentifier(item.Shape); truncated {
		r.sink.Emit(events.Event{
			Type:    events.TypeWarning,
			Area:    Area,
			Code:    events.CodeShapeIdentifierTooLong,
			Message: fmt.Sprintf("shape identifier %q is longer than %d characters, using %q", item.Shape, shapes.MaxIdentifierLength, normalized),
			Item:    r.ref(item, st, r.language),
		})
	}
	shape, ok := r.registry.Get(item.Shape)
	if !ok {
		return events.NewItemError(events.CodeCannotHandleItem, r.ref(item, st, r.language), "could not locate shape %q", item.Shape)
	}
	st.shape = shape

	if err := r.identify(ctx, item, st); err != nil {
		return err
	}
	parentID, err := r.parent(ctx, item, st, parentID)
	if err != nil {
		return err
	}

	if st.exists {
		if err := r.prepareExisting(ctx, node, st, parentID); err != nil {
			return err
		}
		if err := r.update(ctx, node, st, r.language); err != nil {
			return err
		}
		r.summary.Updated++
	} else {
		if err := r.create(ctx, node, st, parentID); err != nil {
			return err
		}
		r.summary.Created++
	}

	for _, lang := range r.catalog.OtherLanguages(r.language) {
		if err := r.update(ctx, node, st, lang); err != nil {
			return err
		}
	}
	return nil
}

// identify resolves the remote id of item by external reference, then by
// catalogue path.
func (r *run) identify(ctx context.Context, item *spec.Item, st *state) error {
	st.id = item.ID
	entry, err := r.resolver.Resolve(ctx, resolver.Ref{
		ExternalReference: item.ExternalReference,
		CataloguePath:     item.CataloguePath,
		ShapeIdentifier:   st.shape.Identifier,
	}, r.language, resolver.ModeQuery)
	if err != nil {
		return fmt.Errorf("failed to resolve item: %w", err)
	}
	if entry.Found() {
		st.id = entry.ItemID
		st.parentID = entry.ParentID
	}
	st.exists = st.id != ""
	return nil
}

// parent returns the id of the declared parent of item. Items without a parent
// reference keep the parent given by their position in the tree. An unknown
// parent is reported and replaced by the fallback folder.
func (r *run) parent(ctx context.Context, item *spec.Item, st *state, parentID string) (string, error) {
	ref := resolver.Ref{ExternalReference: item.ParentExternalReference, CataloguePath: item.ParentCataloguePath}
	if ref.IsZero() {
		return parentID, nil
	}

	entry, err := r.resolver.Resolve(ctx, ref, r.language, resolver.ModeQuery)
	if err != nil {
		return "", fmt.Errorf("failed to resolve parent: %w", err)
	}
	if entry.Found() {
		return entry.ItemID, nil
	}

	target := spec.ItemReference{ExternalReference: ref.ExternalReference, CataloguePath: ref.CataloguePath}
	r.sink.Emit(events.Event{
		Type:    events.TypeError,
		Area:    Area,
		Code:    events.CodeParentFolderNotFound,
		Message: fmt.Sprintf("parent folder %s not found, using the fallback folder", target),
		Item:    r.ref(item, st, r.language),
	})
	return r.fallbackID, nil
}

// prepareExisting loads the publication state of an existing item and moves
// it under parentID when needed.
func (r *run) prepareExisting(ctx context.Context, node *spec.Node, st *state, parentID string) error {
	if r.opts.Publish == PublishAuto {
		if err := r.versions.Fetch(ctx, st.id, r.languages()); err != nil {
			return fmt.Errorf("failed to fetch item versions: %w", err)
		}
	}

	target, position := "", 0
	switch {
	case node.Item.Options.MoveToRoot:
		if st.parentID != r.rootID {
			target = r.rootID
		}
	case st.parentID != parentID && st.id != parentID && parentID != r.rootID:
		target, position = parentID, node.Index+1
	}
	if target == "" {
		return nil
	}

	ref := r.ref(node.Item, st, r.language)
	res, err := r.caller.Call(ctx, graphql.MoveItem(st.id, target, position))
	if err != nil {
		return err
	}
	if qe := res.Err(); qe != nil {
		r.logger.Warn("Failed to move item", zap.String("item", ref.Key()), zap.String("parent_id", target), zap.Error(qe))
		return nil
	}
	r.logger.Debug("Moved item", zap.String("item", ref.Key()), zap.String("from", st.parentID), zap.String("to", target))
	st.parentID = target
	return nil
}

type createdItem struct {
	ID                string `json:"id"`
	ExternalReference string `json:"externalReference"`
	Tree              struct {
		Path     string `json:"path"`
		ParentID string `json:"parentId"`
	} `json:"tree"`
}

// create creates item in the target language and then sends its components.
func (r *run) create(ctx context.Context, node *spec.Node, st *state, parentID string) error {
	item := node.Item
	ref := r.ref(item, st, r.language)

	name := item.Name.Get(r.language)
	if name == "" {
		return events.NewItemError(events.CodeCannotHandleItem, ref, "item name cannot be empty for the default language %s", r.language)
	}
	if st.shape.Type == shapes.TypeProduct && len(item.Variants) == 0 {
		return events.NewItemError(events.CodeCannotHandleProduct, ref, "product has no variants")
	}

	input := map[string]any{
		"tenantId":        r.tenantID,
		"name":            name,
		"shapeIdentifier": st.shape.Identifier,
		"tree":            map[string]any{"parentId": parentID, "position": node.Index + 1},
		"components":      map[string]any{},
	}
	if item.ExternalReference != "" {
		input["externalReference"] = item.ExternalReference
	}
	topicIDs, err := r.topics(ctx, item, st, r.language)
	if err != nil {
		return err
	}
	if topicIDs != nil {
		input["topicIds"] = topicIDs
	}
	if st.shape.Type == shapes.TypeProduct {
		product, err := r.productInput(ctx, item, st, r.language, nil)
		if err != nil {
			return err
		}
		maps.Copy(input, product)
		st.created = product
	}

	itemType := string(st.shape.Type)
	res, err := r.caller.Call(ctx, graphql.CreateItem(itemType, r.language, input))
	if err != nil {
		return err
	}
	if qe := res.Err(); qe != nil {
		return &events.ItemError{Code: events.CodeCannotHandleItem, Message: "failed to create item", Item: ref, Err: qe}
	}
	var created createdItem
	if err := res.Decode("$."+itemType+".create", &created); err != nil {
		return err
	}
	if created.ID == "" {
		return events.NewItemError(events.CodeCannotHandleItem, ref, "the API returned no id for the created item")
	}

	st.id = created.ID
	st.parentID = parentID
	r.resolver.Register(
		resolver.Ref{ExternalReference: item.ExternalReference, CataloguePath: created.Tree.Path},
		resolver.Entry{ItemID: st.id, ParentID: parentID, Shape: st.shape.Identifier},
	)
	ref.ID = st.id
	r.sink.Emit(events.Event{Type: events.TypeItemCreated, Area: Area, Item: ref})

	return r.update(ctx, node, st, r.language)
}

// update sends the base fields and the relation free components of item in
// language.
func (r *run) update(ctx context.Context, node *spec.Node, st *state, language string) error {
	item := node.Item
	ref := r.ref(item, st, language)
	sc := components.Scope{Language: language, Item: ref}

	set, err := r.compiler.CompileAll(ctx, sc, st.shape.Components, item.Components)
	if err != nil {
		return err
	}
	if st.components == nil {
		st.components = make(map[string]*components.Set)
	}
	st.components[language] = set

	input := map[string]any{}
	if name := item.Name.Get(language); name != "" {
		input["name"] = name
	}
	topicIDs, err := r.topics(ctx, item, st, language)
	if err != nil {
		return err
	}
	if topicIDs != nil {
		input["topicIds"] = topicIDs
	}
	if set != nil && set.Clear {
		input["components"] = map[string]any{}
	}
	if st.shape.Type == shapes.TypeProduct {
		product := st.created
		st.created = nil
		if product == nil {
			existing, err := r.fetchProduct(ctx, st.id, language)
			if err != nil {
				return err
			}
			if product, err = r.productInput(ctx, item, st, language, existing); err != nil {
				return err
			}
		}
		maps.Copy(input, product)
	}

	itemType := string(st.shape.Type)
	res, err := r.caller.Call(ctx, graphql.UpdateItem(itemType, st.id, language, input))
	if err != nil {
		return err
	}
	if qe := res.Err(); qe != nil {
		r.logger.Warn("Failed to update item", zap.String("item", ref.Key()), zap.String("language", language), zap.Error(qe))
	} else {
		var updated createdItem
		if err := res.Decode("$."+itemType+".update", &updated); err == nil && updated.Tree.Path != "" {
			r.resolver.Register(resolver.Ref{CataloguePath: updated.Tree.Path}, resolver.Entry{ItemID: st.id, ParentID: st.parentID, Shape: st.shape.Identifier})
		}
	}

	if set != nil {
		for _, in := range set.Inputs {
			if in.HasRelations() {
				continue
			}
			if err := r.mutate(ctx, graphql.UpdateItemComponent(st.id, language, in), ref); err != nil {
				return err
			}
		}
	}
	for _, v := range item.Variants {
		vset := st.variants[language][v.SKU]
		if vset == nil {
			continue
		}
		for _, in := range vset.Inputs {
			if in.HasRelations() {
				continue
			}
			if err := r.mutate(ctx, graphql.UpdateVariantComponent(st.id, v.SKU, language, in), ref); err != nil {
				return err
			}
		}
	}

	r.sink.Emit(events.Event{Type: events.TypeItemUpdated, Area: Area, Item: ref})
	return nil
}

// topics returns the topic ids of item in language, or nil when the spec does
// not mention topics. With the amend policy the current topics of an existing
// item are kept.
func (r *run) topics(ctx context.Context, item *spec.Item, st *state, language string) ([]string, error) {
	if item.Topics == nil {
		return nil, nil
	}
	if ids, ok := st.topicIDs[language]; ok {
		return ids, nil
	}

	ids, missing := r.catalog.TopicIDs(item.Topics, language)
	for _, m := range missing {
		name := m.Path
		if name == "" {
			name = m.Name
		}
		r.sink.Emit(events.Event{
			Type:    events.TypeWarning,
			Area:    Area,
			Message: fmt.Sprintf("topic %q not found", name),
			Item:    r.ref(item, st, language),
		})
	}

	if st.exists && r.opts.Topics == TopicsAmend {
		res, err := r.caller.Call(ctx, graphql.GetItemTopics(st.id, language))
		if err != nil {
			return nil, err
		}
		var current []struct {
			ID string `json:"id"`
		}
		if res.Err() == nil {
			if err := res.Decode("$.item.get.topics", &current); err != nil {
				return nil, err
			}
		}
		for _, t := range current {
			if !slices.Contains(ids, t.ID) {
				ids = append(ids, t.ID)
			}
		}
	}

	if st.topicIDs == nil {
		st.topicIDs = make(map[string][]string)
	}
	st.topicIDs[language] = ids
	return ids, nil
}
