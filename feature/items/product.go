package items

import (
	"context"
	"fmt"

	"tenant-bootstrapper/core/events"
	"tenant-bootstrapper/core/graphql"
	"tenant-bootstrapper/feature/components"
	"tenant-bootstrapper/feature/spec"
	"tenant-bootstrapper/feature/tenant"
)

type remoteVariant struct {
	SKU               string                    `json:"sku"`
	Name              string                    `json:"name"`
	IsDefault         bool                      `json:"isDefault"`
	ExternalReference string                    `json:"externalReference"`
	Attributes        []spec.Attribute          `json:"attributes"`
	Images            []components.ImageContent `json:"images"`
	PriceVariants     []components.PriceEntry   `json:"priceVariants"`
	StockLocations    []components.StockEntry   `json:"stockLocations"`
}

type remoteProduct struct {
	ID       string          `json:"id"`
	VatType  *tenant.VatType `json:"vatType"`
	Variants []remoteVariant `json:"variants"`
}

// variantInput is a variant as sent in a product create or update. The API
// has no call for a single variant, so every call carries the full list.
type variantInput struct {
	Name              string                    `json:"name,omitempty"`
	SKU               string                    `json:"sku"`
	IsDefault         bool                      `json:"isDefault"`
	ExternalReference string                    `json:"externalReference,omitempty"`
	Attributes        []spec.Attribute          `json:"attributes,omitempty"`
	Images            []components.ImageContent `json:"images"`
	PriceVariants     []components.PriceEntry   `json:"priceVariants"`
	StockLocations    []components.StockEntry   `json:"stockLocations,omitempty"`
	SubscriptionPlans []planInput               `json:"subscriptionPlans,omitempty"`
}

type planInput struct {
	Identifier string        `json:"identifier"`
	Periods    []periodInput `json:"periods"`
}

type periodInput struct {
	ID        string      `json:"id"`
	Initial   *phaseInput `json:"initial,omitempty"`
	Recurring *phaseInput `json:"recurring,omitempty"`
}

type phaseInput struct {
	PriceVariants    []components.PriceEntry `json:"priceVariants"`
	MeteredVariables []meteredInput          `json:"meteredVariables,omitempty"`
}

type meteredInput struct {
	ID       string      `json:"id"`
	TierType string      `json:"tierType,omitempty"`
	Tiers    []tierInput `json:"tiers,omitempty"`
}

type tierInput struct {
	Threshold     float64                 `json:"threshold"`
	PriceVariants []components.PriceEntry `json:"priceVariants"`
}

// fetchProduct returns the current variants and vat type of a product, or nil
// when the API does not know it.
func (r *run) fetchProduct(ctx context.Context, id, language string) (*remoteProduct, error) {
	res, err := r.caller.Call(ctx, graphql.GetProduct(id, language))
	if err != nil {
		return nil, err
	}
	if qe := res.Err(); qe != nil {
		return nil, fmt.Errorf("failed to fetch product %s: %w", id, qe)
	}
	if res.First("$.product.get") == nil {
		return nil, nil
	}
	var p remoteProduct
	if err := res.Decode("$.product.get", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// productInput builds the vat type and variant list of a product in language.
// existing is the current remote product, nil for a new one.
func (r *run) productInput(ctx context.Context, item *spec.Item, st *state, language string, existing *remoteProduct) (map[string]any, error) {
	ref := r.ref(item, st, language)
	out := map[string]any{}

	vatTypeID := ""
	if item.VatType != "" {
		id, ok := r.catalog.VatTypeID(item.VatType)
		if ok {
			vatTypeID = id
		} else {
			r.sink.Emit(events.Event{
				Type:    events.TypeWarning,
				Area:    Area,
				Code:    events.CodeCannotHandleProduct,
				Message: fmt.Sprintf("vat type %q not found", item.VatType),
				Item:    ref,
			})
		}
	}
	if vatTypeID == "" && existing != nil && existing.VatType != nil {
		vatTypeID = existing.VatType.ID
	}
	if vatTypeID == "" && existing == nil && len(r.catalog.VatTypes) > 0 {
		vatTypeID = r.catalog.VatTypes[0].ID
	}
	if vatTypeID != "" {
		out["vatTypeId"] = vatTypeID
	}

	variants, err := r.variants(ctx, item, st, language, existing)
	if err != nil {
		return nil, err
	}
	out["variants"] = variants
	return out, nil
}

// variants merges the spec variants onto the existing ones. Variants are
// matched by sku, then by external reference; unmatched spec variants are
// appended and unmatched remote ones kept.
func (r *run) variants(ctx context.Context, item *spec.Item, st *state, language string, existing *remoteProduct) ([]variantInput, error) {
	var remote []remoteVariant
	if existing != nil {
		remote = existing.Variants
	}

	list := make([]variantInput, 0, len(remote)+len(item.Variants))
	for _, rv := range remote {
		list = append(list, fromRemote(rv))
	}

	for _, v := range item.Variants {
		idx := matchVariant(remote, v)
		var match *remoteVariant
		if idx >= 0 {
			match = &remote[idx]
		}
		in, err := r.variant(ctx, item, st, language, v, match)
		if err != nil {
			return nil, err
		}
		if idx >= 0 {
			list[idx] = in
		} else {
			list = append(list, in)
		}
	}

	ensureOneDefault(list)
	return list, nil
}

func matchVariant(remote []remoteVariant, v *spec.Variant) int {
	for i, rv := range remote {
		if v.SKU != "" && rv.SKU == v.SKU {
			return i
		}
	}
	if v.ExternalReference != "" {
		for i, rv := range remote {
			if rv.ExternalReference == v.ExternalReference {
				return i
			}
		}
	}
	return -1
}

func fromRemote(rv remoteVariant) variantInput {
	in := variantInput{
		Name:              rv.Name,
		SKU:               rv.SKU,
		IsDefault:         rv.IsDefault,
		ExternalReference: rv.ExternalReference,
		Attributes:        rv.Attributes,
		Images:            rv.Images,
		PriceVariants:     rv.PriceVariants,
		StockLocations:    components.MergeStock(nil, rv.StockLocations),
	}
	if in.Images == nil {
		in.Images = []components.ImageContent{}
	}
	if in.PriceVariants == nil {
		in.PriceVariants = []components.PriceEntry{}
	}
	return in
}

// variant builds the input of spec variant v, merging price and stock onto
// the matched remote variant. The compiled variant components are kept in
// the side table for the component calls.
func (r *run) variant(ctx context.Context, item *spec.Item, st *state, language string, v *spec.Variant, match *remoteVariant) (variantInput, error) {
	ref := r.ref(item, st, language)
	sc := components.Scope{Language: language, Item: ref}

	in := variantInput{
		Name:              v.Name.Get(language),
		SKU:               v.SKU,
		IsDefault:         v.IsDefault,
		ExternalReference: v.ExternalReference,
	}

	var prices []components.PriceEntry
	var stock []components.StockEntry
	if match != nil {
		prices, stock = match.PriceVariants, match.StockLocations
		in.Attributes = match.Attributes
		in.Images = match.Images
		if in.Name == "" {
			in.Name = match.Name
		}
		if in.ExternalReference == "" {
			in.ExternalReference = match.ExternalReference
		}
	}
	in.PriceVariants = components.MergePrices(v.Price, prices)
	in.StockLocations = components.MergeStock(v.Stock, stock)

	if v.Attributes != nil {
		in.Attributes = []spec.Attribute(v.Attributes)
	}
	if len(v.Images) > 0 {
		in.Images = r.compiler.Images(ctx, sc, v.Images)
	}
	if in.Images == nil {
		in.Images = []components.ImageContent{}
	}

	plans, err := r.plans(ref, v.SubscriptionPlans)
	if err != nil {
		return variantInput{}, err
	}
	in.SubscriptionPlans = plans

	if len(st.shape.VariantComponents) > 0 {
		set, err := r.compiler.CompileAll(ctx, sc, st.shape.VariantComponents, v.Components)
		if err != nil {
			return variantInput{}, err
		}
		st.setVariant(language, v.SKU, set)
	}
	return in, nil
}

// ensureOneDefault makes the first variant the default unless exactly one
// variant already is.
func ensureOneDefault(list []variantInput) {
	n := 0
	for _, v := range list {
		if v.IsDefault {
			n++
		}
	}
	if n == 1 {
		return
	}
	for i := range list {
		list[i].IsDefault = i == 0
	}
}

// plans resolves subscription plan periods by name and metered variables by
// identifier against the tenant plans.
func (r *run) plans(ref *events.ItemRef, specs []spec.SubscriptionPlan) ([]planInput, error) {
	if len(specs) == 0 {
		return nil, nil
	}

	out := make([]planInput, 0, len(specs))
	for _, sp := range specs {
		plan, ok := r.catalog.Plan(sp.Plan)
		if !ok {
			return nil, events.NewItemError(events.CodeCannotHandleProduct, ref, "subscription plan %q not found", sp.Plan)
		}

		in := planInput{Identifier: sp.Plan, Periods: make([]periodInput, 0, len(sp.Periods))}
		for _, p := range sp.Periods {
			id, ok := plan.PeriodID(p.Name)
			if !ok {
				return nil, events.NewItemError(events.CodeCannotHandleProduct, ref, "period %q of subscription plan %q not found", p.Name, sp.Plan)
			}
			period := periodInput{ID: id}
			var err error
			if period.Initial, err = phase(ref, plan, p.Initial); err != nil {
				return nil, err
			}
			if period.Recurring, err = phase(ref, plan, p.Recurring); err != nil {
				return nil, err
			}
			in.Periods = append(in.Periods, period)
		}
		out = append(out, in)
	}
	return out, nil
}

func phase(ref *events.ItemRef, plan tenant.SubscriptionPlan, p *spec.PhasePrice) (*phaseInput, error) {
	if p == nil {
		return nil, nil
	}

	out := &phaseInput{PriceVariants: components.MergePrices(p.Price, nil)}
	for _, mv := range p.MeteredVariables {
		id, ok := plan.MeteredVariableID(mv.Identifier)
		if !ok {
			return nil, events.NewItemError(events.CodeCannotHandleProduct, ref, "metered variable %q of subscription plan %q not found", mv.Identifier, plan.Identifier)
		}
		m := meteredInput{ID: id, TierType: mv.TierType}
		for _, t := range mv.Tiers {
			m.Tiers = append(m.Tiers, tierInput{Threshold: t.Threshold, PriceVariants: components.MergePrices(t.Price, nil)})
		}
		out.MeteredVariables = append(out.MeteredVariables, m)
	}
	return out, nil
}
