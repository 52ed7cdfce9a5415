package tenant

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"tenant-bootstrapper/core/api"
	"tenant-bootstrapper/core/events"
	"tenant-bootstrapper/core/graphql"
	"tenant-bootstrapper/core/reconcile"
	"tenant-bootstrapper/feature/spec"

	"go.uber.org/zap"
)

// Event areas of the tenant settings.
const (
	AreaLanguages         = "languages"
	AreaPriceVariants     = "price-variants"
	AreaStockLocations    = "stock-locations"
	AreaVatTypes          = "vat-types"
	AreaSubscriptionPlans = "subscription-plans"
	AreaTopics            = "topics"
	AreaGrids             = "grids"
)

// Service synchronises tenant settings and fills the Catalog.
type Service struct {
	caller   api.Caller
	tenantID string
	sink     events.Sink
	logger   *zap.Logger
	catalog  *Catalog
}

// NewService creates a tenant service.
func NewService(caller api.Caller, tenantID string, sink events.Sink, logger *zap.Logger) *Service {
	if sink == nil {
		sink = events.Discard
	}
	return &Service{
		caller:   caller,
		tenantID: tenantID,
		sink:     sink,
		logger:   logger,
		catalog:  newCatalog(),
	}
}

// Catalog returns the catalog filled by the Sync and Load methods.
func (s *Service) Catalog() *Catalog {
	return s.catalog
}

// LoadRoot reads the root item id of the tenant.
func (s *Service) LoadRoot(ctx context.Context) error {
	res, err := s.call(ctx, graphql.GetTenantRoot(s.tenantID))
	if err != nil {
		return fmt.Errorf("failed to fetch tenant root: %w", err)
	}
	s.catalog.RootItemID = res.String("$.tenant.get.rootItemId")
	return nil
}

// SyncLanguages adds missing languages and switches the tenant default to the
// language flagged as default.
func (s *Service) SyncLanguages(ctx context.Context, desired []spec.Language) error {
	res, err := s.call(ctx, graphql.GetLanguages(s.tenantID))
	if err != nil {
		return fmt.Errorf("failed to fetch languages: %w", err)
	}

	var existing []spec.Language
	if err := res.Decode("$.tenant.get.availableLanguages", &existing); err != nil {
		return err
	}
	defaultLanguage := res.String("$.tenant.get.defaults.language")

	adapter := reconcile.Funcs[spec.Language, spec.Language]{
		Kind:     AreaLanguages,
		Desired:  func(l spec.Language) string { return l.Code },
		Existing: func(l spec.Language) string { return l.Code },
	}
	plan := reconcile.BuildPlan[spec.Language, spec.Language](adapter, desired, existing)
	_, applyErr := reconcile.ApplyPlan(ctx, plan, reconcile.CreateFunc[spec.Language, spec.Language](
		func(ctx context.Context, l spec.Language) (spec.Language, error) {
			name := l.Name
			if name == "" {
				name = l.Code
			}
			_, err := s.call(ctx, graphql.AddLanguage(s.tenantID, l.Code, name))
			return l, err
		}), s.progress(AreaLanguages))

	var wantDefault string
	for _, l := range desired {
		if l.IsDefault {
			wantDefault = l.Code
			break
		}
	}
	if wantDefault != "" && wantDefault != defaultLanguage {
		if _, err := s.call(ctx, graphql.SetDefaultLanguage(s.tenantID, wantDefault)); err != nil {
			applyErr = errors.Join(applyErr, fmt.Errorf("failed to set default language %s: %w", wantDefault, err))
		} else {
			defaultLanguage = wantDefault
		}
	}

	s.catalog.Languages = s.catalog.Languages[:0]
	for _, l := range existing {
		s.catalog.Languages = append(s.catalog.Languages, l.Code)
	}
	for _, l := range desired {
		if _, created := plan.Existing[l.Code]; created && !slices.Contains(s.catalog.Languages, l.Code) {
			s.catalog.Languages = append(s.catalog.Languages, l.Code)
		}
	}
	if defaultLanguage == "" && len(s.catalog.Languages) > 0 {
		defaultLanguage = s.catalog.Languages[0]
	}
	s.catalog.DefaultLanguage = defaultLanguage
	return applyErr
}

// SyncPriceVariants creates missing price variants.
func (s *Service) SyncPriceVariants(ctx context.Context, desired []spec.PriceVariant) error {
	res, err := s.call(ctx, graphql.GetPriceVariants(s.tenantID))
	if err != nil {
		return fmt.Errorf("failed to fetch price variants: %w", err)
	}
	var existing []spec.PriceVariant
	if err := res.Decode("$.priceVariant.getMany", &existing); err != nil {
		return err
	}

	adapter := reconcile.Funcs[spec.PriceVariant, spec.PriceVariant]{
		Kind:     AreaPriceVariants,
		Desired:  func(p spec.PriceVariant) string { return p.Identifier },
		Existing: func(p spec.PriceVariant) string { return p.Identifier },
	}
	plan := reconcile.BuildPlan[spec.PriceVariant, spec.PriceVariant](adapter, desired, existing)
	_, applyErr := reconcile.ApplyPlan(ctx, plan, reconcile.CreateFunc[spec.PriceVariant, spec.PriceVariant](
		func(ctx context.Context, p spec.PriceVariant) (spec.PriceVariant, error) {
			name := p.Name
			if name == "" {
				name = p.Identifier
			}
			_, err := s.call(ctx, graphql.CreatePriceVariant(s.tenantID, p.Identifier, name, p.Currency))
			return p, err
		}), s.progress(AreaPriceVariants))

	s.catalog.PriceVariants = sortedKeys(plan.Existing)
	return applyErr
}

// SyncStockLocations creates missing stock locations.
func (s *Service) SyncStockLocations(ctx context.Context, desired []spec.StockLocation) error {
	res, err := s.call(ctx, graphql.GetStockLocations(s.tenantID))
	if err != nil {
		return fmt.Errorf("failed to fetch stock locations: %w", err)
	}
	var existing []spec.StockLocation
	if err := res.Decode("$.stockLocation.getMany", &existing); err != nil {
		return err
	}

	adapter := reconcile.Funcs[spec.StockLocation, spec.StockLocation]{
		Kind:     AreaStockLocations,
		Desired:  func(l spec.StockLocation) string { return l.Identifier },
		Existing: func(l spec.StockLocation) string { return l.Identifier },
	}
	plan := reconcile.BuildPlan[spec.StockLocation, spec.StockLocation](adapter, desired, existing)
	_, applyErr := reconcile.ApplyPlan(ctx, plan, reconcile.CreateFunc[spec.StockLocation, spec.StockLocation](
		func(ctx context.Context, l spec.StockLocation) (spec.StockLocation, error) {
			name := l.Name
			if name == "" {
				name = l.Identifier
			}
			_, err := s.call(ctx, graphql.CreateStockLocation(s.tenantID, l.Identifier, name))
			return l, err
		}), s.progress(AreaStockLocations))

	s.catalog.StockLocations = sortedKeys(plan.Existing)
	return applyErr
}

// SyncVatTypes creates vat types missing by case insensitive name.
func (s *Service) SyncVatTypes(ctx context.Context, desired []spec.VatType) error {
	res, err := s.call(ctx, graphql.GetVatTypes(s.tenantID))
	if err != nil {
		return fmt.Errorf("failed to fetch vat types: %w", err)
	}
	var existing []VatType
	if err := res.Decode("$.tenant.get.vatTypes", &existing); err != nil {
		return err
	}

	adapter := reconcile.Funcs[spec.VatType, VatType]{
		Kind:     AreaVatTypes,
		Desired:  func(v spec.VatType) string { return strings.ToLower(v.Name) },
		Existing: func(v VatType) string { return strings.ToLower(v.Name) },
		Diff: func(d spec.VatType, e VatType) []string {
			if d.Percent != e.Percent {
				return []string{fmt.Sprintf("percent: spec=%g remote=%g", d.Percent, e.Percent)}
			}
			return nil
		},
	}
	plan := reconcile.BuildPlan[spec.VatType, VatType](adapter, desired, existing)
	for _, r := range plan.Results {
		if len(r.Mismatch) > 0 {
			s.logger.Warn("Vat type differs from spec and is left unchanged", zap.String("vat_type", r.Key), zap.Strings("mismatch", r.Mismatch))
		}
	}

	_, applyErr := reconcile.ApplyPlan(ctx, plan, reconcile.CreateFunc[spec.VatType, VatType](
		func(ctx context.Context, v spec.VatType) (VatType, error) {
			res, err := s.call(ctx, graphql.CreateVatType(s.tenantID, v.Name, v.Percent))
			if err != nil {
				return VatType{}, err
			}
			var created VatType
			if err := res.Decode("$.vatType.create", &created); err != nil {
				return VatType{}, err
			}
			return created, nil
		}), s.progress(AreaVatTypes))

	s.catalog.VatTypes = s.catalog.VatTypes[:0]
	for _, key := range sortedKeys(plan.Existing) {
		s.catalog.VatTypes = append(s.catalog.VatTypes, plan.Existing[key])
	}
	return applyErr
}

// LoadSubscriptionPlans reads the subscription plans. Plans are never created.
func (s *Service) LoadSubscriptionPlans(ctx context.Context) error {
	res, err := s.call(ctx, graphql.GetSubscriptionPlans(s.tenantID))
	if err != nil {
		return fmt.Errorf("failed to fetch subscription plans: %w", err)
	}
	var plans []SubscriptionPlan
	if err := res.Decode("$.subscriptionPlan.getMany", &plans); err != nil {
		return err
	}
	s.catalog.Plans = plans
	return nil
}

// SyncGrids creates grids missing by name in language.
func (s *Service) SyncGrids(ctx context.Context, desired []spec.Grid, language string) error {
	res, err := s.call(ctx, graphql.GetGrids(s.tenantID, language))
	if err != nil {
		return fmt.Errorf("failed to fetch grids: %w", err)
	}
	var existing []Grid
	if err := res.Decode("$.grid.getMany", &existing); err != nil {
		return err
	}

	adapter := reconcile.Funcs[spec.Grid, Grid]{
		Kind:     AreaGrids,
		Desired:  func(g spec.Grid) string { return g.Name.Get(language) },
		Existing: func(g Grid) string { return g.Name },
	}
	plan := reconcile.BuildPlan[spec.Grid, Grid](adapter, desired, existing)
	_, applyErr := reconcile.ApplyPlan(ctx, plan, reconcile.CreateFunc[spec.Grid, Grid](
		func(ctx context.Context, g spec.Grid) (Grid, error) {
			res, err := s.call(ctx, graphql.CreateGrid(s.tenantID, language, g.Name.Get(language)))
			if err != nil {
				return Grid{}, err
			}
			var created Grid
			if err := res.Decode("$.grid.create", &created); err != nil {
				return Grid{}, err
			}
			return created, nil
		}), s.progress(AreaGrids))

	grids := make([]Grid, 0, len(plan.Existing))
	for _, key := range sortedKeys(plan.Existing) {
		grids = append(grids, plan.Existing[key])
	}
	s.catalog.Grids[language] = grids
	return applyErr
}

// call runs req and reports query errors as err.
func (s *Service) call(ctx context.Context, req api.Request) (api.Result, error) {
	res, err := s.caller.Call(ctx, req)
	if err != nil {
		return res, err
	}
	return res, res.Err()
}

func sortedKeys[E any](m map[string]E) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (s *Service) progress(area string) reconcile.ProgressFunc {
	return func(done, total int) {
		s.sink.Emit(events.Event{Type: events.TypeProgress, Area: area, Progress: float64(done) / float64(total)})
	}
}
