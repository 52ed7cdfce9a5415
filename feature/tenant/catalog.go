package tenant

import (
	"strings"

	"tenant-bootstrapper/feature/spec"
)

// VatType is a remote vat type.
type VatType struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Percent float64 `json:"percent"`
}

// Period is a period of a subscription plan.
type Period struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MeteredVariable is a usage variable of a subscription plan.
type MeteredVariable struct {
	ID         string `json:"id"`
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
}

// SubscriptionPlan is a remote subscription plan.
type SubscriptionPlan struct {
	Identifier       string            `json:"identifier"`
	Name             string            `json:"name"`
	Periods          []Period          `json:"periods"`
	MeteredVariables []MeteredVariable `json:"meteredVariables"`
}

// PeriodID returns the id of the period called name.
func (p SubscriptionPlan) PeriodID(name string) (string, bool) {
	for _, period := range p.Periods {
		if period.Name == name {
			return period.ID, true
		}
	}
	return "", false
}

// MeteredVariableID returns the id of the metered variable with identifier.
func (p SubscriptionPlan) MeteredVariableID(identifier string) (string, bool) {
	for _, mv := range p.MeteredVariables {
		if mv.Identifier == identifier {
			return mv.ID, true
		}
	}
	return "", false
}

// Topic is a remote topic.
type Topic struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	ParentID string `json:"parentId"`
}

// Grid is a remote grid.
type Grid struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Catalog is the tenant state items are reconciled against. It is filled by
// the Service before items are processed and only read afterwards.
type Catalog struct {
	RootItemID      string
	DefaultLanguage string
	Languages       []string
	PriceVariants   []string
	StockLocations  []string
	VatTypes        []VatType
	Plans           []SubscriptionPlan
	Topics          map[string][]Topic
	Grids           map[string][]Grid
}

func newCatalog() *Catalog {
	return &Catalog{
		Topics: make(map[string][]Topic),
		Grids:  make(map[string][]Grid),
	}
}

// OtherLanguages returns every tenant language except first, in tenant order.
func (c *Catalog) OtherLanguages(first string) []string {
	out := make([]string, 0, len(c.Languages))
	for _, l := range c.Languages {
		if l != first {
			out = append(out, l)
		}
	}
	return out
}

// VatTypeID resolves a vat type by case insensitive name.
func (c *Catalog) VatTypeID(name string) (string, bool) {
	for _, v := range c.VatTypes {
		if strings.EqualFold(v.Name, name) {
			return v.ID, true
		}
	}
	return "", false
}

// Plan returns the subscription plan with identifier.
func (c *Catalog) Plan(identifier string) (SubscriptionPlan, bool) {
	for _, p := range c.Plans {
		if p.Identifier == identifier {
			return p, true
		}
	}
	return SubscriptionPlan{}, false
}

// GridID resolves a grid by exact name in language.
func (c *Catalog) GridID(name, language string) (string, bool) {
	for _, g := range c.Grids[language] {
		if g.Name == name {
			return g.ID, true
		}
	}
	return "", false
}

// TopicIDs resolves topic references in language. Paths match case
// insensitively, names exactly. Unresolved references are returned as missing.
func (c *Catalog) TopicIDs(refs []spec.TopicRef, language string) (ids []string, missing []spec.TopicRef) {
	ids = []string{}
	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		id, ok := c.topicID(ref, language)
		if !ok {
			missing = append(missing, ref)
			continue
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, missing
}

func (c *Catalog) topicID(ref spec.TopicRef, language string) (string, bool) {
	for _, t := range c.Topics[language] {
		switch {
		case ref.Path != "" && strings.EqualFold(strings.TrimSuffix(t.Path, "/"), strings.TrimSuffix(ref.Path, "/")):
			return t.ID, true
		case ref.Path == "" && ref.Name != "" && t.Name == ref.Name:
			return t.ID, true
		}
	}
	return "", false
}
