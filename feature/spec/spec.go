package spec

// Spec is a complete tenant description.
type Spec struct {
	Shapes         []ShapeDef      `json:"shapes,omitempty"`
	Languages      []Language      `json:"languages,omitempty"`
	PriceVariants  []PriceVariant  `json:"priceVariants,omitempty"`
	StockLocations []StockLocation `json:"stockLocations,omitempty"`
	VatTypes       []VatType       `json:"vatTypes,omitempty"`
	TopicMaps      []Topic         `json:"topicMaps,omitempty"`
	Grids          []Grid          `json:"grids,omitempty"`
	Items          []*Item         `json:"items,omitempty"`
}

// Language is a tenant language.
type Language struct {
	Code      string `json:"code"`
	Name      string `json:"name,omitempty"`
	IsDefault bool   `json:"isDefault,omitempty"`
}

// PriceVariant is a named price list.
type PriceVariant struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name,omitempty"`
	Currency   string `json:"currency,omitempty"`
}

// StockLocation is a named stock location.
type StockLocation struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name,omitempty"`
}

// VatType is a named vat rate.
type VatType struct {
	Name    string  `json:"name"`
	Percent float64 `json:"percent"`
}

// Topic is a node of a topic map.
type Topic struct {
	Name     Translation `json:"name"`
	Children []Topic     `json:"children,omitempty"`
}

// Grid is a named grid. Only its existence is reconciled.
type Grid struct {
	Name Translation `json:"name"`
}

// DefaultLanguage returns the code of the language flagged as default, or the
// first declared language.
func (s *Spec) DefaultLanguage() string {
	for _, l := range s.Languages {
		if l.IsDefault {
			return l.Code
		}
	}
	if len(s.Languages) > 0 {
		return s.Languages[0].Code
	}
	return ""
}
