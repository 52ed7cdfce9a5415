package shapes

import (
	"encoding/json"
	"fmt"
)

// Type is the kind of item a shape describes.
type Type string

const (
	TypeFolder   Type = "folder"
	TypeProduct  Type = "product"
	TypeDocument Type = "document"
)

// Valid reports whether t is a known item type.
func (t Type) Valid() bool {
	switch t {
	case TypeFolder, TypeProduct, TypeDocument:
		return true
	}
	return false
}

// ComponentType is the closed set of component kinds.
type ComponentType string

const (
	Boolean             ComponentType = "boolean"
	SingleLine          ComponentType = "singleLine"
	RichText            ComponentType = "richText"
	Numeric             ComponentType = "numeric"
	Datetime            ComponentType = "datetime"
	Location            ComponentType = "location"
	Selection           ComponentType = "selection"
	Images              ComponentType = "images"
	Videos              ComponentType = "videos"
	Files               ComponentType = "files"
	PropertiesTable     ComponentType = "propertiesTable"
	ParagraphCollection ComponentType = "paragraphCollection"
	ItemRelations       ComponentType = "itemRelations"
	GridRelations       ComponentType = "gridRelations"
	ComponentChoice     ComponentType = "componentChoice"
	ContentChunk        ComponentType = "contentChunk"
)

// Component is a single field declared by a shape.
type Component struct {
	ID          string           `json:"id"`
	Name        string           `json:"name,omitempty"`
	Type        ComponentType    `json:"type"`
	Description string           `json:"description,omitempty"`
	Config      *ComponentConfig `json:"config,omitempty"`
}

// ComponentConfig carries the nested definitions of structural components.
// Keys other than choices, components and repeatable are kept in Extra.
type ComponentConfig struct {
	Choices    []Component
	Components []Component
	Repeatable bool
	Extra      map[string]json.RawMessage
}

func (c *ComponentConfig) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode component config: %w", err)
	}

	for key, value := range raw {
		var err error
		switch key {
		case "choices":
			err = json.Unmarshal(value, &c.Choices)
		case "components":
			err = json.Unmarshal(value, &c.Components)
		case "repeatable":
			err = json.Unmarshal(value, &c.Repeatable)
		default:
			if c.Extra == nil {
				c.Extra = make(map[string]json.RawMessage)
			}
			c.Extra[key] = value
		}
		if err != nil {
			return fmt.Errorf("failed to decode component config %q: %w", key, err)
		}
	}
	return nil
}

func (c ComponentConfig) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Extra)+3)
	for k, v := range c.Extra {
		out[k] = v
	}
	if len(c.Choices) > 0 {
		out["choices"] = c.Choices
	}
	if len(c.Components) > 0 {
		out["components"] = c.Components
	}
	if c.Repeatable {
		out["repeatable"] = true
	}
	return json.Marshal(out)
}

// Choice returns the choice with the given id of a componentChoice.
func (c Component) Choice(id string) (Component, bool) {
	if c.Config == nil {
		return Component{}, false
	}
	return find(c.Config.Choices, id)
}

// Child returns the slot with the given id of a contentChunk.
func (c Component) Child(id string) (Component, bool) {
	if c.Config == nil {
		return Component{}, false
	}
	return find(c.Config.Components, id)
}

// Contains reports whether the component, or any component nested in it, has type t.
func (c Component) Contains(t ComponentType) bool {
	if c.Type == t {
		return true
	}
	if c.Config == nil {
		return false
	}
	for _, nested := range c.Config.Choices {
		if nested.Contains(t) {
			return true
		}
	}
	for _, nested := range c.Config.Components {
		if nested.Contains(t) {
			return true
		}
	}
	return false
}

// Shape is the schema of an item.
type Shape struct {
	Identifier        string      `json:"identifier"`
	Name              string      `json:"name,omitempty"`
	Type              Type        `json:"type"`
	Components        []Component `json:"components,omitempty"`
	VariantComponents []Component `json:"variantComponents,omitempty"`
}

// Component returns the item-level component with the given id.
func (s *Shape) Component(id string) (Component, bool) {
	return find(s.Components, id)
}

// VariantComponent returns the variant-level component with the given id.
func (s *Shape) VariantComponent(id string) (Component, bool) {
	return find(s.VariantComponents, id)
}

func find(list []Component, id string) (Component, bool) {
	for _, c := range list {
		if c.ID == id {
			return c, true
		}
	}
	return Component{}, false
}
