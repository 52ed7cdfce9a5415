package spec

import (
	"encoding/json"
)

// Components holds the raw component values of an item or variant.
//
//   - absent or {}: leave remote components untouched
//   - null: clear every component
//   - object: one raw value per component id, null clears that component
type Components struct {
	set  bool
	null bool
	obj  *Object
}

// NewComponents decodes a components value. It is mostly useful in tests.
func NewComponents(raw string) (Components, error) {
	var c Components
	err := c.UnmarshalJSON([]byte(raw))
	return c, err
}

// IsNull reports an explicit null: every component is cleared.
func (c Components) IsNull() bool {
	return c.set && c.null
}

// IsEmpty reports that no component action was requested.
func (c Components) IsEmpty() bool {
	return !c.null && c.obj.Len() == 0
}

// Get returns the raw value of component id.
func (c Components) Get(id string) (json.RawMessage, bool) {
	return c.obj.Get(id)
}

// Keys returns the component ids in declared order.
func (c Components) Keys() []string {
	if c.obj == nil {
		return nil
	}
	return c.obj.Keys
}

func (c *Components) UnmarshalJSON(data []byte) error {
	c.set = true
	if IsNull(data) {
		c.null = true
		c.obj = nil
		return nil
	}
	obj, err := DecodeObject(data)
	if err != nil {
		return err
	}
	c.null = false
	c.obj = obj
	return nil
}

func (c Components) MarshalJSON() ([]byte, error) {
	if c.null || c.obj == nil {
		return []byte("null"), nil
	}
	return marshalObject(c.obj)
}
