package spec

import (
	"encoding/json"
	"fmt"
	"strconv"

	"tenant-bootstrapper/core/utils"
)

// Variant is a purchasable variant of a product item.
type Variant struct {
	SKU               string             `json:"sku"`
	Name              Translation        `json:"name"`
	ExternalReference string             `json:"externalReference,omitempty"`
	IsDefault         bool               `json:"isDefault,omitempty"`
	Price             *Amounts           `json:"price,omitempty"`
	Stock             *Amounts           `json:"stock,omitempty"`
	Attributes        Attributes         `json:"attributes,omitempty"`
	Images            json.RawMessage    `json:"images,omitempty"`
	SubscriptionPlans []SubscriptionPlan `json:"subscriptionPlans,omitempty"`
	Components        Components         `json:"components,omitzero"`
}

// Amount is one identifier/value pair of a price or stock map.
type Amount struct {
	Identifier string
	Value      float64
}

// Amounts is a bare number (the "default" identifier) or a map of identifier to
// number. Entries keep their declared order.
type Amounts struct {
	Single  *float64
	Entries []Amount
}

// SingleAmount creates Amounts holding a bare number.
func SingleAmount(v float64) *Amounts {
	return &Amounts{Single: &v}
}

func (a *Amounts) UnmarshalJSON(data []byte) error {
	switch Kind(data) {
	case '{':
		obj, err := DecodeObject(data)
		if err != nil {
			return err
		}
		a.Single = nil
		a.Entries = a.Entries[:0]
		for _, key := range obj.Keys {
			v, err := number(obj.Values[key])
			if err != nil {
				return fmt.Errorf("amount %q: %w", key, err)
			}
			a.Entries = append(a.Entries, Amount{Identifier: key, Value: v})
		}
		return nil
	case 'n':
		return nil
	}

	v, err := number(data)
	if err != nil {
		return err
	}
	a.Single = &v
	a.Entries = nil
	return nil
}

func (a Amounts) MarshalJSON() ([]byte, error) {
	if a.Single != nil {
		return json.Marshal(*a.Single)
	}
	obj := &Object{Values: make(map[string]json.RawMessage, len(a.Entries))}
	for _, e := range a.Entries {
		raw, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		obj.Keys = append(obj.Keys, e.Identifier)
		obj.Values[e.Identifier] = raw
	}
	return marshalObject(obj)
}

// number accepts JSON numbers and numeric strings.
func number(raw json.RawMessage) (float64, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n)
		}
		return f, nil
	}
	return 0, fmt.Errorf("not a number: %s", string(raw))
}

// Attribute is a variant attribute.
type Attribute struct {
	Attribute string `json:"attribute"`
	Value     string `json:"value"`
}

// Attributes is an ordered map of attribute name to value. Non-string values
// are stringified.
type Attributes []Attribute

func (a *Attributes) UnmarshalJSON(data []byte) error {
	if IsNull(data) {
		*a = nil
		return nil
	}
	obj, err := DecodeObject(data)
	if err != nil {
		return fmt.Errorf("attributes: %w", err)
	}
	out := make(Attributes, 0, obj.Len())
	for _, key := range obj.Keys {
		var v any
		if err := json.Unmarshal(obj.Values[key], &v); err != nil {
			return err
		}
		value := ""
		if v != nil {
			value = utils.ToString(v)
		}
		out = append(out, Attribute{Attribute: key, Value: value})
	}
	*a = out
	return nil
}

func (a Attributes) MarshalJSON() ([]byte, error) {
	obj := &Object{Values: make(map[string]json.RawMessage, len(a))}
	for _, attr := range a {
		raw, err := json.Marshal(attr.Value)
		if err != nil {
			return nil, err
		}
		obj.Keys = append(obj.Keys, attr.Attribute)
		obj.Values[attr.Attribute] = raw
	}
	return marshalObject(obj)
}

// SubscriptionPlan binds a variant to a remote subscription plan.
type SubscriptionPlan struct {
	Plan    string               `json:"plan"`
	Periods []SubscriptionPeriod `json:"periods"`
}

// SubscriptionPeriod prices one period of a plan by period name.
type SubscriptionPeriod struct {
	Name      string      `json:"name"`
	Initial   *PhasePrice `json:"initial,omitempty"`
	Recurring *PhasePrice `json:"recurring,omitempty"`
}

// PhasePrice is the price of the initial or recurring phase of a period.
type PhasePrice struct {
	Price            *Amounts          `json:"price,omitempty"`
	MeteredVariables []MeteredVariable `json:"meteredVariables,omitempty"`
}

// MeteredVariable prices usage of a plan metered variable by identifier.
type MeteredVariable struct {
	Identifier string `json:"identifier"`
	TierType   string `json:"tierType,omitempty"`
	Tiers      []Tier `json:"tiers,omitempty"`
}

// Tier is one usage threshold of a metered variable.
type Tier struct {
	Threshold float64  `json:"threshold"`
	Price     *Amounts `json:"price,omitempty"`
}
