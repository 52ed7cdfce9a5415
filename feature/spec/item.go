package spec

import (
	"encoding/json"
	"fmt"
	"strings"

	"tenant-bootstrapper/core/utils"
)

// Item is a node of the item tree.
type Item struct {
	// ID is the remote id when already known.
	ID                      string      `json:"id,omitempty"`
	Name                    Translation `json:"name"`
	Shape                   string      `json:"shape"`
	ExternalReference       string      `json:"externalReference,omitempty"`
	CataloguePath           string      `json:"cataloguePath,omitempty"`
	ParentExternalReference string      `json:"parentExternalReference,omitempty"`
	ParentCataloguePath     string      `json:"parentCataloguePath,omitempty"`
	Components              Components  `json:"components,omitzero"`
	// Topics is nil when the spec does not mention topics.
	Topics   []TopicRef `json:"topics,omitempty"`
	VatType  string     `json:"vatType,omitempty"`
	Variants []*Variant `json:"variants,omitempty"`
	Children []*Item    `json:"children,omitempty"`
	Options  Options    `json:"_options,omitzero"`
}

// Options are per-item processing switches.
type Options struct {
	// MoveToRoot moves an existing item back to the tenant root.
	MoveToRoot bool `json:"moveToRoot,omitempty"`
	// Publish overrides the publish policy when set.
	Publish *bool `json:"publish,omitempty"`
}

func (o *Options) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode _options: %w", err)
	}
	o.MoveToRoot = utils.ToBool(raw["moveToRoot"])
	if v, ok := raw["publish"]; ok && v != nil {
		publish := utils.ToBool(v)
		o.Publish = &publish
	}
	return nil
}

// TopicRef names a topic by path ("/colors/red") or by name ("Red").
type TopicRef struct {
	Path string `json:"path,omitempty"`
	Name string `json:"name,omitempty"`
}

func (r *TopicRef) UnmarshalJSON(data []byte) error {
	if Kind(data) == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.HasPrefix(s, "/") {
			r.Path = s
		} else {
			r.Name = s
		}
		return nil
	}

	type plain TopicRef
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("topic must be a string or an object: %w", err)
	}
	*r = TopicRef(p)
	return nil
}

// ItemReference points at another item by external reference or catalogue path.
type ItemReference struct {
	ExternalReference string `json:"externalReference,omitempty"`
	CataloguePath     string `json:"cataloguePath,omitempty"`
}

func (r *ItemReference) UnmarshalJSON(data []byte) error {
	if Kind(data) == '"' {
		return json.Unmarshal(data, &r.CataloguePath)
	}
	type plain ItemReference
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("item reference must be a path or an object: %w", err)
	}
	*r = ItemReference(p)
	return nil
}

// String returns the reference in a form suitable for messages.
func (r ItemReference) String() string {
	if r.ExternalReference != "" {
		return "externalReference=" + r.ExternalReference
	}
	return "cataloguePath=" + r.CataloguePath
}
