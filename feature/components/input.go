package components

import (
	"encoding/json"

	"tenant-bootstrapper/feature/shapes"
)

// Input is the compiled content of one component. A nil Content clears the
// component server side.
type Input struct {
	ComponentID string
	Type        shapes.ComponentType
	Content     any
}

// MarshalJSON renders {"componentId": id, "<type>": content}.
func (in Input) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"componentId":    in.ComponentID,
		string(in.Type): in.Content,
	})
}

// HasRelations reports whether the input carries item relations, directly or
// nested in a choice or chunk.
func (in Input) HasRelations() bool {
	switch c := in.Content.(type) {
	case *ItemRelationsContent:
		return true
	case Input:
		return c.HasRelations()
	case *ChunkContent:
		for _, chunk := range c.Chunks {
			for _, slot := range chunk {
				if slot.HasRelations() {
					return true
				}
			}
		}
	}
	return false
}

// Set is the compiled components of an item or variant for one language.
type Set struct {
	// Clear is set when the whole components value was null.
	Clear  bool
	Inputs []Input
}

// Get returns the input compiled for component id.
func (s *Set) Get(id string) (Input, bool) {
	if s == nil {
		return Input{}, false
	}
	for _, in := range s.Inputs {
		if in.ComponentID == id {
			return in, true
		}
	}
	return Input{}, false
}

type BooleanContent struct {
	Value bool `json:"value"`
}

type SingleLineContent struct {
	Text string `json:"text"`
}

type RichTextContent struct {
	JSON []any `json:"json"`
}

type NumericContent struct {
	Number float64 `json:"number"`
	Unit   string  `json:"unit"`
}

type LocationContent struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

type DatetimeContent struct {
	Datetime string `json:"datetime"`
}

type SelectionContent struct {
	Keys []string `json:"keys"`
}

type ImageContent struct {
	Key      string           `json:"key"`
	MimeType string           `json:"mimeType,omitempty"`
	AltText  string           `json:"altText,omitempty"`
	Caption  *RichTextContent `json:"caption,omitempty"`
}

type VideoContent struct {
	Key        string         `json:"key"`
	Title      string         `json:"title,omitempty"`
	Thumbnails []ImageContent `json:"thumbnails,omitempty"`
}

type FileContent struct {
	Key   string `json:"key"`
	Title string `json:"title,omitempty"`
}

type Paragraph struct {
	Title  SingleLineContent `json:"title"`
	Body   *RichTextContent  `json:"body,omitempty"`
	Images []ImageContent    `json:"images,omitempty"`
	Videos []VideoContent    `json:"videos,omitempty"`
}

type ParagraphCollectionContent struct {
	Paragraphs []Paragraph `json:"paragraphs"`
}

type Property struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type PropertiesSection struct {
	Title      string     `json:"title,omitempty"`
	Properties []Property `json:"properties"`
}

type PropertiesTableContent struct {
	Sections []PropertiesSection `json:"sections"`
}

type ItemRelationsContent struct {
	ItemIDs []string `json:"itemIds"`
}

type GridRelationsContent struct {
	GridIDs []string `json:"gridIds"`
}

// ChunkContent is a list of chunks, each a list of slot inputs. Empty chunks
// are dropped; sources keeps the index of each kept chunk in the spec value.
type ChunkContent struct {
	Chunks  [][]Input `json:"chunks"`
	sources []int
}

// Source returns the index in the spec value of chunk i.
func (c *ChunkContent) Source(i int) int {
	if i < len(c.sources) {
		return c.sources[i]
	}
	return i
}
