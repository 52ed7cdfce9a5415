package spec

import (
	"encoding/json"
	"fmt"
)

// Translation is either a single string used for every language or a map of
// language code to text.
type Translation struct {
	Default string
	Values  map[string]string
}

// Text creates a language independent translation.
func Text(s string) Translation {
	return Translation{Default: s}
}

// Get returns the text for language.
func (t Translation) Get(language string) string {
	if t.Values != nil {
		return t.Values[language]
	}
	return t.Default
}

// IsZero reports whether no text was given.
func (t Translation) IsZero() bool {
	return t.Default == "" && len(t.Values) == 0
}

func (t *Translation) UnmarshalJSON(data []byte) error {
	switch Kind(data) {
	case 'n':
		*t = Translation{}
		return nil
	case '"':
		t.Values = nil
		return json.Unmarshal(data, &t.Default)
	case '{':
		var values map[string]any
		if err := json.Unmarshal(data, &values); err != nil {
			return err
		}
		t.Default = ""
		t.Values = make(map[string]string, len(values))
		for lang, v := range values {
			if s, ok := v.(string); ok {
				t.Values[lang] = s
			}
		}
		return nil
	}
	return fmt.Errorf("translation must be a string or an object, got %s", string(data))
}

func (t Translation) MarshalJSON() ([]byte, error) {
	if t.Values != nil {
		return json.Marshal(t.Values)
	}
	return json.Marshal(t.Default)
}
