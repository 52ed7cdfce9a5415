package components

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"tenant-bootstrapper/core/utils"
	"tenant-bootstrapper/feature/spec"
)

// DatetimeLayout is the canonical timestamp format sent to the API.
const DatetimeLayout = "2006-01-02T15:04:05.000Z"

var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

var errInvalidDatetime = errors.New("invalid datetime")

// parseDatetime accepts the common ISO 8601 forms, RFC 1123 and Unix
// milliseconds. Values without a zone are read as UTC. An empty string
// yields "" so the component is cleared.
func parseDatetime(raw json.RawMessage) (string, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}

	switch d := v.(type) {
	case float64:
		return time.UnixMilli(int64(d)).UTC().Format(DatetimeLayout), nil
	case string:
		d = strings.TrimSpace(d)
		if d == "" {
			return "", nil
		}
		for _, layout := range datetimeLayouts {
			if t, err := time.Parse(layout, d); err == nil {
				return t.UTC().Format(DatetimeLayout), nil
			}
		}
	}
	return "", errInvalidDatetime
}

// translate returns the text of a string or per-language map value.
func translate(raw json.RawMessage, language string) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	if m, ok := v.(map[string]any); ok {
		return utils.ToString(m[language])
	}
	return utils.ToString(v)
}

func numeric(raw json.RawMessage) any {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}

	if m, ok := v.(map[string]any); ok {
		n, ok := utils.ParseFloat(m["number"])
		if !ok {
			return cleared{}
		}
		return &NumericContent{Number: n, Unit: utils.ToString(m["unit"])}
	}
	if n, ok := utils.ParseFloat(v); ok {
		return &NumericContent{Number: n}
	}
	return cleared{}
}

func selectionKeys(raw json.RawMessage) []string {
	keys := []string{}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return keys
	}
	switch s := v.(type) {
	case string:
		keys = append(keys, s)
	case []any:
		for _, k := range s {
			if k != nil {
				keys = append(keys, utils.ToString(k))
			}
		}
	}
	return keys
}

// gridName reads a grid reference: a plain name or an object with a
// translatable name.
func gridName(raw json.RawMessage, language string) string {
	if spec.Kind(raw) == '"' {
		return translate(raw, language)
	}
	var g struct {
		Name spec.Translation `json:"name"`
	}
	if err := json.Unmarshal(raw, &g); err != nil {
		return ""
	}
	return g.Name.Get(language)
}

func propertiesTable(raw json.RawMessage, language string) (any, error) {
	var sections []struct {
		Title      json.RawMessage `json:"title"`
		Properties json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(raw, &sections); err != nil {
		return nil, err
	}

	content := &PropertiesTableContent{Sections: []PropertiesSection{}}
	for _, s := range sections {
		section := PropertiesSection{Properties: []Property{}}
		if len(s.Title) > 0 {
			section.Title = translate(s.Title, language)
		}

		if len(s.Properties) > 0 && !spec.IsNull(s.Properties) {
			obj, err := spec.DecodeObject(s.Properties)
			if err != nil {
				return nil, err
			}
			for _, key := range obj.Keys {
				section.Properties = append(section.Properties, Property{
					Key:   key,
					Value: translate(obj.Values[key], language),
				})
			}
		}
		content.Sections = append(content.Sections, section)
	}
	return content, nil
}
