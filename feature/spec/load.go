package spec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a spec from a .json, .yaml or .yml file.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = YAMLToJSON(data)
		if err != nil {
			return nil, err
		}
	}
	return Parse(data)
}

// Parse decodes a JSON spec.
func Parse(data []byte) (*Spec, error) {
	var s Spec
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse spec: %w", err)
	}
	return &s, nil
}

// YAMLToJSON converts a YAML document to JSON, keeping mapping key order.
func YAMLToJSON(data []byte) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	if doc.Kind == 0 {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	if err := writeNode(&buf, &doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeNode(buf *bytes.Buffer, n *yaml.Node) error {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return writeNode(buf, n.Content[0])
	case yaml.AliasNode:
		return writeNode(buf, n.Alias)
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, c := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeNode(buf, c); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case yaml.MappingNode:
		buf.WriteByte('{')
		first := true
		if err := writePairs(buf, n, &first); err != nil {
			return err
		}
		buf.WriteByte('}')
		return nil
	case yaml.ScalarNode:
		return writeScalar(buf, n)
	}
	return fmt.Errorf("unsupported yaml node at line %d", n.Line)
}

func writePairs(buf *bytes.Buffer, n *yaml.Node, first *bool) error {
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]

		if key.ShortTag() == "!!merge" {
			target := value
			if target.Kind == yaml.AliasNode {
				target = target.Alias
			}
			if target.Kind != yaml.MappingNode {
				return fmt.Errorf("merge key at line %d must reference a mapping", key.Line)
			}
			if err := writePairs(buf, target, first); err != nil {
				return err
			}
			continue
		}

		if !*first {
			buf.WriteByte(',')
		}
		*first = false

		k, err := json.Marshal(key.Value)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		if err := writeNode(buf, value); err != nil {
			return err
		}
	}
	return nil
}

func writeScalar(buf *bytes.Buffer, n *yaml.Node) error {
	var out any
	switch n.ShortTag() {
	case "!!null":
		buf.WriteString("null")
		return nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return err
		}
		out = b
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return err
		}
		out = i
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return err
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return fmt.Errorf("line %d: %s cannot be represented in JSON", n.Line, n.Value)
		}
		out = f
	default:
		out = n.Value
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return err
	}
	buf.Write(raw)
	return nil
}
