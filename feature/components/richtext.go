package components

import (
	"encoding/json"
	"fmt"
	"strings"

	"tenant-bootstrapper/feature/spec"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// richTextKeys mark a language independent rich text object.
var richTextKeys = map[string]bool{"json": true, "html": true, "plainText": true}

// richText compiles a plain string, a {json|html|plainText} object, a raw
// document array, or a per-language map of any of those. It returns nil when
// the value holds no content for language.
func richText(raw json.RawMessage, language string) (*RichTextContent, error) {
	switch spec.Kind(raw) {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return &RichTextContent{JSON: paragraph(s)}, nil

	case '[':
		var doc []any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		return &RichTextContent{JSON: doc}, nil

	case '{':
		obj, err := spec.DecodeObject(raw)
		if err != nil {
			return nil, err
		}
		if obj.Len() == 0 {
			return nil, nil
		}
		if !richTextKeys[obj.Keys[0]] {
			translated, ok := obj.Get(language)
			if !ok || spec.IsNull(translated) {
				return nil, nil
			}
			if spec.Kind(translated) == '{' {
				if obj, err = spec.DecodeObject(translated); err != nil {
					return nil, err
				}
				return richTextObject(obj)
			}
			return richText(translated, language)
		}
		return richTextObject(obj)
	}
	return nil, nil
}

func richTextObject(obj *spec.Object) (*RichTextContent, error) {
	if raw, ok := obj.Get("html"); ok && !spec.IsNull(raw) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("html must be a string: %w", err)
		}
		if s != "" {
			return &RichTextContent{JSON: FromHTML(s)}, nil
		}
	}

	if raw, ok := obj.Get("json"); ok && !spec.IsNull(raw) {
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		if list, ok := doc.([]any); ok {
			return &RichTextContent{JSON: list}, nil
		}
		return &RichTextContent{JSON: []any{doc}}, nil
	}

	if raw, ok := obj.Get("plainText"); ok && !spec.IsNull(raw) {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		switch p := v.(type) {
		case string:
			return &RichTextContent{JSON: paragraph(p)}, nil
		case []any:
			doc := make([]any, 0, len(p))
			for _, line := range p {
				if s, ok := line.(string); ok {
					doc = append(doc, paragraph(s)...)
				}
			}
			return &RichTextContent{JSON: doc}, nil
		}
	}
	return nil, nil
}

func paragraph(text string) []any {
	return []any{block("paragraph", inline("span", text))}
}

func block(typ string, children ...any) map[string]any {
	return map[string]any{"kind": "block", "type": typ, "children": children}
}

func inline(typ, text string) map[string]any {
	n := map[string]any{"kind": "inline", "textContent": text}
	if typ != "" {
		n["type"] = typ
	}
	return n
}

var blockTypes = map[atom.Atom]string{
	atom.P:          "paragraph",
	atom.H1:         "heading1",
	atom.H2:         "heading2",
	atom.H3:         "heading3",
	atom.H4:         "heading4",
	atom.H5:         "heading5",
	atom.H6:         "heading6",
	atom.Ul:         "unordered-list",
	atom.Ol:         "ordered-list",
	atom.Li:         "list-item",
	atom.Blockquote: "quote",
	atom.Pre:        "preformatted",
	atom.Div:        "container",
	atom.Section:    "container",
	atom.Article:    "container",
	atom.Table:      "table",
	atom.Thead:      "table-head",
	atom.Tbody:      "table-body",
	atom.Tr:         "table-row",
	atom.Td:         "table-cell",
	atom.Th:         "table-head-cell",
	atom.Hr:         "horizontal-line",
	atom.Figure:     "figure",
	atom.Figcaption: "figcaption",
}

var inlineTypes = map[atom.Atom]string{
	atom.Strong: "strong",
	atom.B:      "strong",
	atom.Em:     "emphasized",
	atom.I:      "emphasized",
	atom.U:      "underlined",
	atom.S:      "deleted",
	atom.Del:    "deleted",
	atom.Strike: "deleted",
	atom.Code:   "code",
	atom.A:      "link",
	atom.Br:     "line-break",
	atom.Span:   "span",
	atom.Sub:    "subscripted",
	atom.Sup:    "superscripted",
	atom.Mark:   "highlight",
	atom.Abbr:   "abbreviation",
	atom.Q:      "quote",
}

// FromHTML converts an HTML fragment into a rich text document. Top level
// inline content is wrapped in paragraphs.
func FromHTML(s string) []any {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(s), body)
	if err != nil {
		return paragraph(s)
	}

	doc := []any{}
	var pending []any
	flush := func() {
		if len(pending) > 0 {
			doc = append(doc, block("paragraph", pending...))
			pending = nil
		}
	}

	for _, n := range nodes {
		converted := convertNode(n, true)
		if converted == nil {
			continue
		}
		if converted["kind"] == "inline" {
			pending = append(pending, converted)
			continue
		}
		flush()
		doc = append(doc, converted)
	}
	flush()
	return doc
}

func convertNode(n *html.Node, topLevel bool) map[string]any {
	switch n.Type {
	case html.TextNode:
		text := n.Data
		if strings.TrimSpace(text) == "" && (topLevel || strings.ContainsAny(text, "\n\r")) {
			return nil
		}
		return inline("", text)

	case html.ElementNode:
		if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
			return nil
		}

		var out map[string]any
		if typ, ok := inlineTypes[n.DataAtom]; ok {
			out = map[string]any{"kind": "inline", "type": typ}
		} else if typ, ok := blockTypes[n.DataAtom]; ok {
			out = map[string]any{"kind": "block", "type": typ}
		} else {
			out = map[string]any{"kind": "block", "type": n.Data}
		}

		if n.DataAtom == atom.A {
			for _, attr := range n.Attr {
				if attr.Key == "href" {
					out["metadata"] = map[string]any{"href": attr.Val}
				}
			}
		}

		if only := n.FirstChild; only != nil && only.NextSibling == nil && only.Type == html.TextNode {
			out["textContent"] = only.Data
			return out
		}

		var children []any
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if converted := convertNode(child, false); converted != nil {
				children = append(children, converted)
			}
		}
		if len(children) > 0 {
			out["children"] = children
		}
		return out
	}
	return nil
}
