package spec

import (
	"fmt"
	"strings"
)

// Problem is a structural issue found by Validate.
type Problem struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (p Problem) String() string {
	return p.Path + ": " + p.Message
}

// Validate reports structural problems that would make items fail at run time.
// It does not contact the API.
func (s *Spec) Validate() []Problem {
	var problems []Problem
	add := func(path, format string, args ...any) {
		problems = append(problems, Problem{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	defaults := 0
	for i, l := range s.Languages {
		if l.Code == "" {
			add(fmt.Sprintf("languages[%d]", i), "code is required")
		}
		if l.IsDefault {
			defaults++
		}
	}
	if defaults > 1 {
		add("languages", "%d languages are flagged as default", defaults)
	}

	for i, v := range s.VatTypes {
		if strings.TrimSpace(v.Name) == "" {
			add(fmt.Sprintf("vatTypes[%d]", i), "name is required")
		}
	}

	for i, sh := range s.Shapes {
		if sh.Identifier == "" {
			add(fmt.Sprintf("shapes[%d]", i), "identifier is required")
		}
		if !sh.Type.Valid() {
			add(fmt.Sprintf("shapes[%d]", i), "unknown type %q", sh.Type)
		}
	}

	language := s.DefaultLanguage()
	refs := make(map[string]string)
	skus := make(map[string]string)
	var walk func(items []*Item, prefix string)
	walk = func(items []*Item, prefix string) {
		for i, item := range items {
			if item == nil {
				continue
			}
			path := fmt.Sprintf("%s[%d]", prefix, i)
			if item.Shape == "" {
				add(path, "shape is required")
			}
			if item.Name.Get(language) == "" && item.ExternalReference == "" && item.CataloguePath == "" {
				add(path, "name is required for new items")
			}
			if ref := item.ExternalReference; ref != "" {
				if prev, dup := refs[ref]; dup {
					add(path, "externalReference %q is also used by %s", ref, prev)
				} else {
					refs[ref] = path
				}
			}
			for j, v := range item.Variants {
				vpath := fmt.Sprintf("%s.variants[%d]", path, j)
				if v.SKU == "" {
					add(vpath, "sku is required")
					continue
				}
				if prev, dup := skus[v.SKU]; dup {
					add(vpath, "sku %q is also used by %s", v.SKU, prev)
				} else {
					skus[v.SKU] = vpath
				}
			}
			walk(item.Children, path+".children")
		}
	}
	walk(s.Items, "items")

	return problems
}
