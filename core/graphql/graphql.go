package graphql

import (
	"strings"

	"tenant-bootstrapper/core/api"
)

func op(query string, vars map[string]any) api.Request {
	return api.Request{Query: strings.Join(strings.Fields(query), " "), Variables: vars}
}

// TypeName returns the GraphQL type prefix for an item type ("product" -> "Product").
func TypeName(itemType string) string {
	if itemType == "" {
		return ""
	}
	return strings.ToUpper(itemType[:1]) + itemType[1:]
}
