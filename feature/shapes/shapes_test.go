package shapes_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"tenant-bootstrapper/core/api"
	"tenant-bootstrapper/core/api/apitest"
	"tenant-bootstrapper/core/events"
	"tenant-bootstrapper/feature/shapes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNormalizeIdentifier(t *testing.T) {
	long := strings.Repeat("a", 70)
	tests := []struct {
		name          string
		in            string
		want          string
		wantTruncated bool
	}{
		{"Short", "shoe", "shoe", false},
		{"Exactly max", strings.Repeat("b", 64), strings.Repeat("b", 64), false},
		{"Too long", long, long[:64], true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, truncated := shapes.NormalizeIdentifier(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantTruncated, truncated)
		})
	}
}

func TestRegistry(t *testing.T) {
	long := strings.Repeat("x", 80)
	r := shapes.NewRegistry(
		shapes.Shape{Identifier: "folder", Type: shapes.TypeFolder},
		shapes.Shape{Identifier: long, Type: shapes.TypeDocument},
	)
	r.Add(shapes.Shape{Identifier: "folder", Name: "Folder", Type: shapes.TypeFolder})

	assert.Equal(t, 2, r.Len())
	s, ok := r.Get("folder")
	require.True(t, ok)
	assert.Equal(t, "Folder", s.Name)

	_, ok = r.Get(long)
	assert.True(t, ok, "lookups normalize the identifier")

	all := r.All()
	assert.Equal(t, "folder", all[0].Identifier)
}

func TestComponent_Contains(t *testing.T) {
	var c shapes.Component
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "body", "type": "contentChunk",
		"config": {"repeatable": true, "components": [
			{"id": "title", "type": "singleLine"},
			{"id": "pick", "type": "componentChoice", "config": {"choices": [
				{"id": "related", "type": "itemRelations"}
			]}}
		], "minItems": 1}
	}`), &c))

	assert.True(t, c.Config.Repeatable)
	assert.True(t, c.Contains(shapes.ItemRelations))
	assert.False(t, c.Contains(shapes.GridRelations))

	pick, ok := c.Child("pick")
	require.True(t, ok)
	_, ok = pick.Choice("related")
	assert.True(t, ok)

	raw, err := json.Marshal(c.Config)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"minItems":1`)
}

func TestArea_Sync(t *testing.T) {
	fake := apitest.New().On("GET_SHAPES", apitest.Data(map[string]any{
		"shape": map[string]any{"getMany": []any{
			map[string]any{"identifier": "folder", "name": "Folder", "type": "folder"},
			map[string]any{"identifier": "product", "name": "Product", "type": "product", "components": []any{
				map[string]any{"id": "description", "type": "richText"},
			}},
		}},
	}))
	rec := events.NewRecorder()
	registry := shapes.NewRegistry()
	area := shapes.NewArea(fake, "tenant-1", registry, rec, zap.NewNop())

	desired := []shapes.Shape{
		{Identifier: "folder", Name: "Folder", Type: shapes.TypeFolder},
		{Identifier: "product", Name: "Product", Type: shapes.TypeProduct, Components: []shapes.Component{
			{ID: "description", Type: shapes.RichText},
			{ID: "specs", Type: shapes.PropertiesTable},
		}},
		{Identifier: strings.Repeat("d", 65), Name: "Article", Type: shapes.TypeDocument},
	}

	require.NoError(t, area.Sync(context.Background(), desired))

	assert.Equal(t, []string{"GET_SHAPES", "UPDATE_SHAPE", "CREATE_SHAPE"}, fake.Operations())
	created := fake.Calls("CREATE_SHAPE")[0].Variables["input"].(map[string]any)
	assert.Equal(t, strings.Repeat("d", 64), created["identifier"])
	assert.Equal(t, "tenant-1", created["tenantId"])

	product, ok := registry.Get("product")
	require.True(t, ok)
	assert.Len(t, product.Components, 2)
	assert.Equal(t, 3, registry.Len())
	assert.Equal(t, []events.Code{events.CodeShapeIdentifierTooLong}, rec.Codes())
}

func TestArea_SyncCreateFailure(t *testing.T) {
	fake := apitest.New().
		On("GET_SHAPES", apitest.Data(map[string]any{"shape": map[string]any{"getMany": []any{}}})).
		On("CREATE_SHAPE", func(req api.Request) api.Result {
			return api.Result{Errors: []map[string]any{{"message": "invalid"}}}
		})
	registry := shapes.NewRegistry()
	area := shapes.NewArea(fake, "t", registry, events.Discard, zap.NewNop())

	err := area.Sync(context.Background(), []shapes.Shape{{Identifier: "doc", Type: shapes.TypeDocument}})
	assert.ErrorContains(t, err, "invalid")
	_, ok := registry.Get("doc")
	assert.False(t, ok)
}
