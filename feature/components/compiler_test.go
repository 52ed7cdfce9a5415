package components_test

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"strings"
	"testing"

	"tenant-bootstrapper/core/events"
	"tenant-bootstrapper/feature/components"
	"tenant-bootstrapper/feature/media"
	"tenant-bootstrapper/feature/shapes"
	"tenant-bootstrapper/feature/spec"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUploader struct {
	calls []string
}

func (f *fakeUploader) Upload(_ context.Context, src, _ string) (media.Asset, error) {
	f.calls = append(f.calls, src)
	name := path.Base(src)
	switch {
	case strings.HasSuffix(name, ".m3u8"):
		return media.Asset{}, media.ErrTranscoderUnavailable
	case strings.Contains(name, "broken"):
		return media.Asset{}, errors.New("connection refused")
	case strings.HasSuffix(name, ".png"):
		return media.Asset{Key: "media/" + name, MimeType: "image/png"}, nil
	}
	return media.Asset{Key: "media/" + name, MimeType: "application/pdf"}, nil
}

type grids map[string]string

func (g grids) GridID(name, _ string) (string, bool) {
	id, ok := g[name]
	return id, ok
}

const productDefs = `[
	{"id": "title", "type": "singleLine"},
	{"id": "featured", "type": "boolean"},
	{"id": "hidden", "type": "boolean"},
	{"id": "intro", "type": "richText"},
	{"id": "body", "type": "richText"},
	{"id": "weight", "type": "numeric"},
	{"id": "where", "type": "location"},
	{"id": "launch", "type": "datetime"},
	{"id": "color", "type": "selection"},
	{"id": "sizes", "type": "selection"},
	{"id": "gallery", "type": "images"},
	{"id": "clips", "type": "videos"},
	{"id": "manuals", "type": "files"},
	{"id": "story", "type": "paragraphCollection"},
	{"id": "specs", "type": "propertiesTable"},
	{"id": "related", "type": "itemRelations"},
	{"id": "grids", "type": "gridRelations"},
	{"id": "hero", "type": "componentChoice", "config": {"choices": [
		{"id": "banner", "type": "singleLine"},
		{"id": "picks", "type": "itemRelations"}
	]}},
	{"id": "blocks", "type": "contentChunk", "config": {"repeatable": true, "components": [
		{"id": "heading", "type": "singleLine"},
		{"id": "links", "type": "itemRelations"},
		{"id": "flag", "type": "boolean"}
	]}},
	{"id": "removed", "type": "singleLine"}
]`

const productComponents = `{
	"title": {"en": "Trail Runner", "no": "Terrengløper"},
	"featured": true,
	"hidden": false,
	"intro": "Light and fast.",
	"body": {"en": {"html": "<p>Built for <strong>mud</strong>.</p><ul><li>Grippy</li></ul>"}},
	"weight": {"number": 280, "unit": "g"},
	"where": {"lat": 59.91, "long": 10.75},
	"launch": "2024-03-01T10:30:00+01:00",
	"color": "red",
	"sizes": ["42", 43],
	"gallery": [
		{"src": "https://cdn.example.com/shoe.png", "altText": {"en": "Side view"}},
		{"key": "media/existing.jpg", "mimeType": "image/jpeg"}
	],
	"clips": [{"src": "https://cdn.example.com/run.m3u8", "title": "Run"}],
	"manuals": [{"src": "/tmp/manual.pdf", "title": "Manual"}],
	"story": [{"title": "Origins", "body": "It started in Bergen."}],
	"specs": [{"title": "Details", "properties": {"Drop": "8mm", "Weight": 280}}],
	"related": [{"externalReference": "socks"}],
	"grids": [{"name": "Frontpage"}, "Missing"],
	"hero": {"banner": "Spring sale"},
	"blocks": [{"heading": "Pick", "links": ["/shop/socks"]}, {}, {"flag": true}],
	"removed": null,
	"unknown": "ignored"
}`

func decodeDefs(t *testing.T, raw string) []shapes.Component {
	t.Helper()
	var defs []shapes.Component
	require.NoError(t, json.Unmarshal([]byte(raw), &defs))
	return defs
}

// normalize re-encodes v through a generic value so object keys are sorted.
func normalize(t *testing.T, v any) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	var generic any
	require.NoError(t, json.Unmarshal(raw, &generic))
	out, err := json.MarshalIndent(generic, "", "  ")
	require.NoError(t, err)
	return out
}

func newCompiler(rec *events.Recorder) (*components.Compiler, *fakeUploader) {
	up := &fakeUploader{}
	return components.NewCompiler(up, grids{"Frontpage": "grid-1"}, rec, zap.NewNop()), up
}

var scope = components.Scope{Language: "en", Item: &events.ItemRef{ExternalReference: "trail-runner"}}

func compileProduct(t *testing.T, c *components.Compiler) (*components.Set, []shapes.Component, spec.Components) {
	t.Helper()
	defs := decodeDefs(t, productDefs)
	comps, err := spec.NewComponents(productComponents)
	require.NoError(t, err)

	set, err := c.CompileAll(context.Background(), scope, defs, comps)
	require.NoError(t, err)
	require.NotNil(t, set)
	return set, defs, comps
}

func TestCompileAll_Golden(t *testing.T) {
	rec := events.NewRecorder()
	c, up := newCompiler(rec)

	set, _, _ := compileProduct(t, c)
	assert.False(t, set.Clear)

	g := goldie.New(t, goldie.WithFixtureDir("testdata"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "compile_all", normalize(t, set.Inputs))

	assert.Equal(t, []events.Code{events.CodeGridNotFound}, rec.Codes())
	assert.ElementsMatch(t, []string{
		"https://cdn.example.com/shoe.png",
		"https://cdn.example.com/run.m3u8",
		"/tmp/manual.pdf",
	}, up.calls)
}

func TestCompileAll_Actions(t *testing.T) {
	defs := decodeDefs(t, productDefs)
	c, _ := newCompiler(events.NewRecorder())

	tests := []struct {
		name      string
		raw       string
		wantNil   bool
		wantClear bool
	}{
		{name: "Null clears everything", raw: `null`, wantClear: true},
		{name: "Empty object does nothing", raw: `{}`, wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comps, err := spec.NewComponents(tt.raw)
			require.NoError(t, err)

			set, err := c.CompileAll(context.Background(), scope, defs, comps)
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, set)
				return
			}
			require.NotNil(t, set)
			assert.Equal(t, tt.wantClear, set.Clear)
			assert.Empty(t, set.Inputs)
		})
	}

	t.Run("Absent does nothing", func(t *testing.T) {
		set, err := c.CompileAll(context.Background(), scope, defs, spec.Components{})
		require.NoError(t, err)
		assert.Nil(t, set)
	})
}

func TestCompile_Values(t *testing.T) {
	c, _ := newCompiler(events.NewRecorder())

	tests := []struct {
		name string
		def  string
		raw  string
		want string
	}{
		{
			name: "Numeric without unit",
			def:  `{"id": "n", "type": "numeric"}`,
			raw:  `{"number": 1.5}`,
			want: `{"componentId":"n","numeric":{"number":1.5,"unit":""}}`,
		},
		{
			name: "Bare numeric",
			def:  `{"id": "n", "type": "numeric"}`,
			raw:  `3`,
			want: `{"componentId":"n","numeric":{"number":3,"unit":""}}`,
		},
		{
			name: "Date only",
			def:  `{"id": "d", "type": "datetime"}`,
			raw:  `"2023-12-24"`,
			want: `{"componentId":"d","datetime":{"datetime":"2023-12-24T00:00:00.000Z"}}`,
		},
		{
			name: "Unix milliseconds",
			def:  `{"id": "d", "type": "datetime"}`,
			raw:  `1700000000000`,
			want: `{"componentId":"d","datetime":{"datetime":"2023-11-14T22:13:20.000Z"}}`,
		},
		{
			name: "Boolean from string",
			def:  `{"id": "b", "type": "boolean"}`,
			raw:  `"true"`,
			want: `{"boolean":{"value":true},"componentId":"b"}`,
		},
		{
			name: "Translated single line in missing language",
			def:  `{"id": "s", "type": "singleLine"}`,
			raw:  `{"no": "Hei"}`,
			want: `{"componentId":"s","singleLine":{"text":""}}`,
		},
		{
			name: "Rich text plain text object",
			def:  `{"id": "r", "type": "richText"}`,
			raw:  `{"plainText": "Hi"}`,
			want: `{"componentId":"r","richText":{"json":[{"children":[{"kind":"inline","textContent":"Hi","type":"span"}],"kind":"block","type":"paragraph"}]}}`,
		},
		{
			name: "Empty choice clears",
			def:  `{"id": "c", "type": "componentChoice", "config": {"choices": [{"id": "a", "type": "singleLine"}]}}`,
			raw:  `{}`,
			want: `{"componentChoice":null,"componentId":"c"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var def shapes.Component
			require.NoError(t, json.Unmarshal([]byte(tt.def), &def))

			in, err := c.Compile(context.Background(), scope, def, json.RawMessage(tt.raw))
			require.NoError(t, err)
			require.NotNil(t, in)

			got, err := json.Marshal(in)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestCompile_NoAction(t *testing.T) {
	c, _ := newCompiler(events.NewRecorder())

	tests := []struct {
		name string
		def  string
		raw  string
	}{
		{"Rich text without the language", `{"id": "r", "type": "richText"}`, `{"no": "Hei"}`},
		{"Unknown choice", `{"id": "c", "type": "componentChoice", "config": {"choices": []}}`, `{"other": "x"}`},
		{"Empty raw", `{"id": "s", "type": "singleLine"}`, ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var def shapes.Component
			require.NoError(t, json.Unmarshal([]byte(tt.def), &def))

			in, err := c.Compile(context.Background(), scope, def, json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Nil(t, in)
		})
	}
}

func TestCompile_InvalidDatetime(t *testing.T) {
	c, _ := newCompiler(events.NewRecorder())
	def := shapes.Component{ID: "launch", Type: shapes.Datetime}

	_, err := c.Compile(context.Background(), scope, def, json.RawMessage(`"next tuesday"`))
	require.Error(t, err)
	assert.Equal(t, events.CodeInvalidDatetime, events.CodeOf(err, events.CodeCannotHandleItem))
}

func TestCompile_UploadFailure(t *testing.T) {
	rec := events.NewRecorder()
	c, _ := newCompiler(rec)
	def := shapes.Component{ID: "gallery", Type: shapes.Images}

	in, err := c.Compile(context.Background(), scope, def, json.RawMessage(`[
		"https://cdn.example.com/broken.png",
		"https://cdn.example.com/ok.png"
	]`))
	require.NoError(t, err)
	require.NotNil(t, in)

	images, ok := in.Content.([]components.ImageContent)
	require.True(t, ok)
	require.Len(t, images, 1)
	assert.Equal(t, "media/ok.png", images[0].Key)

	warnings := rec.OfType(events.TypeWarning)
	require.Len(t, warnings, 1)
	assert.Equal(t, events.CodeUploadFailed, warnings[0].Code)
	assert.Equal(t, scope.Item, warnings[0].Item)
}

func TestFromHTML_Link(t *testing.T) {
	doc := components.FromHTML(`Read <a href="https://example.com/guide">the guide</a>`)
	require.Len(t, doc, 1)

	para := doc[0].(map[string]any)
	assert.Equal(t, "paragraph", para["type"])
	children := para["children"].([]any)
	require.Len(t, children, 2)

	link := children[1].(map[string]any)
	assert.Equal(t, "link", link["type"])
	assert.Equal(t, "the guide", link["textContent"])
	assert.Equal(t, map[string]any{"href": "https://example.com/guide"}, link["metadata"])
}
