package resolver_test

import (
	"context"
	"sync"
	"testing"

	"tenant-bootstrapper/core/api"
	"tenant-bootstrapper/core/api/apitest"
	"tenant-bootstrapper/feature/resolver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func byRef(items ...map[string]any) apitest.Handler {
	list := make([]any, 0, len(items))
	for _, it := range items {
		list = append(list, it)
	}
	return apitest.Data(map[string]any{"item": map[string]any{"getMany": list}})
}

func remote(id, shape, parent string) map[string]any {
	return map[string]any{
		"id":    id,
		"shape": map[string]any{"identifier": shape},
		"tree":  map[string]any{"parentId": parent},
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		ref       resolver.Ref
		mode      resolver.Mode
		setup     func(f *apitest.Fake)
		want      resolver.Entry
		wantCalls []string
	}{
		{
			name:      "External reference hit",
			ref:       resolver.Ref{ExternalReference: "shoe-1", ShapeIdentifier: "shoe"},
			setup:     func(f *apitest.Fake) { f.On("GET_ITEMS_BY_EXTERNAL_REFERENCE", byRef(remote("i1", "shoe", "p1"))) },
			want:      resolver.Entry{ItemID: "i1", ParentID: "p1", Shape: "shoe"},
			wantCalls: []string{"GET_ITEMS_BY_EXTERNAL_REFERENCE"},
		},
		{
			name: "Shape filter rejects then path matches",
			ref:  resolver.Ref{ExternalReference: "shoe-1", CataloguePath: "/shop/shoe", ShapeIdentifier: "shoe"},
			setup: func(f *apitest.Fake) {
				f.On("GET_ITEMS_BY_EXTERNAL_REFERENCE", byRef(remote("i9", "boot", "p9")))
				f.On("GET_ITEM_BY_PATH", apitest.Data(map[string]any{"item": map[string]any{"getByPath": remote("i2", "shoe", "p2")}}))
			},
			want:      resolver.Entry{ItemID: "i2", ParentID: "p2", Shape: "shoe"},
			wantCalls: []string{"GET_ITEMS_BY_EXTERNAL_REFERENCE", "GET_ITEM_BY_PATH"},
		},
		{
			name: "Path miss",
			ref:  resolver.Ref{CataloguePath: "/nowhere"},
			setup: func(f *apitest.Fake) {
				f.On("GET_ITEM_BY_PATH", apitest.Data(map[string]any{"item": map[string]any{"getByPath": nil}}))
			},
			wantCalls: []string{"GET_ITEM_BY_PATH"},
		},
		{
			name:      "Prefer cache never queries",
			ref:       resolver.Ref{ExternalReference: "x"},
			mode:      resolver.ModePreferCache,
			setup:     func(f *apitest.Fake) {},
			wantCalls: []string{},
		},
		{
			name:      "Empty reference",
			ref:       resolver.Ref{},
			setup:     func(f *apitest.Fake) {},
			wantCalls: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := apitest.New()
			tt.setup(fake)
			r := resolver.New(fake, "tenant")

			got, err := r.Resolve(context.Background(), tt.ref, "en", tt.mode)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantCalls, fake.Operations())

			if got.Found() {
				_, err := r.Resolve(context.Background(), tt.ref, "en", resolver.ModeQuery)
				require.NoError(t, err)
				assert.Len(t, fake.Operations(), len(tt.wantCalls), "second lookup is served from memory")
			}
		})
	}
}

func TestResolve_QueryError(t *testing.T) {
	fake := apitest.New().On("GET_ITEM_BY_PATH", apitest.Errors("forbidden"))
	r := resolver.New(fake, "tenant")

	_, err := r.Resolve(context.Background(), resolver.Ref{CataloguePath: "/a"}, "en", resolver.ModeQuery)
	assert.ErrorContains(t, err, "forbidden")
}

func TestRegister(t *testing.T) {
	r := resolver.New(apitest.New(), "tenant")
	r.Register(resolver.Ref{ExternalReference: "a", CataloguePath: "/a"}, resolver.Entry{ItemID: "1", ParentID: "root"})
	r.Register(resolver.Ref{ExternalReference: "b"}, resolver.Entry{})

	e, ok := r.Cached(resolver.Ref{CataloguePath: "/a"})
	assert.True(t, ok)
	assert.Equal(t, "1", e.ItemID)

	_, ok = r.Cached(resolver.Ref{ExternalReference: "b"})
	assert.False(t, ok, "entries without id are not registered")
}

func TestCached_ShapeFilter(t *testing.T) {
	r := resolver.New(apitest.New(), "tenant")
	r.Register(resolver.Ref{ExternalReference: "a", CataloguePath: "/a"}, resolver.Entry{ItemID: "1", Shape: "boot"})
	r.Register(resolver.Ref{ExternalReference: "b"}, resolver.Entry{ItemID: "2"})

	tests := []struct {
		name   string
		ref    resolver.Ref
		wantOK bool
	}{
		{"Same shape", resolver.Ref{ExternalReference: "a", ShapeIdentifier: "boot"}, true},
		{"No shape filter", resolver.Ref{ExternalReference: "a"}, true},
		{"Other shape by reference", resolver.Ref{ExternalReference: "a", ShapeIdentifier: "shoe"}, false},
		{"Other shape by path", resolver.Ref{CataloguePath: "/a", ShapeIdentifier: "shoe"}, false},
		{"Unknown shape", resolver.Ref{ExternalReference: "b", ShapeIdentifier: "shoe"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := r.Cached(tt.ref)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestResolve_ShapeMismatchQueries(t *testing.T) {
	fake := apitest.New().On("GET_ITEMS_BY_EXTERNAL_REFERENCE", byRef(remote("i3", "shoe", "p3")))
	r := resolver.New(fake, "tenant")
	r.Register(resolver.Ref{ExternalReference: "shoe-1"}, resolver.Entry{ItemID: "i1", Shape: "boot"})

	got, err := r.Resolve(context.Background(), resolver.Ref{ExternalReference: "shoe-1", ShapeIdentifier: "shoe"}, "en", resolver.ModeQuery)
	require.NoError(t, err)
	assert.Equal(t, "i3", got.ItemID)
	assert.Equal(t, []string{"GET_ITEMS_BY_EXTERNAL_REFERENCE"}, fake.Operations())
}

func TestResolve_Concurrent(t *testing.T) {
	fake := apitest.New().On("GET_ITEMS_BY_EXTERNAL_REFERENCE", func(req api.Request) api.Result {
		return api.Result{Data: map[string]any{"item": map[string]any{"getMany": []any{remote("i1", "shoe", "p")}}}}
	})
	r := resolver.New(fake, "tenant")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, err := r.Resolve(context.Background(), resolver.Ref{ExternalReference: "shoe-1"}, "en", resolver.ModeQuery)
			assert.NoError(t, err)
			assert.Equal(t, "i1", e.ItemID)
		}()
	}
	wg.Wait()
	assert.NotEmpty(t, fake.Calls())
}

func TestVersions(t *testing.T) {
	fake := apitest.New().On("GET_ITEM_VERSIONS", func(req api.Request) api.Result {
		switch req.Variables["language"] {
		case "en":
			return api.Result{Data: map[string]any{"item": map[string]any{
				"published": map[string]any{"id": "i", "updatedAt": "2024-01-01"},
				"draft":     map[string]any{"id": "i", "updatedAt": "2024-01-01"},
			}}}
		case "no":
			return api.Result{Data: map[string]any{"item": map[string]any{
				"published": map[string]any{"id": "i", "updatedAt": "2024-01-01"},
				"draft":     map[string]any{"id": "i", "updatedAt": "2024-02-01"},
			}}}
		}
		return api.Result{Errors: []map[string]any{{"message": "unknown language"}}}
	})
	v := resolver.NewVersions(fake)

	require.NoError(t, v.Fetch(context.Background(), "i", []string{"en", "no", "de"}))
	assert.True(t, v.Known("i"))

	s, ok := v.State("i", "en")
	assert.True(t, ok)
	assert.Equal(t, resolver.StatePublished, s)

	s, _ = v.State("i", "no")
	assert.Equal(t, resolver.StateDraft, s)

	_, ok = v.State("i", "de")
	assert.False(t, ok)
	assert.False(t, v.Known("other"))
}
