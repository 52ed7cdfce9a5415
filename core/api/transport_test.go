package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"tenant-bootstrapper/core/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPTransport_Do(t *testing.T) {
	tests := []struct {
		name      string
		cfg       api.Config
		status    int
		body      string
		wantClass api.Class
		wantErr   bool
		wantID    string
		check     func(t *testing.T, r *http.Request)
	}{
		{
			name:   "Data with token pair",
			cfg:    api.Config{AccessTokenID: "id", AccessTokenSecret: "secret"},
			status: http.StatusOK,
			body:   `{"data":{"item":{"get":{"id":"abc"}}}}`,
			wantID: "abc",
			check: func(t *testing.T, r *http.Request) {
				assert.Equal(t, "id", r.Header.Get("X-Crystallize-Access-Token-Id"))
				assert.Equal(t, "secret", r.Header.Get("X-Crystallize-Access-Token-Secret"))
			},
		},
		{
			name:   "Static token",
			cfg:    api.Config{StaticAuthToken: "static"},
			status: http.StatusOK,
			body:   `{"data":{}}`,
			check: func(t *testing.T, r *http.Request) {
				assert.Equal(t, "static", r.Header.Get("X-Crystallize-Static-Auth-Token"))
			},
		},
		{
			name:   "Session cookie",
			cfg:    api.Config{SessionID: "sess"},
			status: http.StatusOK,
			body:   `{"data":{}}`,
			check: func(t *testing.T, r *http.Request) {
				c, err := r.Cookie("connect.sid")
				require.NoError(t, err)
				assert.Equal(t, "sess", c.Value)
			},
		},
		{
			name:      "Rate limited",
			status:    http.StatusTooManyRequests,
			body:      `slow down`,
			wantErr:   true,
			wantClass: api.ClassRateLimited,
		},
		{
			name:      "Bad gateway",
			status:    http.StatusBadGateway,
			wantErr:   true,
			wantClass: api.ClassTransient,
		},
		{
			name:      "GraphQL errors",
			status:    http.StatusOK,
			body:      `{"data":null,"errors":[{"message":"unknown field"}]}`,
			wantErr:   true,
			wantClass: api.ClassQuery,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var body map[string]any
				_ = json.NewDecoder(r.Body).Decode(&body)
				assert.Equal(t, "query { x }", body["query"])
				if tt.check != nil {
					tt.check(t, r)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			cfg := tt.cfg
			cfg.URL = srv.URL
			data, err := api.NewHTTPTransport(cfg).Do(context.Background(), api.Request{Query: "query { x }"})
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantClass, api.Classify(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, api.Result{Data: data}.String("$.item.get.id"))
		})
	}
}

func TestHTTPTransport_Unreachable(t *testing.T) {
	tr := api.NewHTTPTransport(api.Config{URL: "http://127.0.0.1:1", TimeoutSeconds: 1})
	_, err := tr.Do(context.Background(), api.Request{Query: "{}"})
	require.Error(t, err)
	assert.True(t, api.IsTransient(err))
}

func TestResult_Decode(t *testing.T) {
	res := api.Result{Data: map[string]any{
		"product": map[string]any{"get": map[string]any{
			"variants": []any{map[string]any{"sku": "a"}, map[string]any{"sku": "b"}},
		}},
	}}

	var variants []struct {
		SKU string `json:"sku"`
	}
	require.NoError(t, res.Decode("$.product.get.variants", &variants))
	assert.Len(t, variants, 2)
	assert.Equal(t, "b", variants[1].SKU)
	assert.Len(t, res.Get("$.product.get.variants[*].sku"), 2)
	assert.Nil(t, res.First("$.missing"))
	assert.NoError(t, res.Err())
}
