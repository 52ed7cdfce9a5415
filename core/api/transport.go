package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// Transport performs a single GraphQL round trip and returns the data object.
type Transport interface {
	Do(ctx context.Context, req Request) (map[string]any, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req Request) (map[string]any, error)

// Do calls f(ctx, req).
func (f TransportFunc) Do(ctx context.Context, req Request) (map[string]any, error) {
	return f(ctx, req)
}

const (
	headerAccessTokenID     = "X-Crystallize-Access-Token-Id"
	headerAccessTokenSecret = "X-Crystallize-Access-Token-Secret"
	headerStaticAuthToken   = "X-Crystallize-Static-Auth-Token"
	sessionCookie           = "connect.sid"
)

// HTTPTransport posts GraphQL documents as JSON.
type HTTPTransport struct {
	url    string
	cfg    Config
	client *http.Client
}

// NewHTTPTransport creates a transport with connection level timeouts.
func NewHTTPTransport(cfg Config) *HTTPTransport {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 60
	}
	timeoutDuration := time.Duration(timeout) * time.Second

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeoutDuration,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeoutDuration,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: timeoutDuration,
	}

	return &HTTPTransport{
		url:    cfg.URL,
		cfg:    cfg,
		client: &http.Client{Transport: transport, Timeout: timeoutDuration},
	}
}

type graphqlBody struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   map[string]any   `json:"data"`
	Errors []map[string]any `json:"errors"`
}

// Do implements Transport.
func (t *HTTPTransport) Do(ctx context.Context, req Request) (map[string]any, error) {
	payload, err := json.Marshal(graphqlBody{Query: req.Query, Variables: req.Variables})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	t.authenticate(httpReq)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, &SystemError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &SystemError{Err: err}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status, Body: truncate(string(body), 512)}
	}

	var out graphqlResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(out.Errors) > 0 {
		return out.Data, &QueryError{Errors: out.Errors}
	}
	return out.Data, nil
}

func (t *HTTPTransport) authenticate(r *http.Request) {
	switch {
	case t.cfg.SessionID != "":
		r.AddCookie(&http.Cookie{Name: sessionCookie, Value: t.cfg.SessionID})
	case t.cfg.StaticAuthToken != "":
		r.Header.Set(headerStaticAuthToken, t.cfg.StaticAuthToken)
	default:
		r.Header.Set(headerAccessTokenID, t.cfg.AccessTokenID)
		r.Header.Set(headerAccessTokenSecret, t.cfg.AccessTokenSecret)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
