package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ohler55/ojg/jp"
)

// Request is a single GraphQL operation.
type Request struct {
	Query     string
	Variables map[string]any
	// SuppressErrors keeps failures of this request out of the error notifier.
	SuppressErrors bool
}

// Result is the outcome of a request. Errors is non-empty for query errors.
type Result struct {
	Data   map[string]any   `json:"data"`
	Errors []map[string]any `json:"errors,omitempty"`
}

// Err returns a *QueryError when the result carries errors.
func (r Result) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return &QueryError{Errors: r.Errors}
}

// Get evaluates a JSONPath expression such as "$.item.get.id" against Data.
func (r Result) Get(path string) []any {
	if r.Data == nil {
		return nil
	}
	x, err := jp.ParseString(path)
	if err != nil {
		return nil
	}
	return x.Get(r.Data)
}

// First returns the first match of path, or nil.
func (r Result) First(path string) any {
	if values := r.Get(path); len(values) > 0 {
		return values[0]
	}
	return nil
}

// String returns the first match of path as a string, or "".
func (r Result) String(path string) string {
	if s, ok := r.First(path).(string); ok {
		return s
	}
	return ""
}

// Decode re-encodes the first match of path into v.
func (r Result) Decode(path string, v any) error {
	value := r.First(path)
	if value == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// Caller executes requests. *Manager is the production implementation.
type Caller interface {
	Call(ctx context.Context, req Request) (Result, error)
}
