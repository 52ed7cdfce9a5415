// Package apitest provides a scripted api.Caller for tests.
package apitest

import (
	"context"
	"strings"
	"sync"

	"tenant-bootstrapper/core/api"
)

// Handler answers one request.
type Handler func(req api.Request) api.Result

// Fake is a scripted api.Caller. Requests are matched by operation name
// (e.g. "CREATE_ITEM"); unmatched requests answer with empty data.
type Fake struct {
	mu       sync.Mutex
	handlers map[string]Handler
	calls    []api.Request
}

// New creates an empty Fake.
func New() *Fake {
	return &Fake{handlers: make(map[string]Handler)}
}

// On registers the handler for an operation name.
func (f *Fake) On(operation string, h Handler) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[operation] = h
	return f
}

// Data returns a handler answering with a fixed data object.
func Data(data map[string]any) Handler {
	return func(api.Request) api.Result { return api.Result{Data: data} }
}

// Errors returns a handler answering with a query error.
func Errors(message string) Handler {
	return func(api.Request) api.Result {
		return api.Result{Errors: []map[string]any{{"message": message}}}
	}
}

// Call implements api.Caller.
func (f *Fake) Call(ctx context.Context, req api.Request) (api.Result, error) {
	if err := ctx.Err(); err != nil {
		return api.Result{}, err
	}

	f.mu.Lock()
	f.calls = append(f.calls, req)
	h, ok := f.handlers[Operation(req.Query)]
	f.mu.Unlock()

	if !ok {
		return api.Result{Data: map[string]any{}}, nil
	}
	return h(req), nil
}

// Calls returns the recorded requests, optionally filtered by operation name.
func (f *Fake) Calls(operations ...string) []api.Request {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(operations) == 0 {
		return append([]api.Request(nil), f.calls...)
	}
	var out []api.Request
	for _, c := range f.calls {
		name := Operation(c.Query)
		for _, op := range operations {
			if name == op {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Operations returns the operation names of the recorded requests in order.
func (f *Fake) Operations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, Operation(c.Query))
	}
	return out
}

// Operation extracts the operation name of a GraphQL document.
func Operation(query string) string {
	fields := strings.Fields(query)
	if len(fields) < 2 {
		return ""
	}
	name := fields[1]
	if i := strings.IndexAny(name, "({"); i >= 0 {
		name = name[:i]
	}
	return name
}
