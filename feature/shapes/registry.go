package shapes

import "sync"

// MaxIdentifierLength is the longest shape identifier the API accepts.
const MaxIdentifierLength = 64

// NormalizeIdentifier truncates identifier to MaxIdentifierLength bytes. The
// second return reports whether truncation happened.
func NormalizeIdentifier(identifier string) (string, bool) {
	if len(identifier) <= MaxIdentifierLength {
		return identifier, false
	}
	return identifier[:MaxIdentifierLength], true
}

// Registry indexes shapes by identifier. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	shapes map[string]*Shape
	order  []string
}

// NewRegistry creates a registry holding the given shapes.
func NewRegistry(shapes ...Shape) *Registry {
	r := &Registry{shapes: make(map[string]*Shape, len(shapes))}
	for _, s := range shapes {
		r.Add(s)
	}
	return r
}

// Add registers s, replacing any shape with the same identifier.
func (r *Registry) Add(s Shape) {
	s.Identifier, _ = NormalizeIdentifier(s.Identifier)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.shapes[s.Identifier]; !ok {
		r.order = append(r.order, s.Identifier)
	}
	r.shapes[s.Identifier] = &s
}

// Get returns the shape registered under identifier.
func (r *Registry) Get(identifier string) (*Shape, bool) {
	identifier, _ = NormalizeIdentifier(identifier)

	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.shapes[identifier]
	return s, ok
}

// All returns the registered shapes in registration order.
func (r *Registry) All() []Shape {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Shape, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.shapes[id])
	}
	return out
}

// Len returns the number of registered shapes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.shapes)
}
