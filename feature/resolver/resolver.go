package resolver

import (
	"context"
	"fmt"
	"sync"

	"tenant-bootstrapper/core/api"
	"tenant-bootstrapper/core/graphql"

	"golang.org/x/sync/singleflight"
)

// Mode selects whether a miss in memory is followed by a remote lookup.
type Mode int

const (
	// ModeQuery consults memory first and then the API.
	ModeQuery Mode = iota
	// ModePreferCache answers from memory only.
	ModePreferCache
)

// Ref identifies an item in a spec. ShapeIdentifier, when set, filters
// lookups by external reference and rejects cached entries of another shape.
type Ref struct {
	ExternalReference string
	CataloguePath     string
	ShapeIdentifier   string
}

// IsZero reports whether the reference carries no identity.
func (r Ref) IsZero() bool {
	return r.ExternalReference == "" && r.CataloguePath == ""
}

// Entry is a resolved item. Shape is empty when the shape is unknown.
type Entry struct {
	ItemID   string
	ParentID string
	Shape    string
}

// Found reports whether the entry carries an id.
func (e Entry) Found() bool {
	return e.ItemID != ""
}

// Resolver is safe for concurrent use.
type Resolver struct {
	caller   api.Caller
	tenantID string

	mu     sync.RWMutex
	byRef  map[string]Entry
	byPath map[string]Entry
	sf     singleflight.Group
}

// New creates an empty Resolver.
func New(caller api.Caller, tenantID string) *Resolver {
	return &Resolver{
		caller:   caller,
		tenantID: tenantID,
		byRef:    make(map[string]Entry),
		byPath:   make(map[string]Entry),
	}
}

// Register records ref -> entry. Empty keys are ignored.
func (r *Resolver) Register(ref Ref, e Entry) {
	if !e.Found() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if ref.ExternalReference != "" {
		r.byRef[ref.ExternalReference] = e
	}
	if ref.CataloguePath != "" {
		r.byPath[ref.CataloguePath] = e
	}
}

// Cached answers from memory only.
func (r *Resolver) Cached(ref Ref) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ref.ExternalReference != "" {
		if e, ok := r.byRef[ref.ExternalReference]; ok && e.matches(ref) {
			return e, true
		}
	}
	if ref.CataloguePath != "" {
		if e, ok := r.byPath[ref.CataloguePath]; ok && e.matches(ref) {
			return e, true
		}
	}
	return Entry{}, false
}

func (e Entry) matches(ref Ref) bool {
	return ref.ShapeIdentifier == "" || e.Shape == "" || e.Shape == ref.ShapeIdentifier
}

// Resolve returns the entry for ref. A miss is an empty Entry and a nil error;
// errors are reserved for failed remote lookups.
func (r *Resolver) Resolve(ctx context.Context, ref Ref, language string, mode Mode) (Entry, error) {
	if ref.IsZero() {
		return Entry{}, nil
	}
	if e, ok := r.Cached(ref); ok {
		return e, nil
	}
	if mode == ModePreferCache {
		return Entry{}, nil
	}

	if ref.ExternalReference != "" {
		e, err := r.lookup("ref|"+ref.ShapeIdentifier+"|"+ref.ExternalReference, func() (Entry, error) {
			return r.byExternalReference(ctx, ref, language)
		})
		if err != nil || e.Found() {
			return e, err
		}
	}
	if ref.CataloguePath != "" {
		return r.lookup("path|"+language+"|"+ref.CataloguePath, func() (Entry, error) {
			return r.byCataloguePath(ctx, ref, language)
		})
	}
	return Entry{}, nil
}

func (r *Resolver) lookup(key string, fn func() (Entry, error)) (Entry, error) {
	v, err, _ := r.sf.Do(key, func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return Entry{}, err
	}
	return v.(Entry), nil
}

type remoteItem struct {
	ID    string `json:"id"`
	Shape struct {
		Identifier string `json:"identifier"`
	} `json:"shape"`
	Tree struct {
		ParentID string `json:"parentId"`
	} `json:"tree"`
}

func (r *Resolver) byExternalReference(ctx context.Context, ref Ref, language string) (Entry, error) {
	res, err := r.caller.Call(ctx, graphql.GetItemsByExternalReference(r.tenantID, language, ref.ExternalReference))
	if err != nil {
		return Entry{}, err
	}
	if err := res.Err(); err != nil {
		return Entry{}, fmt.Errorf("failed to look up external reference %s: %w", ref.ExternalReference, err)
	}

	var items []remoteItem
	if err := res.Decode("$.item.getMany", &items); err != nil {
		return Entry{}, err
	}
	for _, it := range items {
		if ref.ShapeIdentifier != "" && it.Shape.Identifier != ref.ShapeIdentifier {
			continue
		}
		e := Entry{ItemID: it.ID, ParentID: it.Tree.ParentID, Shape: it.Shape.Identifier}
		r.Register(Ref{ExternalReference: ref.ExternalReference}, e)
		return e, nil
	}
	return Entry{}, nil
}

func (r *Resolver) byCataloguePath(ctx context.Context, ref Ref, language string) (Entry, error) {
	res, err := r.caller.Call(ctx, graphql.GetItemByPath(r.tenantID, language, ref.CataloguePath))
	if err != nil {
		return Entry{}, err
	}
	if err := res.Err(); err != nil {
		return Entry{}, fmt.Errorf("failed to look up catalogue path %s: %w", ref.CataloguePath, err)
	}

	var it remoteItem
	if err := res.Decode("$.item.getByPath", &it); err != nil {
		return Entry{}, err
	}
	if it.ID == "" {
		return Entry{}, nil
	}
	e := Entry{ItemID: it.ID, ParentID: it.Tree.ParentID, Shape: it.Shape.Identifier}
	r.Register(Ref{CataloguePath: ref.CataloguePath}, e)
	return e, nil
}
