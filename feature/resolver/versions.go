package resolver

import (
	"context"
	"sync"

	"tenant-bootstrapper/core/api"
	"tenant-bootstrapper/core/graphql"
)

// VersionState is the publication state of an item in one language.
type VersionState string

const (
	StatePublished VersionState = "published"
	StateDraft     VersionState = "draft"
)

// Versions caches the publication state of pre-existing items per language.
type Versions struct {
	caller api.Caller

	mu     sync.RWMutex
	states map[string]map[string]VersionState
}

// NewVersions creates an empty cache.
func NewVersions(caller api.Caller) *Versions {
	return &Versions{caller: caller, states: make(map[string]map[string]VersionState)}
}

// Fetch loads the state of itemID in every language. A language whose query
// fails is left out of the cache.
func (v *Versions) Fetch(ctx context.Context, itemID string, languages []string) error {
	states := make(map[string]VersionState, len(languages))
	for _, lang := range languages {
		res, err := v.caller.Call(ctx, graphql.GetItemVersions(itemID, lang))
		if err != nil {
			return err
		}
		if res.Err() != nil {
			continue
		}

		published := res.String("$.item.published.updatedAt")
		draft := res.String("$.item.draft.updatedAt")
		if published != "" && (draft == "" || draft == published) {
			states[lang] = StatePublished
		} else {
			states[lang] = StateDraft
		}
	}

	v.mu.Lock()
	v.states[itemID] = states
	v.mu.Unlock()
	return nil
}

// State returns the cached state of itemID in language.
func (v *Versions) State(itemID, language string) (VersionState, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	states, ok := v.states[itemID]
	if !ok {
		return "", false
	}
	s, ok := states[language]
	return s, ok
}

// Known reports whether version info was fetched for itemID.
func (v *Versions) Known(itemID string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.states[itemID]
	return ok
}
