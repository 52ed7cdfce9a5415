package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// BuildPlan computes the union of desired and existing keys and plans the
// actions needed to converge. Desired entities with an empty or duplicate key are
// ignored; the first occurrence wins.
func BuildPlan[D any, E any](a Adapter[D, E], desired []D, existing []E) *Plan[D, E] {
	plan := &Plan[D, E]{
		Kind:     a.Name(),
		Existing: make(map[string]E, len(existing)),
	}

	for _, e := range existing {
		key := a.ExistingKey(e)
		if key == "" {
			continue
		}
		if _, dup := plan.Existing[key]; !dup {
			plan.Existing[key] = e
		}
	}

	seen := make(map[string]struct{}, len(desired))
	for _, d := range desired {
		key := a.DesiredKey(d)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		result := Result{Key: key, DesiredPresent: true, Mismatch: []string{}}
		e, ok := plan.Existing[key]
		if !ok {
			plan.Summary.MissingRemote++
			plan.Summary.CreateActions++
			plan.Actions = append(plan.Actions, Action[D, E]{
				Type:    ActionCreate,
				Key:     key,
				Reason:  "missing remotely",
				Desired: d,
			})
			plan.Results = append(plan.Results, result)
			continue
		}

		result.ExistingPresent = true
		if diff := a.Compare(d, e); len(diff) > 0 {
			result.Mismatch = diff
			plan.Summary.Mismatches++
			plan.Summary.UpdateActions++
			plan.Actions = append(plan.Actions, Action[D, E]{
				Type:     ActionUpdate,
				Key:      key,
				Reason:   strings.Join(diff, ", "),
				Desired:  d,
				Existing: e,
			})
		}
		plan.Results = append(plan.Results, result)
	}

	remoteOnly := make([]string, 0)
	for key := range plan.Existing {
		if _, ok := seen[key]; !ok {
			remoteOnly = append(remoteOnly, key)
		}
	}
	sort.Strings(remoteOnly)
	for _, key := range remoteOnly {
		plan.Results = append(plan.Results, Result{Key: key, ExistingPresent: true, Mismatch: []string{}})
	}
	plan.Summary.RemoteOnly = len(remoteOnly)
	plan.Summary.TotalKeys = len(plan.Results)

	return plan
}

// Mutator executes create actions.
type Mutator[D any, E any] interface {
	Create(ctx context.Context, d D) (E, error)
}

// Updater is implemented by mutators that can also update mismatched entities.
// Update actions are skipped for mutators that do not implement it.
type Updater[D any, E any] interface {
	Update(ctx context.Context, d D, e E) (E, error)
}

// ProgressFunc is called after every executed action.
type ProgressFunc func(done, total int)

// ApplyPlan executes the plan actions in order and records the resulting entities
// in plan.Existing. It returns the number of successful actions and the joined
// errors of the failed ones.
func ApplyPlan[D any, E any](ctx context.Context, plan *Plan[D, E], m Mutator[D, E], progress ProgressFunc) (executed int, err error) {
	updater, canUpdate := m.(Updater[D, E])

	var errs []error
	for i, action := range plan.Actions {
		if ctxErr := ctx.Err(); ctxErr != nil {
			errs = append(errs, ctxErr)
			break
		}

		var (
			out    E
			actErr error
			ran    bool
		)
		switch action.Type {
		case ActionCreate:
			out, actErr = m.Create(ctx, action.Desired)
			ran = true
		case ActionUpdate:
			if canUpdate {
				out, actErr = updater.Update(ctx, action.Desired, action.Existing)
				ran = true
			}
		}

		if actErr != nil {
			errs = append(errs, fmt.Errorf("failed to %s %s %s: %w", action.Type, plan.Kind, action.Key, actErr))
		} else if ran {
			plan.Existing[action.Key] = out
			executed++
		}

		if progress != nil {
			progress(i+1, len(plan.Actions))
		}
	}

	return executed, errors.Join(errs...)
}

// CreateFunc adapts a create function to the Mutator interface.
type CreateFunc[D any, E any] func(ctx context.Context, d D) (E, error)

// Create calls f(ctx, d).
func (f CreateFunc[D, E]) Create(ctx context.Context, d D) (E, error) {
	return f(ctx, d)
}
