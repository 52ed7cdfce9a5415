package reconcile_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"tenant-bootstrapper/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type desiredVat struct {
	Name    string
	Percent float64
}

type remoteVat struct {
	ID      string
	Name    string
	Percent float64
}

var vatAdapter = reconcile.Funcs[desiredVat, remoteVat]{
	Kind:     "vat-types",
	Desired:  func(d desiredVat) string { return d.Name },
	Existing: func(e remoteVat) string { return e.Name },
	Diff: func(d desiredVat, e remoteVat) []string {
		if d.Percent != e.Percent {
			return []string{fmt.Sprintf("percent: spec=%v remote=%v", d.Percent, e.Percent)}
		}
		return nil
	},
}

type fakeMutator struct {
	created []string
	failOn  string
}

func (f *fakeMutator) Create(ctx context.Context, d desiredVat) (remoteVat, error) {
	if d.Name == f.failOn {
		return remoteVat{}, errors.New("boom")
	}
	f.created = append(f.created, d.Name)
	return remoteVat{ID: "id-" + d.Name, Name: d.Name, Percent: d.Percent}, nil
}

type fakeUpdater struct {
	fakeMutator
	updated []string
}

func (f *fakeUpdater) Update(ctx context.Context, d desiredVat, e remoteVat) (remoteVat, error) {
	f.updated = append(f.updated, d.Name)
	e.Percent = d.Percent
	return e, nil
}

func TestBuildPlan(t *testing.T) {
	desired := []desiredVat{{"Standard", 25}, {"Reduced", 12}, {"Standard", 10}, {"", 0}, {"Zero", 0}}
	existing := []remoteVat{{"1", "Standard", 25}, {"2", "Reduced", 15}, {"3", "Legacy", 6}}

	plan := reconcile.BuildPlan[desiredVat, remoteVat](vatAdapter, desired, existing)

	assert.Equal(t, "vat-types", plan.Kind)
	assert.Equal(t, reconcile.PlanSummary{
		TotalKeys:     4,
		MissingRemote: 1,
		RemoteOnly:    1,
		Mismatches:    1,
		CreateActions: 1,
		UpdateActions: 1,
	}, plan.Summary)

	require.Len(t, plan.Actions, 2)
	assert.Equal(t, reconcile.ActionUpdate, plan.Actions[0].Type)
	assert.Equal(t, "Reduced", plan.Actions[0].Key)
	assert.Equal(t, "percent: spec=12 remote=15", plan.Actions[0].Reason)
	assert.Equal(t, reconcile.ActionCreate, plan.Actions[1].Type)
	assert.Equal(t, "Zero", plan.Actions[1].Key)

	assert.Equal(t, "Legacy", plan.Results[len(plan.Results)-1].Key)
	assert.False(t, plan.Results[len(plan.Results)-1].DesiredPresent)
}

func TestApplyPlan(t *testing.T) {
	tests := []struct {
		name         string
		mutator      reconcile.Mutator[desiredVat, remoteVat]
		wantExecuted int
		wantErr      bool
	}{
		{"Create only mutator skips updates", &fakeMutator{}, 2, false},
		{"Updater applies updates", &fakeUpdater{}, 3, false},
		{"Failure does not stop later actions", &fakeMutator{failOn: "A"}, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desired := []desiredVat{{"A", 1}, {"B", 2}, {"C", 3}}
			existing := []remoteVat{{"c", "C", 0}}
			plan := reconcile.BuildPlan[desiredVat, remoteVat](vatAdapter, desired, existing)

			var calls int
			executed, err := reconcile.ApplyPlan(context.Background(), plan, tt.mutator, func(done, total int) {
				calls++
				assert.Equal(t, 3, total)
			})

			assert.Equal(t, tt.wantExecuted, executed)
			assert.Equal(t, 3, calls)
			if tt.wantErr {
				assert.ErrorContains(t, err, "failed to create vat-types A")
				_, ok := plan.Existing["A"]
				assert.False(t, ok)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "id-B", plan.Existing["B"].ID)
			}
		})
	}
}

func TestApplyPlan_Cancelled(t *testing.T) {
	plan := reconcile.BuildPlan[desiredVat, remoteVat](vatAdapter, []desiredVat{{"A", 1}}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	executed, err := reconcile.ApplyPlan(ctx, plan, &fakeMutator{}, nil)
	assert.Equal(t, 0, executed)
	assert.ErrorIs(t, err, context.Canceled)
}
