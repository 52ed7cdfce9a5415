package bootstrap

import (
	"maps"
	"sync"
	"time"

	"tenant-bootstrapper/core/events"
)

// State is the lifecycle state of a run or an area.
type State string

const (
	StatePending State = "pending"
	StateRunning State = "running"
	StateDone    State = "done"
	StateFailed  State = "failed"
)

// AreaStatus is the progress of one area.
type AreaStatus struct {
	State      State   `json:"state"`
	Progress   float64 `json:"progress"`
	DurationMs int64   `json:"durationMs,omitempty"`
}

// Status is a snapshot of a run.
type Status struct {
	RunID      string                `json:"runId"`
	State      State                 `json:"state"`
	Area       string                `json:"area,omitempty"`
	StartedAt  *time.Time            `json:"startedAt,omitempty"`
	DurationMs int64                 `json:"durationMs,omitempty"`
	Error      string                `json:"error,omitempty"`
	Areas      map[string]AreaStatus `json:"areas"`
	Created    int                   `json:"created"`
	Updated    int                   `json:"updated"`
	Published  int                   `json:"published"`
	Errors     int                   `json:"errors"`
	Warnings   int                   `json:"warnings"`
}

// Tracker folds events into a Status. It is an events.Sink.
type Tracker struct {
	mu     sync.Mutex
	status Status
}

// NewTracker creates a pending tracker for runID.
func NewTracker(runID string) *Tracker {
	return &Tracker{status: Status{
		RunID: runID,
		State: StatePending,
		Areas: make(map[string]AreaStatus),
	}}
}

// Emit implements events.Sink.
func (t *Tracker) Emit(e events.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := &t.status
	if s.State == StatePending {
		s.State = StateRunning
		now := e.Time
		if now.IsZero() {
			now = time.Now()
		}
		s.StartedAt = &now
	}

	switch e.Type {
	case events.TypeStatusUpdate:
		if e.Area != "" {
			s.Area = e.Area
			a := s.Areas[e.Area]
			a.State = StateRunning
			s.Areas[e.Area] = a
		}
	case events.TypeProgress:
		if e.Area != "" {
			a := s.Areas[e.Area]
			if a.State == "" {
				a.State = StateRunning
			}
			a.Progress = e.Progress
			s.Areas[e.Area] = a
		}
	case events.TypeAreaDone:
		a := s.Areas[e.Area]
		if a.State != StateFailed {
			a.State = StateDone
		}
		a.Progress = 1
		a.DurationMs = e.Duration.Milliseconds()
		s.Areas[e.Area] = a
	case events.TypeItemCreated:
		s.Created++
	case events.TypeItemUpdated:
		s.Updated++
	case events.TypeItemPublished:
		s.Published++
	case events.TypeWarning:
		s.Warnings++
	case events.TypeError:
		s.Errors++
		// Item errors stay with the item; an error without one fails its area.
		if e.Area != "" && e.Item == nil {
			a := s.Areas[e.Area]
			a.State = StateFailed
			s.Areas[e.Area] = a
		}
	case events.TypeDone:
		s.State = StateDone
		s.Area = ""
		s.DurationMs = e.Duration.Milliseconds()
	}
}

// Fail marks the run as aborted by err.
func (t *Tracker) Fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.State = StateFailed
	t.status.Error = err.Error()
	if t.status.StartedAt != nil {
		t.status.DurationMs = time.Since(*t.status.StartedAt).Milliseconds()
	}
}

// Snapshot returns a copy of the current status.
func (t *Tracker) Snapshot() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.status
	s.Areas = maps.Clone(t.status.Areas)
	if s.StartedAt != nil {
		started := *s.StartedAt
		s.StartedAt = &started
	}
	return s
}
