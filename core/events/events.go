package events

import (
	"sync"
	"time"
)

// Type classifies an Event.
type Type string

const (
	TypeStatusUpdate  Type = "status-update"
	TypeProgress      Type = "progress"
	TypeAreaDone      Type = "area-done"
	TypeDone          Type = "done"
	TypeItemCreated   Type = "item-created"
	TypeItemUpdated   Type = "item-updated"
	TypeItemPublished Type = "item-published"
	TypeError         Type = "error"
	TypeWarning       Type = "warning"
)

// ItemRef identifies the spec item an event refers to.
type ItemRef struct {
	ID                string `json:"id,omitempty"`
	Name              string `json:"name,omitempty"`
	Language          string `json:"language,omitempty"`
	ShapeIdentifier   string `json:"shapeIdentifier,omitempty"`
	ShapeType         string `json:"shapeType,omitempty"`
	ExternalReference string `json:"externalReference,omitempty"`
	CataloguePath     string `json:"cataloguePath,omitempty"`
}

// Key returns the most stable human readable reference for the item.
func (r *ItemRef) Key() string {
	if r == nil {
		return ""
	}
	switch {
	case r.ExternalReference != "":
		return r.ExternalReference
	case r.CataloguePath != "":
		return r.CataloguePath
	case r.ID != "":
		return r.ID
	}
	return r.Name
}

// Event is a single progress, mutation or error notification.
type Event struct {
	Type      Type          `json:"type"`
	Area      string        `json:"area,omitempty"`
	Code      Code          `json:"code,omitempty"`
	Message   string        `json:"message,omitempty"`
	WillRetry bool          `json:"willRetry,omitempty"`
	Item      *ItemRef      `json:"item,omitempty"`
	Progress  float64       `json:"progress,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Time      time.Time     `json:"time"`
}

// Sink receives events. Implementations must be safe for concurrent use.
type Sink interface {
	Emit(e Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(e Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) {
	f(e)
}

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

type multiSink []Sink

func (m multiSink) Emit(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	for _, s := range m {
		s.Emit(e)
	}
}

// Multi returns a Sink that forwards every event to each non-nil sink in order.
func Multi(sinks ...Sink) Sink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Recorder keeps every emitted event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Emit appends the event.
func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns the recorded events of type t.
func (r *Recorder) OfType(t Type) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Codes returns the codes of all recorded events, skipping empty ones.
func (r *Recorder) Codes() []Code {
	var out []Code
	for _, e := range r.Events() {
		if e.Code != "" {
			out = append(out, e.Code)
		}
	}
	return out
}
