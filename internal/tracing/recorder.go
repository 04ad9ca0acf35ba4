package tracing

import (
	"context"
	"fmt"
	"sync"
)

// Level classifies a recorded event.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Event is one RelatedInfo, RelatedWarning or RelatedError call.
type Event struct {
	Activity string
	Level    Level
	Message  string
	Fields   Fields
}

// Recorder is an in-memory Tracer.
type Recorder struct {
	mu      sync.Mutex
	events  []Event
	started []string
	ended   []string
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// StartActivity records the start of name.
func (r *Recorder) StartActivity(ctx context.Context, name string, fields Fields) Activity {
	r.mu.Lock()
	r.started = append(r.started, name)
	r.mu.Unlock()
	return &recordedActivity{rec: r, ctx: ctx, name: name}
}

// Events returns every event in order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// EventsAt returns the events with the given level.
func (r *Recorder) EventsAt(level Level) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// Started returns the names of started activities in order.
func (r *Recorder) Started() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.started...)
}

// Ended returns the names of ended activities in order.
func (r *Recorder) Ended() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ended...)
}

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

type recordedActivity struct {
	rec  *Recorder
	ctx  context.Context
	name string
}

func (a *recordedActivity) Context() context.Context { return a.ctx }

func (a *recordedActivity) RelatedInfo(format string, args ...any) {
	a.rec.add(Event{Activity: a.name, Level: LevelInfo, Message: fmt.Sprintf(format, args...)})
}

func (a *recordedActivity) RelatedWarning(msg string, fields Fields) {
	a.rec.add(Event{Activity: a.name, Level: LevelWarning, Message: msg, Fields: fields})
}

func (a *recordedActivity) RelatedError(msg string, fields Fields) {
	a.rec.add(Event{Activity: a.name, Level: LevelError, Message: msg, Fields: fields})
}

func (a *recordedActivity) StartActivity(name string, fields Fields) Activity {
	return a.rec.StartActivity(a.ctx, name, fields)
}

func (a *recordedActivity) End() {
	a.rec.mu.Lock()
	defer a.rec.mu.Unlock()
	a.rec.ended = append(a.rec.ended, a.name)
}
