package pipeline

import (
	"sync"
	"time"
)

// Stage names used in progress events.
const (
	StageSegmenting   = "segmenting"
	StageTranscribing = "transcribing"
	StageProcessing   = "processing"
	StageCombining    = "combining"
	StageDone         = "done"
)

// Event is one structured progress update emitted during a run.
type Event struct {
	Seq          int64     `json:"seq"`
	Timestamp    time.Time `json:"timestamp"`
	Stage        string    `json:"stage"`
	SegmentIndex int       `json:"segmentIndex"` // -1 when not segment-scoped
	SegmentCount int       `json:"segmentCount"`
	Percent      float64   `json:"percent"` // 0..100
	Message      string    `json:"message"`
}

// Sink receives progress events. Implementations must not block.
type Sink func(Event)

// EventBus stores recent events and provides incremental reads. It doubles
// as a Sink so callers can both subscribe and recover the last message a
// failed run emitted.
type EventBus struct {
	mu        sync.RWMutex
	nextSeq   int64
	maxEvents int
	events    []Event
}

// NewEventBus creates a bounded in-memory event buffer.
func NewEventBus(maxEvents int) *EventBus {
	if maxEvents <= 0 {
		maxEvents = 500
	}
	return &EventBus{
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
	}
}

// Publish appends one event and assigns sequence and timestamp.
func (b *EventBus) Publish(event Event) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSeq++
	event.Seq = b.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.events = append(b.events, event)
	if len(b.events) > b.maxEvents {
		trim := len(b.events) - b.maxEvents
		b.events = append([]Event(nil), b.events[trim:]...)
	}

	return event
}

// Sink adapts the bus to the Sink callback shape.
func (b *EventBus) Sink() Sink {
	return func(event Event) {
		b.Publish(event)
	}
}

// Since returns events with sequence strictly greater than seq.
func (b *EventBus) Since(seq int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.events) == 0 {
		return nil
	}

	out := make([]Event, 0, len(b.events))
	for _, event := range b.events {
		if event.Seq > seq {
			out = append(out, event)
		}
	}
	return out
}

// Last returns the most recent event, if any.
func (b *EventBus) Last() (Event, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.events) == 0 {
		return Event{}, false
	}
	return b.events[len(b.events)-1], true
}
