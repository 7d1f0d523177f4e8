package coder

import (
	"sync"
	"time"
)

// EventKind identifies the type of run event.
type EventKind string

const (
	EventRunStart        EventKind = "run_start"
	EventEpochStart      EventKind = "epoch_start"
	EventReply           EventKind = "reply"
	EventBlockExtracted  EventKind = "block_extracted"
	EventFreeformOutput  EventKind = "freeform_output"
	EventStopToken       EventKind = "stop_token"
	EventPersisted       EventKind = "persisted"
	EventPersistDeclined EventKind = "persist_declined"
	EventBudgetExhausted EventKind = "budget_exhausted"
	EventRunEnd          EventKind = "run_end"
	EventError           EventKind = "error"
)

// Event is emitted by the Controller as a run progresses.
type Event struct {
	Kind      EventKind              `json:"kind"`
	Timestamp time.Time              `json:"timestamp"`
	RunID     string                 `json:"run_id"`
	Epoch     int                    `json:"epoch"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// EventEmitter delivers events to the host application via a channel.
type EventEmitter struct {
	ch     chan Event
	closed bool
	mu     sync.Mutex
}

// NewEventEmitter creates an emitter with a buffered channel.
func NewEventEmitter(bufferSize int) *EventEmitter {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &EventEmitter{ch: make(chan Event, bufferSize)}
}

// Emit sends an event. Events are dropped when the emitter is closed or the
// buffer is full; the loop never blocks on a slow consumer.
func (e *EventEmitter) Emit(ev Event) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	select {
	case e.ch <- ev:
	default:
	}
}

// Events returns the read-only event channel.
func (e *EventEmitter) Events() <-chan Event {
	return e.ch
}

// Close closes the event channel. Safe to call multiple times.
func (e *EventEmitter) Close() {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.ch)
	}
}
