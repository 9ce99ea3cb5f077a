// Package event defines the notifications the core sends to the UI layer and
// the sinks that deliver them.
package event

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/yiblet/drawer/internal/view"
)

// Kind identifies an event.
type Kind int

const (
	// RecordCreated fires once per new history capture.
	RecordCreated Kind = iota + 1
	// RecordsDeleted fires when records are removed by a sweep or a command.
	RecordsDeleted
)

// String returns the wire name of the event.
func (k Kind) String() string {
	switch k {
	case RecordCreated:
		return "record_created"
	case RecordsDeleted:
		return "records_deleted"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Event is a single notification. Record is set for RecordCreated,
// IDs for RecordsDeleted.
type Event struct {
	Kind   Kind
	Record *view.View
	IDs    []int64
}

// Created builds a RecordCreated event.
func Created(v *view.View) Event {
	return Event{Kind: RecordCreated, Record: v}
}

// Deleted builds a RecordsDeleted event.
func Deleted(ids []int64) Event {
	return Event{Kind: RecordsDeleted, IDs: ids}
}

// MarshalJSON encodes the event as {"event": name, "payload": ...}.
func (e Event) MarshalJSON() ([]byte, error) {
	var payload any
	switch e.Kind {
	case RecordCreated:
		payload = e.Record
	case RecordsDeleted:
		ids := e.IDs
		if ids == nil {
			ids = []int64{}
		}
		payload = ids
	default:
		return nil, fmt.Errorf("cannot encode event kind %s", e.Kind)
	}

	return json.Marshal(struct {
		Event   string `json:"event"`
		Payload any    `json:"payload"`
	}{e.Kind.String(), payload})
}

// Sink receives events. Emit must not block on the caller's behalf for long
// and has no result; delivery order matches call order.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

type multi []Sink

func (m multi) Emit(e Event) {
	for _, s := range m {
		s.Emit(e)
	}
}

// Multi fans every event out to each sink in order.
func Multi(sinks ...Sink) Sink {
	return multi(sinks)
}

// LogSink writes each event to a structured logger.
type LogSink struct {
	Logger *slog.Logger
}

// Emit logs e.
func (s LogSink) Emit(e Event) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch e.Kind {
	case RecordCreated:
		if e.Record == nil {
			logger.Warn("record created event without record")
			return
		}
		logger.Info("record created", "record_id", e.Record.ID, "type", e.Record.Type, "description", e.Record.Description)
	case RecordsDeleted:
		logger.Info("records deleted", "deleted", e.IDs)
	default:
		logger.Warn("unknown event", "kind", e.Kind)
	}
}

// WriterSink writes each event as one line of JSON.
type WriterSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewWriterSink creates a sink writing JSON lines to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{enc: json.NewEncoder(w)}
}

// Emit encodes e. Encoding failures are logged and otherwise ignored.
func (s *WriterSink) Emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enc.Encode(e); err != nil {
		slog.Warn("failed to write event", "event", e.Kind, "error", err)
	}
}
