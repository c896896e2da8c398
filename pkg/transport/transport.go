package transport

import (
	"context"
	"errors"
	"sync"

	"github.com/goliatone/go-surveysync/pkg/protocol"
)

// Host accepts raw wire messages. *binding.Runtime implements it.
type Host interface {
	DeliverRaw(ctx context.Context, raw []byte) error
}

// Memory records every event it receives.
type Memory struct {
	mu     sync.Mutex
	events []protocol.Event
	notify chan protocol.Event
}

// NewMemory returns an empty recorder. Events are also offered on C without
// blocking while its buffer has room.
func NewMemory(buffer int) *Memory {
	if buffer < 0 {
		buffer = 0
	}
	return &Memory{notify: make(chan protocol.Event, buffer)}
}

// Emit implements protocol.EventSink.
func (m *Memory) Emit(_ context.Context, event protocol.Event) error {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	select {
	case m.notify <- event:
	default:
	}
	return nil
}

// C delivers events as they arrive.
func (m *Memory) C() <-chan protocol.Event {
	return m.notify
}

// Events returns a copy of everything recorded so far.
func (m *Memory) Events() []protocol.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]protocol.Event, len(m.events))
	copy(out, m.events)
	return out
}

// Reset drops recorded events.
func (m *Memory) Reset() {
	m.mu.Lock()
	m.events = nil
	m.mu.Unlock()
}

// Fanout emits every event to each sink in order. All sinks are attempted;
// their errors are joined.
type Fanout []protocol.EventSink

// Emit implements protocol.EventSink.
func (f Fanout) Emit(ctx context.Context, event protocol.Event) error {
	var errs []error
	for _, sink := range f {
		if sink == nil {
			continue
		}
		if err := sink.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
