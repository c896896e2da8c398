package transport

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-surveysync/internal/logger"
	"github.com/goliatone/go-surveysync/pkg/protocol"
)

type recordingHost struct {
	mu       sync.Mutex
	messages []string
	received chan string
	fail     string
}

func newRecordingHost() *recordingHost {
	return &recordingHost{received: make(chan string, 16)}
}

func (h *recordingHost) DeliverRaw(_ context.Context, raw []byte) error {
	h.mu.Lock()
	h.messages = append(h.messages, string(raw))
	h.mu.Unlock()
	h.received <- string(raw)
	if h.fail != "" && strings.Contains(string(raw), h.fail) {
		return errors.New("rejected")
	}
	return nil
}

func (h *recordingHost) all() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.messages...)
}

func sampleEvent() protocol.Event {
	return protocol.NewEvent("s1", protocol.EventDataFinal, map[string]any{"q1": "yes"}, time.Unix(1700000000, 0).UTC())
}

func TestMemoryRecordsAndNotifies(t *testing.T) {
	sink := NewMemory(1)
	require.NoError(t, sink.Emit(context.Background(), sampleEvent()))
	require.NoError(t, sink.Emit(context.Background(), sampleEvent()))

	assert.Len(t, sink.Events(), 2)
	select {
	case e := <-sink.C():
		assert.Equal(t, "s1_data", e.Input)
	default:
		t.Fatal("expected a buffered notification")
	}
	sink.Reset()
	assert.Empty(t, sink.Events())
}

type failingSink struct{ err error }

func (f failingSink) Emit(context.Context, protocol.Event) error { return f.err }

func TestFanoutAttemptsEverySink(t *testing.T) {
	first, last := NewMemory(0), NewMemory(0)
	boom := errors.New("boom")
	fan := Fanout{first, failingSink{err: boom}, nil, last}

	err := fan.Emit(context.Background(), sampleEvent())
	assert.ErrorIs(t, err, boom)
	assert.Len(t, first.Events(), 1)
	assert.Len(t, last.Events(), 1)
}

func TestReadLinesDeliversEachMessage(t *testing.T) {
	host := newRecordingHost()
	host.fail = "broken"
	input := strings.Join([]string{
		`{"type":"init","element_id":"s1"}`,
		"",
		`   `,
		`broken`,
		`{"type":"destroy","id":"s1"}`,
	}, "\n")

	err := ReadLines(context.Background(), strings.NewReader(input), host, logger.NewTestLogger(t))
	require.NoError(t, err)
	assert.Equal(t, []string{
		`{"type":"init","element_id":"s1"}`,
		`broken`,
		`{"type":"destroy","id":"s1"}`,
	}, host.all())
}

func TestReadLinesStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ReadLines(ctx, strings.NewReader("{}\n{}\n"), newRecordingHost(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriterEmitsJSONLines(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Emit(context.Background(), sampleEvent()))
	require.NoError(t, w.Emit(context.Background(), sampleEvent()))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"id":"s1","kind":"data_final","input":"s1_data","data":{"q1":"yes"},"at":"2023-11-14T22:13:20Z"}`, lines[0])
}
