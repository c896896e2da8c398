package transport

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/goliatone/go-surveysync/internal/logger"
	"github.com/goliatone/go-surveysync/pkg/protocol"
)

// MaxLineSize bounds one line-delimited message.
const MaxLineSize = 4 << 20

// ReadLines delivers every non-blank line of r to host until r is exhausted
// or ctx is done. Undeliverable lines are logged and skipped.
func ReadLines(ctx context.Context, r io.Reader, host Host, log logger.Logger) error {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)

	line := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		msg := make([]byte, len(raw))
		copy(msg, raw)
		if err := host.DeliverRaw(ctx, msg); err != nil {
			log.Warn("transport: line not delivered", map[string]interface{}{
				"line":  line,
				"error": err.Error(),
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("transport: read lines: %w", err)
	}
	return nil
}

// Writer emits events as JSON lines.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewWriter returns a sink writing to out.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Emit implements protocol.EventSink.
func (w *Writer) Emit(_ context.Context, event protocol.Event) error {
	raw, err := protocol.MarshalEvent(event)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.out.Write(append(raw, '\n')); err != nil {
		return fmt.Errorf("transport: write event: %w", err)
	}
	return nil
}
