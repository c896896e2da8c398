package loop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/dop251/goja_nodejs/require"
)

// DefaultSyncTimeout bounds RunOnLoopSync waits.
const DefaultSyncTimeout = 5 * time.Second

// ErrNotRunning is returned when work is submitted to a stopped loop.
var ErrNotRunning = errors.New("loop: event loop not running")

// Timer is a pending callback created by AfterFunc.
type Timer interface {
	// Stop cancels the callback if it has not run yet. Safe to call more than
	// once and after the callback fired.
	Stop()
}

// Scheduler is the contract the binding runtime relies on. Implementations
// must run every callback on one goroutine, in submission order for RunOnLoop
// and in deadline order for AfterFunc.
type Scheduler interface {
	RunOnLoop(fn func()) bool
	AfterFunc(d time.Duration, fn func()) Timer
}

// Loop adapts a goja_nodejs event loop to Scheduler.
type Loop struct {
	loop    *eventloop.EventLoop
	timeout time.Duration

	mu      sync.RWMutex
	running bool
}

// Option configures a Loop.
type Option func(*Loop)

// WithSyncTimeout overrides DefaultSyncTimeout. Zero disables the timeout.
func WithSyncTimeout(d time.Duration) Option {
	return func(l *Loop) {
		l.timeout = d
	}
}

// New constructs and starts a loop.
func New(options ...Option) *Loop {
	l := &Loop{
		loop: eventloop.NewEventLoop(
			eventloop.WithRegistry(require.NewRegistry()),
		),
		timeout: DefaultSyncTimeout,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(l)
	}
	l.loop.Start()
	l.running = true
	return l
}

// RunOnLoop queues fn. It reports false when the loop is stopped.
func (l *Loop) RunOnLoop(fn func()) bool {
	if fn == nil {
		return false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.running {
		return false
	}
	return l.loop.RunOnLoop(func(*goja.Runtime) { fn() })
}

// RunOnLoopSync queues fn and waits for it to return.
func (l *Loop) RunOnLoopSync(ctx context.Context, fn func() error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	errCh := make(chan error, 1)
	if !l.RunOnLoop(func() { errCh <- fn() }) {
		return ErrNotRunning
	}

	var timeout <-chan time.Time
	if l.timeout > 0 {
		timer := time.NewTimer(l.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-timeout:
		return fmt.Errorf("loop: operation timed out after %v", l.timeout)
	}
}

// AfterFunc schedules fn on the loop after d. A zero duration yields one loop
// turn, which is how first renders are deferred.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	t := l.loop.SetTimeout(func(*goja.Runtime) { fn() }, d)
	return &loopTimer{loop: l.loop, timer: t}
}

// Stop halts the loop. Pending timers are discarded.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	l.mu.Unlock()
	l.loop.Stop()
}

type loopTimer struct {
	loop  *eventloop.EventLoop
	timer *eventloop.Timer
	once  sync.Once
}

func (t *loopTimer) Stop() {
	if t == nil || t.timer == nil {
		return
	}
	t.once.Do(func() {
		t.loop.ClearTimeout(t.timer)
	})
}
