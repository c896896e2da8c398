// Package looptest provides a deterministic loop.Scheduler for tests.
package looptest

import (
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-surveysync/pkg/loop"
)

// Manual is a loop.Scheduler driven by the test goroutine. Queued jobs run on
// Flush; timers fire when Advance moves the virtual clock past their deadline.
// RunOnLoop may be called from any goroutine; everything else belongs to the
// test goroutine.
type Manual struct {
	now    time.Duration
	seq    int
	timers []*manualTimer

	mu     sync.Mutex
	queue  []func()
	posted chan struct{}
}

var _ loop.Scheduler = (*Manual)(nil)

// NewManual returns a scheduler positioned at virtual time zero.
func NewManual() *Manual {
	return &Manual{posted: make(chan struct{}, 1)}
}

// RunOnLoop queues fn until the next Flush or Advance.
func (m *Manual) RunOnLoop(fn func()) bool {
	if fn == nil {
		return false
	}
	m.mu.Lock()
	m.queue = append(m.queue, fn)
	m.mu.Unlock()
	select {
	case m.posted <- struct{}{}:
	default:
	}
	return true
}

// WaitPosted blocks until a job is queued or timeout elapses. It reports
// whether a job is waiting.
func (m *Manual) WaitPosted(timeout time.Duration) bool {
	if m.queued() > 0 {
		return true
	}
	select {
	case <-m.posted:
		return true
	case <-time.After(timeout):
		return m.queued() > 0
	}
}

func (m *Manual) queued() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

func (m *Manual) pop() (func(), bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return nil, false
	}
	job := m.queue[0]
	m.queue = m.queue[1:]
	return job, true
}

// AfterFunc registers fn to fire once the clock reaches now+d.
func (m *Manual) AfterFunc(d time.Duration, fn func()) loop.Timer {
	m.seq++
	t := &manualTimer{deadline: m.now + d, seq: m.seq, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// Flush runs queued jobs and zero-delay timers until nothing is runnable at
// the current virtual time.
func (m *Manual) Flush() {
	m.Advance(0)
}

// Advance moves the clock forward by d, running queued jobs and every timer
// whose deadline falls inside the window in deadline order.
func (m *Manual) Advance(d time.Duration) {
	target := m.now + d
	for {
		if job, ok := m.pop(); ok {
			job()
			continue
		}
		next := m.nextDue(target)
		if next == nil {
			break
		}
		m.now = next.deadline
		next.fired = true
		next.fn()
	}
	m.now = target
}

// Now reports the virtual clock.
func (m *Manual) Now() time.Duration {
	return m.now
}

// Pending reports timers that have neither fired nor been stopped.
func (m *Manual) Pending() int {
	n := 0
	for _, t := range m.timers {
		if !t.fired && !t.stopped {
			n++
		}
	}
	return n
}

func (m *Manual) nextDue(target time.Duration) *manualTimer {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.fired && !t.stopped {
			live = append(live, t)
		}
	}
	m.timers = live
	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].deadline == m.timers[j].deadline {
			return m.timers[i].seq < m.timers[j].seq
		}
		return m.timers[i].deadline < m.timers[j].deadline
	})
	if len(m.timers) == 0 || m.timers[0].deadline > target {
		return nil
	}
	return m.timers[0]
}

type manualTimer struct {
	deadline time.Duration
	seq      int
	fn       func()
	fired    bool
	stopped  bool
}

func (t *manualTimer) Stop() {
	t.stopped = true
}
