package binding

import (
	"time"

	"github.com/goliatone/go-surveysync/pkg/loop"
)

// DefaultDebounceWindow is the quiet period before a data_live event.
const DefaultDebounceWindow = 200 * time.Millisecond

// debouncer runs fn once after the last Trigger in a window. One timer per
// instance; each trigger replaces the previous one.
type debouncer struct {
	sched  loop.Scheduler
	window time.Duration
	fn     func()
	timer  loop.Timer
}

func newDebouncer(sched loop.Scheduler, window time.Duration, fn func()) *debouncer {
	return &debouncer{sched: sched, window: window, fn: fn}
}

func (d *debouncer) Trigger() {
	d.Stop()
	var t loop.Timer
	t = d.sched.AfterFunc(d.window, func() {
		if d.timer != t {
			return
		}
		d.timer = nil
		d.fn()
	})
	d.timer = t
}

func (d *debouncer) Stop() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *debouncer) Pending() bool {
	return d.timer != nil
}
