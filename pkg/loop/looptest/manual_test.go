package looptest

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestManual_OrdersJobsAndTimers(t *testing.T) {
	m := NewManual()
	var got []string

	m.AfterFunc(200*time.Millisecond, func() { got = append(got, "t200") })
	m.AfterFunc(0, func() { got = append(got, "t0") })
	m.RunOnLoop(func() {
		got = append(got, "job")
		m.RunOnLoop(func() { got = append(got, "nested") })
	})
	stopped := m.AfterFunc(50*time.Millisecond, func() { got = append(got, "stopped") })
	stopped.Stop()

	m.Flush()
	if diff := cmp.Diff([]string{"job", "nested", "t0"}, got); diff != "" {
		t.Fatalf("after flush (-want +got):\n%s", diff)
	}
	if m.Pending() != 1 {
		t.Fatalf("expected one pending timer, got %d", m.Pending())
	}

	m.Advance(199 * time.Millisecond)
	if len(got) != 3 {
		t.Fatalf("timer fired early: %v", got)
	}
	m.Advance(time.Millisecond)
	if diff := cmp.Diff([]string{"job", "nested", "t0", "t200"}, got); diff != "" {
		t.Fatalf("after advance (-want +got):\n%s", diff)
	}
	if m.Now() != 200*time.Millisecond {
		t.Fatalf("clock at %v", m.Now())
	}
}
