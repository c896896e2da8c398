package loop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestLoop_RunsInSubmissionOrder(t *testing.T) {
	l := New()
	defer l.Stop()

	var (
		mu  sync.Mutex
		got []int
	)
	for i := 0; i < 5; i++ {
		i := i
		if !l.RunOnLoop(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		}) {
			t.Fatalf("run on loop rejected job %d", i)
		}
	}
	if err := l.RunOnLoopSync(context.Background(), func() error { return nil }); err != nil {
		t.Fatalf("sync: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	for i, v := range got {
		if v != i {
			t.Fatalf("out of order: %v", got)
		}
	}
}

func TestLoop_AfterFuncAndStop(t *testing.T) {
	l := New()
	defer l.Stop()

	fired := make(chan struct{}, 2)
	cancelled := l.AfterFunc(10*time.Millisecond, func() { fired <- struct{}{} })
	cancelled.Stop()
	cancelled.Stop()

	l.AfterFunc(5*time.Millisecond, func() { fired <- struct{}{} })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}
	select {
	case <-fired:
		t.Fatal("stopped timer fired")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLoop_SyncPropagatesErrorAndStoppedLoop(t *testing.T) {
	l := New()
	want := errors.New("boom")
	if err := l.RunOnLoopSync(context.Background(), func() error { return want }); !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
	l.Stop()
	l.Stop()
	if l.RunOnLoop(func() {}) {
		t.Fatal("expected stopped loop to reject work")
	}
	if err := l.RunOnLoopSync(context.Background(), func() error { return nil }); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
}
