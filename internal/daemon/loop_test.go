package daemon

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestLoopRunsInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := NewLoop(discardLogger())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = l.Run(ctx)
	}()

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}
	if err := l.Do(ctx, func() error { return nil }); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("task order = %v", got)
		}
	}

	boom := errors.New("boom")
	if err := l.Do(ctx, func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("Do() error = %v, want %v", err, boom)
	}
	if err := l.Do(ctx, func() error { panic("bad task") }); err == nil {
		t.Fatalf("expected panic to surface as an error")
	}

	fired := make(chan struct{})
	l.AfterFunc(10*time.Millisecond, func() { close(fired) })
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatalf("timer never ran on the loop")
	}

	cancel()
	<-done
	if err := l.Do(context.Background(), func() error { return nil }); !errors.Is(err, ErrStopped) {
		t.Fatalf("Do() after stop error = %v, want ErrStopped", err)
	}
	if l.Post(func() {}) {
		t.Fatalf("Post() after stop reported success")
	}
}

func TestLoopPostFromLoopDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l := NewLoop(discardLogger())
	go func() { _ = l.Run(ctx) }()

	// Far more follow-up work than any fixed queue would hold.
	const n = 10000
	count := 0
	posted := make(chan bool, 1)
	l.Post(func() {
		ok := true
		for i := 0; i < n; i++ {
			ok = l.Post(func() { count++ }) && ok
		}
		posted <- ok
	})

	select {
	case ok := <-posted:
		if !ok {
			t.Fatalf("Post() from the loop reported a stopped loop")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("loop goroutine blocked posting to itself")
	}

	err := l.Do(ctx, func() error {
		if count != n {
			return fmt.Errorf("ran %d follow-up tasks before Do, want %d", count, n)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
}
