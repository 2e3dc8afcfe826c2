package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/tilestate/internal/txn"
)

// ErrStopped is returned for work handed to a loop that is no longer running.
var ErrStopped = errors.New("control loop stopped")

// Loop runs functions one at a time on a single goroutine. The transaction
// manager and every toplevel are only touched from inside it.
type Loop struct {
	mu      sync.Mutex
	tasks   []func()
	stopped bool

	wake   chan struct{}
	done   chan struct{}
	logger *slog.Logger
}

func NewLoop(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Run executes posted functions until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer func() {
		l.mu.Lock()
		l.stopped = true
		l.tasks = nil
		l.mu.Unlock()
		close(l.done)
	}()
	l.logger.Debug("control loop started")

	for {
		select {
		case <-ctx.Done():
			l.logger.Debug("control loop stopped")
			return nil
		case <-l.wake:
		}
		for ctx.Err() == nil {
			fn := l.next()
			if fn == nil {
				break
			}
			l.run(fn)
		}
	}
}

func (l *Loop) next() func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.tasks) == 0 {
		return nil
	}
	fn := l.tasks[0]
	l.tasks[0] = nil
	l.tasks = l.tasks[1:]
	return fn
}

func (l *Loop) run(fn func()) {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			l.logger.Error("control loop panic recovered", "error", err)
		}
	}()
	fn()
}

// Post queues fn. It never blocks, so it is safe to call from the loop
// itself. It reports false if the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Do runs fn on the loop and waits for its result.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	errc := make(chan error, 1)
	posted := l.Post(func() {
		defer func() {
			if r := recover(); r != nil {
				errc <- fmt.Errorf("panic: %v", r)
				panic(r)
			}
		}()
		errc <- fn()
	})
	if !posted {
		return ErrStopped
	}

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrStopped
	}
}

// AfterFunc makes the loop a txn.Scheduler: fn runs on the loop once d has
// elapsed.
func (l *Loop) AfterFunc(d time.Duration, fn func()) txn.Timer {
	return time.AfterFunc(d, func() { l.Post(fn) })
}

var _ txn.Scheduler = (*Loop)(nil)
