package txn

import (
	"fmt"
	"log/slog"
	"time"
)

// DefaultTimeout bounds how long a committed transaction waits for its
// clients before being force-applied.
const DefaultTimeout = 150 * time.Millisecond

// Options configures a Manager.
type Options struct {
	Timeout   time.Duration
	Scheduler Scheduler
	Logger    *slog.Logger
}

// Manager assembles transactions and drives them through propose, commit and
// apply.
type Manager struct {
	timeout   time.Duration
	scheduler Scheduler
	logger    *slog.Logger
	nextID    uint64
	inflight  map[uint32]*Transaction
	listeners []func(*Transaction)
}

// NewManager creates a manager. A nil scheduler uses real timers, which is
// only appropriate when the caller serialises the callbacks itself.
func NewManager(opts Options) *Manager {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	scheduler := opts.Scheduler
	if scheduler == nil {
		scheduler = SchedulerFunc(func(d time.Duration, fn func()) Timer {
			return time.AfterFunc(d, fn)
		})
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		timeout:   timeout,
		scheduler: scheduler,
		logger:    logger,
		inflight:  make(map[uint32]*Transaction),
	}
}

// Timeout returns the forced-apply timeout used for new commits.
func (m *Manager) Timeout() time.Duration {
	return m.timeout
}

// SetTimeout changes the forced-apply timeout. Transactions that are already
// committed keep their deadline.
func (m *Manager) SetTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultTimeout
	}
	m.timeout = d
}

// OnDone registers fn to be called after a transaction is applied or aborted.
func (m *Manager) OnDone(fn func(*Transaction)) {
	m.listeners = append(m.listeners, fn)
}

// InFlight returns the transaction holding the object, if any.
func (m *Manager) InFlight(id uint32) (*Transaction, bool) {
	t, ok := m.inflight[id]
	return t, ok
}

// NewTransaction returns an empty open transaction.
func (m *Manager) NewTransaction(objects ...Object) *Transaction {
	m.nextID++
	t := &Transaction{
		id:      m.nextID,
		manager: m,
		index:   make(map[uint32]int),
		ready:   make(map[uint32]bool),
		done:    make(chan struct{}),
	}
	for _, o := range objects {
		_ = t.Add(o)
	}
	return t
}

// Propose captures every member's pending state. It is all or nothing: if any
// member is already in flight, the members proposed so far are aborted and a
// *ConflictError is returned.
func (m *Manager) Propose(t *Transaction) error {
	if err := m.own(t); err != nil {
		return err
	}
	if t.stage != StageOpen {
		return fmt.Errorf("propose %s transaction %d: %w", t.stage, t.id, ErrState)
	}
	if len(t.objects) == 0 {
		return fmt.Errorf("propose transaction %d: %w", t.id, ErrEmpty)
	}

	for i, o := range t.objects {
		id := o.ObjectID()
		var err error
		if other, busy := m.inflight[id]; busy {
			err = fmt.Errorf("held by transaction %d: %w", other.id, ErrConflict)
		} else {
			err = o.Propose()
		}
		if err != nil {
			for _, prev := range t.objects[:i] {
				prev.Abort()
				delete(m.inflight, prev.ObjectID())
			}
			m.logger.Debug("transaction proposal rejected",
				"transaction", t.id, "object", id, "error", err)
			return &ConflictError{ObjectID: id, Err: err}
		}
		m.inflight[id] = t
	}

	t.stage = StageProposed
	m.logger.Debug("transaction proposed", "transaction", t.id, "objects", len(t.objects))
	return nil
}

// Commit publishes every member's captured target as its committed state.
// All members are committed before any readiness is acted on, so no observer
// sees a partly committed transaction. Once committed a transaction can no
// longer be aborted.
func (m *Manager) Commit(t *Transaction) error {
	if err := m.own(t); err != nil {
		return err
	}
	if t.stage != StageProposed {
		return fmt.Errorf("commit %s transaction %d: %w", t.stage, t.id, ErrState)
	}

	t.stage = StageCommitted
	t.started = time.Now()
	t.committing = true
	for _, o := range t.objects {
		id := o.ObjectID()
		o.Commit(func() { m.markReady(t, id) })
	}
	t.committing = false

	m.logger.Debug("transaction committed", "transaction", t.id, "objects", len(t.objects))
	if m.allReady(t) {
		m.apply(t)
		return nil
	}
	t.timer = m.scheduler.AfterFunc(m.timeout, func() { m.expire(t) })
	return nil
}

// Submit proposes and commits in one step.
func (m *Manager) Submit(t *Transaction) error {
	if err := m.Propose(t); err != nil {
		return err
	}
	return m.Commit(t)
}

// Abort retracts a transaction that has not been committed. Proposed members
// return to Idle with their pending state untouched.
func (m *Manager) Abort(t *Transaction) error {
	if err := m.own(t); err != nil {
		return err
	}
	switch t.stage {
	case StageOpen:
	case StageProposed:
		for _, o := range t.objects {
			o.Abort()
			delete(m.inflight, o.ObjectID())
		}
	default:
		return fmt.Errorf("abort %s transaction %d: %w", t.stage, t.id, ErrState)
	}
	t.stage = StageAborted
	m.logger.Debug("transaction aborted", "transaction", t.id)
	m.finish(t)
	return nil
}

func (m *Manager) own(t *Transaction) error {
	if t == nil || t.manager != m {
		return fmt.Errorf("transaction not created by this manager: %w", ErrState)
	}
	return nil
}

func (m *Manager) markReady(t *Transaction, id uint32) {
	if t.finished() {
		return
	}
	t.ready[id] = true
	// Readiness reported during the commit pass is collected and acted on
	// once the pass completes.
	if t.stage == StageCommitted && !t.committing && m.allReady(t) {
		m.apply(t)
	}
}

func (m *Manager) allReady(t *Transaction) bool {
	for _, o := range t.objects {
		if !t.ready[o.ObjectID()] {
			return false
		}
	}
	return true
}

func (m *Manager) expire(t *Transaction) {
	if t.stage != StageCommitted {
		return
	}
	t.forced = true
	m.logger.Warn("transaction timed out, forcing apply",
		"transaction", t.id,
		"timeout", m.timeout,
		"waiting", t.Waiting())
	m.apply(t)
}

func (m *Manager) apply(t *Transaction) {
	if t.timer != nil {
		t.timer.Stop()
	}
	for _, o := range t.objects {
		o.Apply()
		delete(m.inflight, o.ObjectID())
	}
	t.stage = StageApplied
	m.logger.Debug("transaction applied",
		"transaction", t.id,
		"forced", t.forced,
		"elapsed", time.Since(t.started))
	m.finish(t)
}

func (m *Manager) finish(t *Transaction) {
	close(t.done)
	for _, fn := range m.listeners {
		fn(t)
	}
}
