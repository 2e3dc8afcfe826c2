package toplevel

import (
	"fmt"

	"github.com/1broseidon/tilestate/internal/geometry"
	"github.com/1broseidon/tilestate/internal/txn"
)

// Client is the rendering collaborator of a toplevel. Configure asks the
// client to present state; the client later calls Ack with the same serial
// once it has.
type Client interface {
	Configure(t *Toplevel, serial uint32, state State)
}

const (
	slotPending = iota
	slotCommitted
	slotCurrent
)

// Toplevel owns the pending, committed and current state of one window.
//
// Pending is edited freely. Committed is only written by Commit and current
// only by Apply, both driven by a txn.Manager.
type Toplevel struct {
	id     uint32
	client Client
	slots  [3]State
	target State
	phase  txn.Phase
	serial uint32
	ready  func()

	minSize geometry.Dimensions
	maxSize geometry.Dimensions
}

var _ txn.Object = (*Toplevel)(nil)

// New creates a toplevel with every slot set to DefaultState. A nil client
// acknowledges every commit immediately.
func New(id uint32, client Client) *Toplevel {
	t := &Toplevel{id: id, client: client}
	for i := range t.slots {
		t.slots[i] = DefaultState()
	}
	return t
}

// Restore creates a toplevel whose slots all hold s, for windows that already
// exist when they are adopted.
func Restore(id uint32, client Client, s State) *Toplevel {
	t := New(id, client)
	for i := range t.slots {
		t.slots[i] = s
	}
	return t
}

func (t *Toplevel) ObjectID() uint32 {
	return t.id
}

// Pending returns the editable state. Edits made after the toplevel was
// proposed only take effect in a later transaction. Assigning a whole State
// copies its tiled edges as they are; only composing a new edge mask needs a
// grant token.
func (t *Toplevel) Pending() *State {
	return &t.slots[slotPending]
}

// Committed returns the state last requested from the client.
func (t *Toplevel) Committed() State {
	return t.slots[slotCommitted]
}

// Current returns the state the client has presented.
func (t *Toplevel) Current() State {
	return t.slots[slotCurrent]
}

// Phase returns where the toplevel is in the transaction protocol.
func (t *Toplevel) Phase() txn.Phase {
	return t.phase
}

// Serial returns the serial of the last configure sent to the client.
func (t *Toplevel) Serial() uint32 {
	return t.serial
}

// SetSizeHints records the client's content size limits. Zero means
// unconstrained.
func (t *Toplevel) SetSizeHints(minSize, maxSize geometry.Dimensions) {
	t.minSize = minSize
	t.maxSize = maxSize
}

func (t *Toplevel) MinSize() geometry.Dimensions { return t.minSize }
func (t *Toplevel) MaxSize() geometry.Dimensions { return t.maxSize }

func (t *Toplevel) Propose() error {
	if t.phase != txn.Idle {
		return fmt.Errorf("toplevel %d is %s: %w", t.id, t.phase, txn.ErrConflict)
	}
	t.target = t.slots[slotPending]
	t.phase = txn.Proposed
	return nil
}

func (t *Toplevel) Commit(ready func()) {
	if t.phase != txn.Proposed {
		return
	}
	t.slots[slotCommitted] = t.target
	t.phase = txn.Committed
	t.ready = ready

	if t.client == nil || t.slots[slotCommitted] == t.slots[slotCurrent] {
		t.markReady()
		return
	}
	t.serial++
	t.client.Configure(t, t.serial, t.slots[slotCommitted])
}

// Ack reports that the client presented the state sent with serial. Acks for
// older serials are ignored. It returns whether the ack was accepted.
func (t *Toplevel) Ack(serial uint32) bool {
	if t.phase != txn.Committed || serial != t.serial {
		return false
	}
	t.markReady()
	return true
}

// Release stops waiting for the client, for windows that went away while a
// commit was outstanding.
func (t *Toplevel) Release() {
	if t.phase == txn.Committed {
		t.markReady()
	}
}

func (t *Toplevel) markReady() {
	t.phase = txn.Ready
	if ready := t.ready; ready != nil {
		t.ready = nil
		ready()
	}
}

func (t *Toplevel) Apply() {
	t.slots[slotCurrent] = t.slots[slotCommitted]
	t.phase = txn.Idle
	t.ready = nil
}

func (t *Toplevel) Abort() {
	if t.phase != txn.Proposed {
		return
	}
	t.target = State{}
	t.phase = txn.Idle
}

func (t *Toplevel) String() string {
	return fmt.Sprintf("toplevel %d (%s)", t.id, t.phase)
}
