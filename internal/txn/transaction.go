package txn

import (
	"fmt"
	"time"
)

// Stage is the lifecycle stage of a whole transaction.
type Stage int

const (
	StageOpen Stage = iota
	StageProposed
	StageCommitted
	StageApplied
	StageAborted
)

func (s Stage) String() string {
	switch s {
	case StageOpen:
		return "open"
	case StageProposed:
		return "proposed"
	case StageCommitted:
		return "committed"
	case StageApplied:
		return "applied"
	case StageAborted:
		return "aborted"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Transaction is a set of objects that advance together.
type Transaction struct {
	id         uint64
	manager    *Manager
	objects    []Object
	index      map[uint32]int
	ready      map[uint32]bool
	stage      Stage
	forced     bool
	committing bool
	started    time.Time
	timer      Timer
	done       chan struct{}
}

// ID returns the manager-assigned transaction number.
func (t *Transaction) ID() uint64 {
	return t.id
}

// Add includes o in the transaction. Adding the same object twice is a no-op.
// Objects can only be added while the transaction is open.
func (t *Transaction) Add(o Object) error {
	if t.stage != StageOpen {
		return fmt.Errorf("add object %d to %s transaction: %w", o.ObjectID(), t.stage, ErrState)
	}
	if _, ok := t.index[o.ObjectID()]; ok {
		return nil
	}
	t.index[o.ObjectID()] = len(t.objects)
	t.objects = append(t.objects, o)
	return nil
}

// Objects returns the members in the order they were added.
func (t *Transaction) Objects() []Object {
	out := make([]Object, len(t.objects))
	copy(out, t.objects)
	return out
}

// Contains reports whether an object with the given id is a member.
func (t *Transaction) Contains(id uint32) bool {
	_, ok := t.index[id]
	return ok
}

// Len returns the number of members.
func (t *Transaction) Len() int {
	return len(t.objects)
}

// Stage returns the transaction's lifecycle stage.
func (t *Transaction) Stage() Stage {
	return t.stage
}

// Forced reports whether the transaction was applied because the timeout
// elapsed before every member was ready.
func (t *Transaction) Forced() bool {
	return t.forced
}

// Waiting returns the ids of committed members that have not reported ready.
func (t *Transaction) Waiting() []uint32 {
	if t.stage != StageCommitted {
		return nil
	}
	var ids []uint32
	for _, o := range t.objects {
		if !t.ready[o.ObjectID()] {
			ids = append(ids, o.ObjectID())
		}
	}
	return ids
}

// Done is closed once the transaction is applied or aborted.
func (t *Transaction) Done() <-chan struct{} {
	return t.done
}

func (t *Transaction) finished() bool {
	return t.stage == StageApplied || t.stage == StageAborted
}
