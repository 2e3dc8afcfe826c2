// Package txn implements the transaction protocol that moves toplevel state
// from pending to committed to current.
//
// A Manager groups objects into a Transaction. Proposing captures every
// member's pending state, committing publishes all captured states in a
// single pass, and the transaction is applied once every member reports that
// its client presented the committed state. Members that never report are
// force-applied after the manager's timeout.
//
// Managers and their objects are not safe for concurrent use; callers confine
// them to one goroutine.
package txn

import (
	"errors"
	"fmt"
)

var (
	// ErrConflict is reported when an object that is already part of an
	// in-flight transaction is proposed again.
	ErrConflict = errors.New("object already in an in-flight transaction")
	// ErrEmpty is reported when proposing a transaction with no members.
	ErrEmpty = errors.New("transaction has no objects")
	// ErrState is reported when an operation does not fit the transaction's
	// current stage, such as aborting after commit.
	ErrState = errors.New("invalid transaction state")
)

// Phase is the per-object stage in the protocol.
type Phase int

const (
	// Idle: no transaction in flight; pending may differ from committed.
	Idle Phase = iota
	// Proposed: pending was captured as the target of an in-flight transaction.
	Proposed
	// Committed: committed holds the target; waiting for the client.
	Committed
	// Ready: the client presented the committed state; waiting for the rest
	// of the transaction.
	Ready
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Proposed:
		return "proposed"
	case Committed:
		return "committed"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Identified is an object with a stable identity for lookup.
type Identified interface {
	ObjectID() uint32
}

// Participant is the set of hooks the Manager drives.
//
// Propose captures pending as the target and must fail with an error wrapping
// ErrConflict if the object is not Idle. Commit overwrites committed with the
// target and arranges for ready to be called once the client presented it;
// ready may be called before Commit returns. Apply overwrites current with
// committed and returns the object to Idle. Abort drops a proposed target.
type Participant interface {
	Propose() error
	Commit(ready func())
	Apply()
	Abort()
}

// Object is a transaction participant with an identity.
type Object interface {
	Identified
	Participant
}

// ConflictError reports which object made a proposal fail.
type ConflictError struct {
	ObjectID uint32
	Err      error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("object %d: %v", e.ObjectID, e.Err)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}
