// Package lifecycle implements the request state machine tracking one
// asynchronous remote operation kind: idle until first use, pending while a
// call is in flight, then fulfilled or rejected. Every transition is checked;
// completions that arrive late or out of turn are refused rather than applied.
package lifecycle

import (
	"sync"

	"inkwell/pkg/platform/sentinel"
)

// Status is the lifecycle state of one operation kind.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusPending   Status = "pending"
	StatusFulfilled Status = "fulfilled"
	StatusRejected  Status = "rejected"
)

// Ticket identifies one started attempt. A completion must present the ticket
// its Start returned; a stale ticket means a newer attempt superseded it.
type Ticket uint64

// Inspector is the read-only view a store index holds for each operation.
type Inspector interface {
	Status() Status
	Err() error
}

// Lifecycle tracks the state of one operation kind producing a T.
//
// Start is legal from every state. Starting while pending supersedes the
// in-flight attempt (the redesigned coalescing rule): the old ticket's
// completion is refused with sentinel.ErrSuperseded, so late responses from
// abandoned attempts can never clobber newer state. Succeed and Fail are legal
// only while pending and only for the current ticket.
type Lifecycle[T any] struct {
	mu     sync.Mutex
	status Status
	data   *T
	err    error

	current Ticket

	// keepDataOnReject preserves the previous data through a rejection.
	// Domains differ: listing operations clear, some single-entity caches keep.
	keepDataOnReject bool
}

// Option configures a Lifecycle.
type Option[T any] func(*Lifecycle[T])

// KeepDataOnReject preserves prior data through rejections instead of clearing it.
func KeepDataOnReject[T any]() Option[T] {
	return func(l *Lifecycle[T]) {
		l.keepDataOnReject = true
	}
}

// New returns an idle lifecycle.
func New[T any](opts ...Option[T]) *Lifecycle[T] {
	l := &Lifecycle[T]{status: StatusIdle}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start transitions to pending and returns the ticket the eventual completion
// must present. Any stale error is cleared synchronously, before the remote
// call is issued.
func (l *Lifecycle[T]) Start() Ticket {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.current++
	l.status = StatusPending
	l.err = nil
	return l.current
}

// Succeed applies a fulfilled completion. It is refused when the lifecycle is
// not pending (sentinel.ErrNotPending) or when the ticket was superseded by a
// newer Start (sentinel.ErrSuperseded).
func (l *Lifecycle[T]) Succeed(t Ticket, data T) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkCompletable(t); err != nil {
		return err
	}
	l.status = StatusFulfilled
	l.data = &data
	l.err = nil
	return nil
}

// Fail applies a rejected completion, installing err. Same refusal rules as
// Succeed. A nil err is treated as a programming error and refused.
func (l *Lifecycle[T]) Fail(t Ticket, err error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err == nil {
		return sentinel.ErrNotPending
	}
	if cerr := l.checkCompletable(t); cerr != nil {
		return cerr
	}
	l.status = StatusRejected
	l.err = err
	if !l.keepDataOnReject {
		l.data = nil
	}
	return nil
}

func (l *Lifecycle[T]) checkCompletable(t Ticket) error {
	if l.status != StatusPending {
		return sentinel.ErrNotPending
	}
	if t != l.current {
		return sentinel.ErrSuperseded
	}
	return nil
}

// Status returns the current state.
func (l *Lifecycle[T]) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

// Pending reports whether an attempt is in flight.
func (l *Lifecycle[T]) Pending() bool {
	return l.Status() == StatusPending
}

// Data returns the installed result, if any.
func (l *Lifecycle[T]) Data() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.data == nil {
		var zero T
		return zero, false
	}
	return *l.data, true
}

// Err returns the installed rejection error, nil unless rejected.
func (l *Lifecycle[T]) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// ClearError drops a rejected error without touching data, returning the
// lifecycle to idle if it was rejected. Used by the global error reset.
func (l *Lifecycle[T]) ClearError() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.status == StatusRejected {
		l.status = StatusIdle
	}
	l.err = nil
}
