// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrNotCheckedIn indicates that a release was requested for a
// pair that never checked in, while ErrLastSection signals that a delete
// would leave the event without any section.
package repository

import (
	"errors"
	"fmt"
)

// ErrConflict is returned when a delete or update cannot be
// performed because of conflicting state. Handlers should translate
// this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrSectionNotFound is returned when a section lookup fails.
var ErrSectionNotFound = errors.New("section not found")

// ErrMomentNotFound is returned when a moment lookup fails.
var ErrMomentNotFound = errors.New("moment not found")

// ErrNotCheckedIn is returned by Release when no check-in record exists
// for the (moment, section) pair.  A participant cannot be released
// without first checking in.
var ErrNotCheckedIn = errors.New("not checked in")

// ErrLastSection wraps ErrConflict: the event must keep at least one section.
var ErrLastSection = fmt.Errorf("%w: cannot delete the last section", ErrConflict)

// Notifier is told after every committed ledger mutation.  The presence
// broadcaster implements it; the repositories never know who listens.
type Notifier interface {
	Notify()
}

type nopNotifier struct{}

func (nopNotifier) Notify() {}

func orNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
