package model

import "time"

// CheckinState is the position of a (moment, section) pair in the
// check-in lifecycle.  The lifecycle only moves forward:
// NOT_CHECKED_IN → CHECKED_IN → RELEASED.
type CheckinState string

const (
	StateNotCheckedIn CheckinState = "NOT_CHECKED_IN"
	StateCheckedIn    CheckinState = "CHECKED_IN"
	StateReleased     CheckinState = "RELEASED"
)

// CheckinRecord is one row of the checkins table.  The pair
// (MomentID, SectionID) is unique.
//
// Fields:
//  MomentID         – participant that checked in.
//  SectionID        – section the participant checked into.
//  CheckedInAt      – last (re-)check-in time, UTC.
//  IsFireflyRelease – true once the participant has been released.
type CheckinRecord struct {
	MomentID         uint64    `json:"moment_id"`          // checkins.moment_id
	SectionID        uint64    `json:"section_id"`         // checkins.section_id
	CheckedInAt      time.Time `json:"checked_in_at"`      // checkins.checked_in_at
	IsFireflyRelease bool      `json:"is_firefly_release"` // checkins.is_firefly_release
}

// State derives the lifecycle state from the stored flags.  A nil record
// means no row exists for the pair.
func (r *CheckinRecord) State() CheckinState {
	if r == nil {
		return StateNotCheckedIn
	}
	if r.IsFireflyRelease {
		return StateReleased
	}
	return StateCheckedIn
}
