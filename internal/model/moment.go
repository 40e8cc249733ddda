package model

import "time"

// Moment is a registered participant of the booth.  The display name is
// what the firefly screens show once the participant is released.
type Moment struct {
	ID          uint64    `json:"id"`           // moments.id
	DisplayName string    `json:"display_name"` // moments.display_name
	CreatedAt   time.Time `json:"created_at"`   // moments.created_at
}

// Participant is the projection of a moment used by the presence core: the
// stable moment ID for diffing plus the name shown to viewers.
type Participant struct {
	MomentID uint64
	Name     string
}
