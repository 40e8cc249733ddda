package model

import "time"

// Section represents one area of the event that runs its own firefly
// broadcast.  Sections are ordered for display by DisplayOrder and then
// by ID.  At least one section always exists; the repository refuses to
// delete the last one.
//
// Fields:
//  ID           – primary key identifier.
//  Name         – display name shown on the section's screen.
//  DisplayOrder – sort key used when listing sections.
//  CreatedAt    – creation timestamp.
type Section struct {
	ID           uint64    `json:"id"`            // sections.id
	Name         string    `json:"name"`          // sections.name
	DisplayOrder int       `json:"display_order"` // sections.display_order
	CreatedAt    time.Time `json:"created_at"`    // sections.created_at
}
