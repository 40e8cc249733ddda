// Package queue defines message payloads exchanged over the message broker
// and the consumer that turns external ledger changes into notifications.
package queue

// Queue names used on the default exchange.
const (
	FireflyReleasedQueue = "firefly.released"
	LedgerChangedQueue   = "ledger.changed"
)

// FireflyReleasedEvent is published when a check-in moves from CHECKED_IN
// to RELEASED.  Downstream consumers (lighting cues, the photo wall) can
// react without querying the ledger.
type FireflyReleasedEvent struct {
	MomentID    uint64 `json:"moment_id"`
	SectionID   uint64 `json:"section_id"`
	DisplayName string `json:"display_name"`
	ReleasedAt  string `json:"released_at"`
}

// LedgerChangedEvent is sent by other writers of the ledger (kiosks,
// batch imports) so this process re-reads it.  All fields are advisory;
// an empty body is a valid change notice.
type LedgerChangedEvent struct {
	Source    string `json:"source,omitempty"`
	SectionID uint64 `json:"section_id,omitempty"`
	ChangedAt string `json:"changed_at,omitempty"`
}
