package presence

import "encoding/json"

// EventKind names an event on the wire.
type EventKind string

const (
	EventSync   EventKind = "sync"
	EventAdd    EventKind = "add"
	EventRemove EventKind = "remove"
)

// Event is one message for a viewer.  Sync events carry Names; add and
// remove events carry Name.
type Event struct {
	Kind  EventKind
	Name  string
	Names []string
}

// Data returns the JSON payload of the event: an array for sync, a single
// string for add and remove.
func (e Event) Data() ([]byte, error) {
	if e.Kind == EventSync {
		names := e.Names
		if names == nil {
			names = []string{}
		}
		return json.Marshal(names)
	}
	return json.Marshal(e.Name)
}

// WriteResult is the outcome of handing an event to a subscriber.
type WriteResult int

const (
	// WriteOK means the event was queued for the viewer.
	WriteOK WriteResult = iota
	// WriteClosed means the subscriber was already closed.
	WriteClosed
	// WriteFull means the subscriber's buffer is full; the viewer is too
	// slow and is treated as dead.
	WriteFull
)

func (r WriteResult) String() string {
	switch r {
	case WriteOK:
		return "ok"
	case WriteClosed:
		return "closed"
	case WriteFull:
		return "full"
	}
	return "unknown"
}
