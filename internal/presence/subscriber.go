package presence

import "sync"

// Subscriber is the output channel of one viewer, scoped to one section.
// Each queued item is the ordered batch of one dispatch, so the buffer
// bounds how many ticks a viewer may fall behind, not how many names a
// tick carries.  The events channel is never closed; done signals that
// the subscriber has been shut down so senders and the reading session
// can both stop.
type Subscriber struct {
	sectionID uint64
	events    chan []Event
	done      chan struct{}
	once      sync.Once
}

func newSubscriber(sectionID uint64, buffer int) *Subscriber {
	return &Subscriber{
		sectionID: sectionID,
		events:    make(chan []Event, buffer),
		done:      make(chan struct{}),
	}
}

// SectionID is fixed for the subscriber's lifetime.
func (s *Subscriber) SectionID() uint64 { return s.sectionID }

// Events delivers queued batches in dispatch order.
func (s *Subscriber) Events() <-chan []Event { return s.events }

// Done is closed once the subscriber is shut down.
func (s *Subscriber) Done() <-chan struct{} { return s.done }

// Send queues batch as one unit without blocking.  An empty batch is a
// no-op.
func (s *Subscriber) Send(batch ...Event) WriteResult {
	select {
	case <-s.done:
		return WriteClosed
	default:
	}
	if len(batch) == 0 {
		return WriteOK
	}
	select {
	case s.events <- batch:
		return WriteOK
	default:
		return WriteFull
	}
}

func (s *Subscriber) close() {
	s.once.Do(func() { close(s.done) })
}
