package presence

import (
	"context"
	"errors"
	"sync"
	"time"
)

// SessionState is the lifecycle position of a viewer session.
type SessionState int32

const (
	StateAttaching SessionState = iota
	StateStreaming
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateAttaching:
		return "attaching"
	case StateStreaming:
		return "streaming"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// ErrEvicted is returned by Stream when the dispatcher dropped the
// subscriber because it could not keep up.
var ErrEvicted = errors.New("subscriber evicted")

// ErrNotAttached is returned by Stream before a successful Attach.
var ErrNotAttached = errors.New("session not attached")

// EventWriter is the viewer transport.
type EventWriter interface {
	WriteEvent(Event) error
	WriteHeartbeat() error
}

// Session is one viewer's connection to one section.  Attach registers
// it, Stream relays events until the transport or context ends, and Close
// always deregisters.
type Session struct {
	b         *Broadcaster
	sectionID uint64
	heartbeat time.Duration

	mu    sync.Mutex
	state SessionState
	sub   *Subscriber
}

// SectionID is fixed for the session's lifetime.
func (s *Session) SectionID() uint64 { return s.sectionID }

// State reports the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Attach registers the session.  The sync snapshot is queued as the first
// event; Stream writes it before anything else.
func (s *Session) Attach(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateAttaching || s.sub != nil {
		s.mu.Unlock()
		return errors.New("session already attached or closed")
	}
	s.mu.Unlock()

	sub, err := s.b.Subscribe(ctx, s.sectionID)
	if err != nil {
		s.Close()
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		// Closed while attaching.
		s.b.Unsubscribe(sub)
		return context.Canceled
	}
	s.sub = sub
	return nil
}

// Stream writes the sync snapshot, then relays dispatched events and
// heartbeats until ctx ends, a write fails, or the subscriber is evicted.
// It closes the session on return.  A cancelled context is a normal end
// and returns nil.
func (s *Session) Stream(ctx context.Context, w EventWriter) error {
	defer s.Close()

	s.mu.Lock()
	sub := s.sub
	s.mu.Unlock()
	if sub == nil {
		return ErrNotAttached
	}

	select {
	case batch := <-sub.Events():
		if err := writeBatch(w, batch); err != nil {
			return err
		}
	case <-sub.Done():
		return ErrEvicted
	case <-ctx.Done():
		return nil
	}

	s.mu.Lock()
	if s.state == StateAttaching {
		s.state = StateStreaming
	}
	s.mu.Unlock()

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sub.Done():
			return ErrEvicted
		case batch := <-sub.Events():
			if err := writeBatch(w, batch); err != nil {
				return err
			}
		case <-ticker.C:
			if err := w.WriteHeartbeat(); err != nil {
				return err
			}
		}
	}
}

func writeBatch(w EventWriter, batch []Event) error {
	for _, ev := range batch {
		if err := w.WriteEvent(ev); err != nil {
			return err
		}
	}
	return nil
}

// Run is Attach followed by Stream.
func (s *Session) Run(ctx context.Context, w EventWriter) error {
	if err := s.Attach(ctx); err != nil {
		return err
	}
	return s.Stream(ctx, w)
}

// Close moves the session to CLOSED and deregisters it.  Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	s.state = StateClosed
	if s.sub != nil {
		s.b.Unsubscribe(s.sub)
	}
}
