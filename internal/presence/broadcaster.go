package presence

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// ErrInvalidSection is returned for a zero section ID.
var ErrInvalidSection = errors.New("invalid section id")

// Options tune a Broadcaster.  Zero values fall back to the defaults.
// SubscriberBuffer counts undelivered ticks per viewer, whatever their
// size; a viewer that falls further behind is evicted.
type Options struct {
	Debounce         time.Duration
	Heartbeat        time.Duration
	SubscriberBuffer int
}

const (
	DefaultHeartbeat        = 30 * time.Second
	DefaultSubscriberBuffer = 32
)

func (o Options) withDefaults() Options {
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.Heartbeat <= 0 {
		o.Heartbeat = DefaultHeartbeat
	}
	if o.SubscriberBuffer < 1 {
		o.SubscriberBuffer = DefaultSubscriberBuffer
	}
	return o
}

// Broadcaster wires the detector, diff engine and registry together.  It
// is built by the composition root and driven through Start and Stop.
//
// mu serializes reconciliation ticks with subscriber attachment.  The
// engine cache is only touched under it, and a new viewer's sync snapshot
// is taken at a point where every earlier delta has already been
// dispatched to the existing viewers.
type Broadcaster struct {
	opts     Options
	engine   *Engine
	registry *Registry
	detector *Detector

	mu sync.Mutex
}

// NewBroadcaster returns a stopped broadcaster reading from ledger.
func NewBroadcaster(ledger Ledger, opts Options) *Broadcaster {
	b := &Broadcaster{
		opts:     opts.withDefaults(),
		engine:   NewEngine(ledger),
		registry: NewRegistry(),
	}
	b.detector = NewDetector(b.opts.Debounce, b.ReconcileNow)
	return b
}

// Start begins listening for notifications.
func (b *Broadcaster) Start(ctx context.Context) { b.detector.Start(ctx) }

// Stop halts the detector.  Live sessions are left to their own contexts.
func (b *Broadcaster) Stop() { b.detector.Stop() }

// Notify tells the broadcaster the ledger may have changed.
func (b *Broadcaster) Notify() { b.detector.Notify() }

// Registry exposes the subscriber registry, mainly for health reporting.
func (b *Broadcaster) Registry() *Registry { return b.registry }

// ReconcileNow runs one reconciliation tick over every watched section.
// A failing section is reported in the returned error but does not stop
// the others from being reconciled.
func (b *Broadcaster) ReconcileNow(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	sections := b.registry.Sections()
	b.engine.Retain(sections)

	var errs []error
	for _, id := range sections {
		added, removed, err := b.engine.Reconcile(ctx, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("section %d: %w", id, err))
			continue
		}
		b.registry.Dispatch(id, added, removed)
	}
	return errors.Join(errs...)
}

// Subscribe attaches a new subscriber to a section.  The first event on
// the returned subscriber is always a sync carrying the full released
// set.  If the section is already cached, pending changes are reconciled
// and dispatched to the existing subscribers before the snapshot is
// taken, so no viewer misses or double-counts a change.
func (b *Broadcaster) Subscribe(ctx context.Context, sectionID uint64) (*Subscriber, error) {
	if sectionID == 0 {
		return nil, ErrInvalidSection
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	var snapshot []string
	if _, cached := b.engine.Current(sectionID); cached {
		added, removed, err := b.engine.Reconcile(ctx, sectionID)
		if err != nil {
			return nil, err
		}
		b.registry.Dispatch(sectionID, added, removed)
		snapshot, _ = b.engine.Current(sectionID)
	} else {
		names, err := b.engine.InitialSnapshot(ctx, sectionID)
		if err != nil {
			return nil, err
		}
		snapshot = names
	}

	sub := newSubscriber(sectionID, b.opts.SubscriberBuffer)
	sub.Send(Event{Kind: EventSync, Names: snapshot})
	if b.registry.Register(sub) {
		log.Printf("presence: section %d now watched", sectionID)
	}
	return sub, nil
}

// Unsubscribe detaches sub and closes it.  Safe to call more than once.
// It does not wait for a running tick.
func (b *Broadcaster) Unsubscribe(sub *Subscriber) {
	b.registry.Unregister(sub)
	sub.close()
}

// NewSession prepares a viewer session for a section.
func (b *Broadcaster) NewSession(sectionID uint64) *Session {
	return &Session{b: b, sectionID: sectionID, heartbeat: b.opts.Heartbeat}
}
