package presence

import (
	"context"
	"log"
	"sync"
	"time"
)

// DefaultDebounce is the quiet period a burst of writes must leave before
// a reconciliation tick fires.
const DefaultDebounce = 150 * time.Millisecond

// Detector turns a stream of "the ledger may have changed" notifications
// into debounced ticks.  It does not know what changed.  Each Notify
// restarts the debounce timer; when the timer runs out the tick function
// runs once.  Notifications that arrive while a tick runs are kept and
// start a new debounce afterwards, so no write is missed.
type Detector struct {
	debounce time.Duration
	tick     func(context.Context) error
	signal   chan struct{}

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewDetector returns a stopped detector.  A non-positive debounce uses
// DefaultDebounce.
func NewDetector(debounce time.Duration, tick func(context.Context) error) *Detector {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Detector{
		debounce: debounce,
		tick:     tick,
		signal:   make(chan struct{}, 1),
	}
}

// Notify records that the ledger may have changed.  It never blocks.
func (d *Detector) Notify() {
	select {
	case d.signal <- struct{}{}:
	default:
	}
}

// Start launches the run loop.  Calling Start on a running detector does
// nothing.
func (d *Detector) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})
	go d.run(ctx, d.done)
}

// Stop ends the run loop and waits for an in-flight tick to return.
func (d *Detector) Stop() {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.cancel, d.done = nil, nil
	d.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (d *Detector) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	timer := time.NewTimer(d.debounce)
	stopTimer(timer)
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			stopTimer(timer)
			return
		case <-d.signal:
			stopTimer(timer)
			timer.Reset(d.debounce)
			fire = timer.C
		case <-fire:
			fire = nil
			if err := d.tick(ctx); err != nil {
				log.Printf("presence: reconcile failed: %v", err)
			}
		}
	}
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
