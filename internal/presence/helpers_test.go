package presence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lumenbooth/firefly-booth/internal/model"
)

const waitFor = 2 * time.Second

type fakeLedger struct {
	mu       sync.Mutex
	released map[uint64][]model.Participant
	failing  map[uint64]error
	calls    int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		released: make(map[uint64][]model.Participant),
		failing:  make(map[uint64]error),
	}
}

func (f *fakeLedger) ReleasedParticipants(_ context.Context, sectionID uint64) ([]model.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.failing[sectionID]; err != nil {
		return nil, err
	}
	out := make([]model.Participant, len(f.released[sectionID]))
	copy(out, f.released[sectionID])
	return out, nil
}

// release is idempotent like the real ledger.
func (f *fakeLedger) release(sectionID, momentID uint64, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.released[sectionID] {
		if p.MomentID == momentID {
			return
		}
	}
	f.released[sectionID] = append(f.released[sectionID], model.Participant{MomentID: momentID, Name: name})
}

func (f *fakeLedger) rename(sectionID, momentID uint64, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.released[sectionID] {
		if p.MomentID == momentID {
			f.released[sectionID][i].Name = name
		}
	}
}

func (f *fakeLedger) dropSection(sectionID uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.released, sectionID)
}

func (f *fakeLedger) fail(sectionID uint64, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failing, sectionID)
		return
	}
	f.failing[sectionID] = err
}

var errLedgerDown = errors.New("ledger down")

// unread holds the tail of batches a test has only partly consumed.
var unread = struct {
	sync.Mutex
	events map[*Subscriber][]Event
}{events: make(map[*Subscriber][]Event)}

func nextEvent(t *testing.T, sub *Subscriber) Event {
	t.Helper()
	unread.Lock()
	if q := unread.events[sub]; len(q) > 0 {
		unread.events[sub] = q[1:]
		unread.Unlock()
		return q[0]
	}
	unread.Unlock()

	select {
	case batch := <-sub.Events():
		if len(batch) == 0 {
			t.Fatal("received empty batch")
		}
		unread.Lock()
		unread.events[sub] = append(unread.events[sub], batch[1:]...)
		unread.Unlock()
		return batch[0]
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func expectNoEvent(t *testing.T, sub *Subscriber, wait time.Duration) {
	t.Helper()
	unread.Lock()
	q := unread.events[sub]
	unread.Unlock()
	if len(q) > 0 {
		t.Fatalf("unexpected event %+v", q[0])
	}
	select {
	case batch := <-sub.Events():
		t.Fatalf("unexpected events %+v", batch)
	case <-time.After(wait):
	}
}

func expectEvent(t *testing.T, sub *Subscriber, kind EventKind, name string) {
	t.Helper()
	ev := nextEvent(t, sub)
	if ev.Kind != kind || ev.Name != name {
		t.Fatalf("event = %s %q, want %s %q", ev.Kind, ev.Name, kind, name)
	}
}

func expectSync(t *testing.T, sub *Subscriber, want ...string) {
	t.Helper()
	ev := nextEvent(t, sub)
	if ev.Kind != EventSync {
		t.Fatalf("event kind = %s, want sync", ev.Kind)
	}
	if !equalNames(ev.Names, want) {
		t.Fatalf("sync names = %q, want %q", ev.Names, want)
	}
}

func equalNames(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(waitFor)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met: %s", msg)
}
