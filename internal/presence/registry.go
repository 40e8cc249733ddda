package presence

import (
	"log"
	"sort"
	"sync"
)

// Registry maps sections to their live subscribers and dispatches events
// to them.  The lock only guards the map; writes to subscribers happen on
// a copied slice so one stalled viewer never holds up Register.
type Registry struct {
	mu       sync.RWMutex
	sections map[uint64]map[*Subscriber]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sections: make(map[uint64]map[*Subscriber]struct{})}
}

// Register adds sub to its section and reports whether it is the
// section's first subscriber.  Registering the same subscriber twice is a
// caller error.
func (r *Registry) Register(sub *Subscriber) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	subs, ok := r.sections[sub.sectionID]
	if !ok {
		subs = make(map[*Subscriber]struct{})
		r.sections[sub.sectionID] = subs
	}
	subs[sub] = struct{}{}
	return len(subs) == 1
}

// Unregister removes sub.  It is a no-op when sub is already gone, so the
// session's close path and the dispatcher's eviction can both call it.
func (r *Registry) Unregister(sub *Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	subs, ok := r.sections[sub.sectionID]
	if !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(r.sections, sub.sectionID)
	}
}

// Count returns the number of subscribers watching a section.
func (r *Registry) Count(sectionID uint64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sections[sectionID])
}

// Sections returns the watched section IDs in ascending order.
func (r *Registry) Sections() []uint64 {
	r.mu.RLock()
	ids := make([]uint64, 0, len(r.sections))
	for id := range r.sections {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *Registry) subscribers(sectionID uint64) []*Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()
	subs := r.sections[sectionID]
	out := make([]*Subscriber, 0, len(subs))
	for sub := range subs {
		out = append(out, sub)
	}
	return out
}

// Dispatch sends one add event per added name and one remove event per
// removed name to every subscriber of the section, in that order, queued
// as a single batch per subscriber.  A subscriber that cannot take the
// batch is unregistered and closed on the spot; the remaining subscribers
// still get every event.  It returns the
// number of evicted subscribers.
func (r *Registry) Dispatch(sectionID uint64, added, removed []string) int {
	if len(added) == 0 && len(removed) == 0 {
		return 0
	}
	events := make([]Event, 0, len(added)+len(removed))
	for _, name := range added {
		events = append(events, Event{Kind: EventAdd, Name: name})
	}
	for _, name := range removed {
		events = append(events, Event{Kind: EventRemove, Name: name})
	}

	evicted := 0
	for _, sub := range r.subscribers(sectionID) {
		if res := sub.Send(events...); res != WriteOK {
			log.Printf("presence: dropping subscriber of section %d: %s", sectionID, res)
			r.Unregister(sub)
			sub.close()
			evicted++
		}
	}
	return evicted
}
