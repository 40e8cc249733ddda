package presence

import (
	"context"

	"github.com/lumenbooth/firefly-booth/internal/model"
)

// Ledger answers which participants are currently released in a section.
type Ledger interface {
	ReleasedParticipants(ctx context.Context, sectionID uint64) ([]model.Participant, error)
}

// Engine caches the last released set per section and turns fresh ledger
// reads into add/remove deltas.  Participants are keyed by moment ID so
// two people sharing a display name stay distinct; names are only what
// goes on the wire.
//
// Engine is not safe for concurrent use.  The Broadcaster serializes every
// call.
type Engine struct {
	ledger Ledger
	cache  map[uint64][]model.Participant
}

// NewEngine returns an engine with an empty cache.
func NewEngine(ledger Ledger) *Engine {
	return &Engine{ledger: ledger, cache: make(map[uint64][]model.Participant)}
}

// InitialSnapshot reads the section once, replaces the cache and returns
// the names verbatim.  It never produces add or remove events.
func (e *Engine) InitialSnapshot(ctx context.Context, sectionID uint64) ([]string, error) {
	current, err := e.ledger.ReleasedParticipants(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	e.cache[sectionID] = current
	return names(current), nil
}

// Reconcile reads the section, diffs it against the cached set and
// replaces the cache.  A section without a cache entry diffs against the
// empty set.  On error the cache is left untouched so the next tick
// retries against the same baseline.  Both lists are empty when nothing
// changed.
func (e *Engine) Reconcile(ctx context.Context, sectionID uint64) (added, removed []string, err error) {
	current, err := e.ledger.ReleasedParticipants(ctx, sectionID)
	if err != nil {
		return nil, nil, err
	}
	added, removed = diff(e.cache[sectionID], current)
	e.cache[sectionID] = current
	return added, removed, nil
}

// Current returns the cached names of a section and whether the section
// is cached at all.
func (e *Engine) Current(sectionID uint64) ([]string, bool) {
	ps, ok := e.cache[sectionID]
	if !ok {
		return nil, false
	}
	return names(ps), true
}

// Retain drops cache entries for every section not in keep.
func (e *Engine) Retain(keep []uint64) {
	wanted := make(map[uint64]struct{}, len(keep))
	for _, id := range keep {
		wanted[id] = struct{}{}
	}
	for id := range e.cache {
		if _, ok := wanted[id]; !ok {
			delete(e.cache, id)
		}
	}
}

// diff keeps the order of its inputs: removed follows prev, added follows
// current.  A moment whose display name changed shows up in both lists.
func diff(prev, current []model.Participant) (added, removed []string) {
	before := make(map[uint64]string, len(prev))
	for _, p := range prev {
		before[p.MomentID] = p.Name
	}
	after := make(map[uint64]string, len(current))
	for _, p := range current {
		after[p.MomentID] = p.Name
	}

	added = []string{}
	removed = []string{}
	for _, p := range prev {
		if name, ok := after[p.MomentID]; !ok || name != p.Name {
			removed = append(removed, p.Name)
		}
	}
	for _, p := range current {
		if name, ok := before[p.MomentID]; !ok || name != p.Name {
			added = append(added, p.Name)
		}
	}
	return added, removed
}

func names(ps []model.Participant) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}
