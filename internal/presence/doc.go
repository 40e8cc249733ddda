// Package presence streams per-section firefly presence to live viewers.
//
// Ledger writes call Broadcaster.Notify.  The Detector debounces those
// notifications into reconciliation ticks; each tick re-reads the
// released participants of every watched section, diffs them against the
// cached set in the Engine, and the Registry fans the resulting add and
// remove events out to the subscribers of that section.  A Session owns
// one viewer's connection: it receives a sync snapshot first, then the
// deltas, plus periodic heartbeats.
package presence
