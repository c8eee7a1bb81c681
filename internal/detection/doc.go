// Package detection finds commercial (CM) blocks in a broadcast recording from
// the silences detected in its audio track.
//
// Japanese TV commercials are produced in fixed lengths (15/30/45/60/75
// seconds, with 5 and 10 second fillers) and separated by short silences, so
// the spacing between consecutive silence midpoints inside a commercial break
// lands close to one of those lengths. The engine classifies every spacing,
// links silences into chains, merges and extends the chains across short-unit
// gaps, and keeps chains whose span and standard-unit count look like a real
// break.
//
// Key types:
//   - Interval: one detected silence in milliseconds
//   - GapLabel: classification of a midpoint spacing
//   - Chain: a provisional run of linked silences
//   - Block / Segment: accepted commercial breaks and their spots
//   - Result: blocks, the normalized silences, and the start offset
//
// Entry points:
//   - Detect: one-shot detection over an interval slice in any order
//   - Stream: incremental detection over chronologically ordered intervals
//
// The package is pure and deterministic: no I/O, no logging, no shared state.
package detection
