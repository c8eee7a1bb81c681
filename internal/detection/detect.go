package detection

import (
	"errors"
	"fmt"
	"sort"
)

// ErrOutOfOrder is returned by Stream.Push when an interval starts before
// the one accepted last.
var ErrOutOfOrder = errors.New("silence interval out of chronological order")

// Result is the outcome of one detection run.
type Result struct {
	Blocks          []Block    `json:"cm_blocks" yaml:"cm_blocks"`
	SilenceSegments []Interval `json:"silence_segments" yaml:"silence_segments"`
	StartOffsetMs   int64      `json:"start_offset_ms" yaml:"start_offset_ms"`

	// Malformed lists the dropped input intervals, in arrival order.
	Malformed []Interval `json:"-" yaml:"-"`
	// Candidates is the number of chains that reached the block filter.
	Candidates int `json:"-" yaml:"-"`
}

// Detect finds commercial blocks in raw silence intervals given in any order.
// It never fails: malformed intervals are dropped and reported in
// Result.Malformed, and empty input yields an empty result.
func Detect(raw []Interval) Result {
	silences, malformed := Normalize(raw)

	bounds := make([]boundary, len(silences))
	for i, iv := range silences {
		bounds[i] = boundary{midMs: iv.Midpoint(), interval: iv}
	}
	// Overlapping input can reorder midpoints; midpoint order wins.
	sort.SliceStable(bounds, func(i, j int) bool { return bounds[i].midMs < bounds[j].midMs })
	for i := range bounds {
		bounds[i].pos = i
	}

	result := assemble(bounds, buildChains(bounds), silences)
	result.Malformed = malformed
	return result
}

func assemble(bounds []boundary, candidates []Chain, silences []Interval) Result {
	chains := postProcess(bounds, candidates)
	accepted := filterChains(chains)

	blocks := make([]Block, 0, len(accepted))
	for _, c := range accepted {
		blocks = append(blocks, buildBlock(c))
	}
	if silences == nil {
		silences = []Interval{}
	}
	return Result{
		Blocks:          blocks,
		SilenceSegments: silences,
		StartOffsetMs:   estimateStartOffset(silences),
		Candidates:      len(chains),
	}
}

// estimateStartOffset returns the midpoint of the first silence, where the
// programme is assumed to begin.
func estimateStartOffset(silences []Interval) int64 {
	if len(silences) == 0 {
		return 0
	}
	return max(silences[0].Midpoint(), 0)
}

// Stream detects blocks incrementally from intervals delivered in
// chronological order, for example while ffmpeg is still reporting. Only the
// open chain is pending between pushes; closed chains are kept until Finish
// runs the merge, extension and filter passes. A Stream is not safe for
// concurrent use.
type Stream struct {
	builder   chainBuilder
	bounds    []boundary
	silences  []Interval
	malformed []Interval
	finished  bool
	// reordered is set once an overlap puts arrival order out of midpoint
	// order; Finish then re-sorts instead of using the incremental chains.
	reordered bool
}

// NewStream returns an empty Stream.
func NewStream() *Stream {
	return &Stream{}
}

// Push adds the next silence. Malformed intervals are dropped and reported
// with an error matching ErrMalformedInterval; the stream stays usable.
// Identical repeats of the previous interval are ignored. Only a start that
// goes backwards is rejected: overlapping silences whose midpoints arrive out
// of order are accepted and end up in midpoint order, as with Detect.
func (s *Stream) Push(iv Interval) error {
	if s.finished {
		return errors.New("detection stream already finished")
	}
	if err := iv.Validate(); err != nil {
		s.malformed = append(s.malformed, iv)
		return err
	}
	if n := len(s.silences); n > 0 {
		prev := s.silences[n-1]
		if iv == prev {
			return nil
		}
		if iv.StartMs < prev.StartMs {
			return fmt.Errorf("%w: start=%dms before previous start=%dms", ErrOutOfOrder, iv.StartMs, prev.StartMs)
		}
		if iv.Midpoint() < prev.Midpoint() || (iv.StartMs == prev.StartMs && iv.EndMs < prev.EndMs) {
			s.reordered = true
		}
	}
	s.silences = append(s.silences, iv)
	if s.reordered {
		return nil
	}
	bd := boundary{pos: len(s.bounds), midMs: iv.Midpoint(), interval: iv}
	s.bounds = append(s.bounds, bd)
	s.builder.step(bd)
	return nil
}

// Len returns the number of accepted silences so far.
func (s *Stream) Len() int { return len(s.silences) }

// Finish closes the open chain and returns the detection result. Further
// pushes fail.
func (s *Stream) Finish() Result {
	s.finished = true
	var result Result
	if s.reordered {
		result = Detect(s.silences)
	} else {
		result = assemble(s.bounds, s.builder.finish(), s.silences)
	}
	result.Malformed = s.malformed
	return result
}
