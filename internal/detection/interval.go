package detection

import (
	"errors"
	"fmt"
	"sort"
)

// ErrMalformedInterval marks a silence whose end does not follow its start.
var ErrMalformedInterval = errors.New("malformed silence interval")

// Interval is one detected silence, in milliseconds from the start of the recording.
type Interval struct {
	StartMs int64 `json:"start_ms" yaml:"start_ms"`
	EndMs   int64 `json:"end_ms" yaml:"end_ms"`
}

// Midpoint returns the centre of the silence, used as the CM boundary estimate.
func (iv Interval) Midpoint() int64 {
	return (iv.StartMs + iv.EndMs) / 2
}

// DurationMs returns the length of the silence.
func (iv Interval) DurationMs() int64 {
	return iv.EndMs - iv.StartMs
}

// Validate reports a MalformedIntervalError when the interval cannot be used.
func (iv Interval) Validate() error {
	if iv.StartMs < 0 || iv.EndMs <= iv.StartMs {
		return &MalformedIntervalError{Interval: iv}
	}
	return nil
}

// MalformedIntervalError describes a dropped interval.
type MalformedIntervalError struct {
	Interval Interval
}

func (e *MalformedIntervalError) Error() string {
	return fmt.Sprintf("%s: start=%dms end=%dms", ErrMalformedInterval, e.Interval.StartMs, e.Interval.EndMs)
}

func (e *MalformedIntervalError) Unwrap() error { return ErrMalformedInterval }

// Normalize orders raw intervals by start time, collapses identical duplicates,
// and drops malformed ranges. The dropped intervals are returned in arrival
// order so callers can log them. Intervals are never widened or invented.
func Normalize(raw []Interval) (valid []Interval, malformed []Interval) {
	valid = make([]Interval, 0, len(raw))
	for _, iv := range raw {
		if iv.Validate() != nil {
			malformed = append(malformed, iv)
			continue
		}
		valid = append(valid, iv)
	}
	sort.SliceStable(valid, func(i, j int) bool {
		if valid[i].StartMs != valid[j].StartMs {
			return valid[i].StartMs < valid[j].StartMs
		}
		return valid[i].EndMs < valid[j].EndMs
	})

	out := valid[:0]
	for i, iv := range valid {
		if i > 0 && iv == out[len(out)-1] {
			continue
		}
		out = append(out, iv)
	}
	return out, malformed
}
