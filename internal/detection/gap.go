package detection

import "fmt"

// GapKind is the coarse class of a spacing between two silence midpoints.
type GapKind int

const (
	// Break separates two chains.
	Break GapKind = iota
	// ShortUnit is a 5 or 10 second spot. It links intervals but never counts
	// towards a block's standard units.
	ShortUnit
	// StandardUnit is a 15·n second spot for n in 1..5.
	StandardUnit
)

func (k GapKind) String() string {
	switch k {
	case ShortUnit:
		return "short"
	case StandardUnit:
		return "standard"
	default:
		return "break"
	}
}

const (
	toleranceMs      int64 = 500
	standardStepMs   int64 = 15_000
	maxStandardUnits       = 5
	breakThresholdMs int64 = 90_000
)

var shortUnitSeconds = [...]int{5, 10}

// GapLabel classifies one midpoint spacing. Unit is the multiple n for
// standard units (15·n seconds) and the length in seconds for short units.
type GapLabel struct {
	Kind GapKind
	Unit int
}

// Linked reports whether the gap keeps two intervals in the same chain.
func (l GapLabel) Linked() bool {
	return l.Kind == StandardUnit || l.Kind == ShortUnit
}

// Seconds returns the nominal spot length the gap matched, or 0 for a break.
func (l GapLabel) Seconds() int {
	switch l.Kind {
	case StandardUnit:
		return l.Unit * int(standardStepMs/1000)
	case ShortUnit:
		return l.Unit
	default:
		return 0
	}
}

func (l GapLabel) String() string {
	if l.Kind == Break {
		return "break"
	}
	return fmt.Sprintf("%s %ds", l.Kind, l.Seconds())
}

type unitWindow struct {
	label    GapLabel
	centerMs int64
}

// unitWindows lists every linked gap window in match priority order: standard
// units by ascending n, then short units.
func unitWindows() []unitWindow {
	windows := make([]unitWindow, 0, maxStandardUnits+len(shortUnitSeconds))
	for n := 1; n <= maxStandardUnits; n++ {
		windows = append(windows, unitWindow{
			label:    GapLabel{Kind: StandardUnit, Unit: n},
			centerMs: int64(n) * standardStepMs,
		})
	}
	for _, sec := range shortUnitSeconds {
		windows = append(windows, unitWindow{
			label:    GapLabel{Kind: ShortUnit, Unit: sec},
			centerMs: int64(sec) * 1000,
		})
	}
	return windows
}

var windows = unitWindows()

// ClassifyGap labels the spacing between two consecutive silence midpoints.
// Each window is centre ±0.5s inclusive; the first matching window wins.
// Spacings of 90s or more, and non-positive spacings, are always breaks.
func ClassifyGap(spacingMs int64) GapLabel {
	if spacingMs <= 0 || spacingMs >= breakThresholdMs {
		return GapLabel{Kind: Break}
	}
	for _, w := range windows {
		if absInt64(spacingMs-w.centerMs) <= toleranceMs {
			return w.label
		}
	}
	return GapLabel{Kind: Break}
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
