package detection

const (
	minBlockDurationMs int64 = 60_000
	maxBlockDurationMs int64 = 360_000
	minStandardUnits         = 2
)

// Segment is one spot inside a commercial block, midpoint to midpoint.
type Segment struct {
	StartMs     int64    `json:"start_ms" yaml:"start_ms"`
	EndMs       int64    `json:"end_ms" yaml:"end_ms"`
	DurationSec float64  `json:"duration_sec" yaml:"duration_sec"`
	Gap         GapLabel `json:"-" yaml:"-"`
}

// Block is an accepted chain: one detected commercial break.
type Block struct {
	StartMs       int64     `json:"start_ms" yaml:"start_ms"`
	EndMs         int64     `json:"end_ms" yaml:"end_ms"`
	DurationSec   float64   `json:"duration_sec" yaml:"duration_sec"`
	Segments      []Segment `json:"segments" yaml:"segments"`
	StandardUnits int       `json:"-" yaml:"-"`
}

// DurationMs returns the block span in milliseconds.
func (b Block) DurationMs() int64 {
	return b.EndMs - b.StartMs
}

// Accepted reports whether the chain qualifies as a commercial block: at
// least 60s, at most 360s, and two or more standard-unit gaps.
func (c Chain) Accepted() bool {
	duration := c.DurationMs()
	return duration >= minBlockDurationMs &&
		c.StandardUnitCount() >= minStandardUnits &&
		duration <= maxBlockDurationMs
}

func filterChains(chains []Chain) []Chain {
	accepted := make([]Chain, 0, len(chains))
	for _, c := range chains {
		if c.Accepted() {
			accepted = append(accepted, c)
		}
	}
	return accepted
}

func buildBlock(c Chain) Block {
	gaps := c.Gaps()
	segments := make([]Segment, 0, len(gaps))
	for i, gap := range gaps {
		start := c.members[i].midMs
		end := c.members[i+1].midMs
		segments = append(segments, Segment{
			StartMs:     start,
			EndMs:       end,
			DurationSec: msToSeconds(end - start),
			Gap:         gap,
		})
	}
	return Block{
		StartMs:       c.StartMs(),
		EndMs:         c.EndMs(),
		DurationSec:   msToSeconds(c.DurationMs()),
		Segments:      segments,
		StandardUnits: c.StandardUnitCount(),
	}
}

func msToSeconds(ms int64) float64 {
	return float64(ms) / 1000
}
