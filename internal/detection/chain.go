package detection

// boundary is one silence placed on the timeline by its midpoint. pos is the
// boundary's index in the midpoint-ordered list it belongs to.
type boundary struct {
	pos      int
	midMs    int64
	interval Interval
}

// Chain is a provisional run of silences linked by standard or short-unit gaps.
type Chain struct {
	members []boundary
}

// Len returns the number of member silences.
func (c Chain) Len() int { return len(c.members) }

// Intervals returns the member silences in order.
func (c Chain) Intervals() []Interval {
	out := make([]Interval, len(c.members))
	for i, m := range c.members {
		out[i] = m.interval
	}
	return out
}

// Gaps classifies every spacing between consecutive members.
func (c Chain) Gaps() []GapLabel {
	if len(c.members) < 2 {
		return nil
	}
	gaps := make([]GapLabel, 0, len(c.members)-1)
	for i := 1; i < len(c.members); i++ {
		gaps = append(gaps, ClassifyGap(c.members[i].midMs-c.members[i-1].midMs))
	}
	return gaps
}

// StandardUnitCount counts member gaps classified as standard units.
func (c Chain) StandardUnitCount() int {
	count := 0
	for _, gap := range c.Gaps() {
		if gap.Kind == StandardUnit {
			count++
		}
	}
	return count
}

// StartMs returns the first member's midpoint.
func (c Chain) StartMs() int64 {
	if len(c.members) == 0 {
		return 0
	}
	return c.members[0].midMs
}

// EndMs returns the last member's midpoint.
func (c Chain) EndMs() int64 {
	if len(c.members) == 0 {
		return 0
	}
	return c.members[len(c.members)-1].midMs
}

// DurationMs is the span from the first to the last member midpoint.
func (c Chain) DurationMs() int64 {
	return c.EndMs() - c.StartMs()
}

func (c Chain) first() boundary { return c.members[0] }

func (c Chain) last() boundary { return c.members[len(c.members)-1] }

type builderState int

const (
	stateIdle builderState = iota
	stateOpen
)

// chainBuilder groups boundaries into candidate chains in a single pass. Only
// the open chain is buffered; closed chains with at least two members are
// emitted in order.
type chainBuilder struct {
	state  builderState
	open   []boundary
	chains []Chain
}

func (b *chainBuilder) step(next boundary) {
	switch b.state {
	case stateIdle:
		b.open = []boundary{next}
		b.state = stateOpen
	case stateOpen:
		prev := b.open[len(b.open)-1]
		if ClassifyGap(next.midMs - prev.midMs).Linked() {
			b.open = append(b.open, next)
			return
		}
		b.close()
		b.step(next)
	}
}

// close ends the open chain. A lone silence never forms a chain.
func (b *chainBuilder) close() {
	if b.state == stateOpen && len(b.open) >= 2 {
		b.chains = append(b.chains, Chain{members: b.open})
	}
	b.open = nil
	b.state = stateIdle
}

func (b *chainBuilder) finish() []Chain {
	b.close()
	chains := b.chains
	b.chains = nil
	return chains
}

// buildChains runs the builder over a complete midpoint-ordered boundary list.
func buildChains(bounds []boundary) []Chain {
	var b chainBuilder
	for _, bd := range bounds {
		b.step(bd)
	}
	return b.finish()
}
