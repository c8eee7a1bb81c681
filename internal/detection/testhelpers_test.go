package detection

// silenceAt returns a short silence centred on mid.
func silenceAt(mid int64) Interval {
	half := int64(250)
	if mid < half {
		half = mid
	}
	return Interval{StartMs: mid - half, EndMs: mid + half + 1}
}

func silencesAt(mids ...int64) []Interval {
	out := make([]Interval, len(mids))
	for i, mid := range mids {
		out[i] = silenceAt(mid)
	}
	return out
}

func boundariesAt(mids ...int64) []boundary {
	out := make([]boundary, len(mids))
	for i, mid := range mids {
		out[i] = boundary{pos: i, midMs: mid, interval: silenceAt(mid)}
	}
	return out
}

func chainOf(bounds []boundary, from, to int) Chain {
	return Chain{members: append([]boundary(nil), bounds[from:to+1]...)}
}

func midpoints(c Chain) []int64 {
	out := make([]int64, 0, c.Len())
	for _, iv := range c.Intervals() {
		out = append(out, iv.Midpoint())
	}
	return out
}
