package detection

// postProcess runs the merge pass and then the extension pass. The order is
// fixed: extension must see merged chains so a short-unit neighbour is only
// pulled in at the outer edges of a unified block.
func postProcess(bounds []boundary, chains []Chain) []Chain {
	return extendChains(bounds, mergeChains(chains))
}

// mergeChains joins adjacent chains whose facing edges are one short unit
// apart. Stray silences lying between the two chains are not absorbed. A
// merged chain keeps comparing against the following chain, so one pass
// reaches a fixed point.
func mergeChains(chains []Chain) []Chain {
	if len(chains) < 2 {
		return chains
	}
	merged := make([]Chain, 0, len(chains))
	current := chains[0]
	for _, next := range chains[1:] {
		gap := ClassifyGap(next.first().midMs - current.last().midMs)
		if gap.Kind == ShortUnit {
			members := make([]boundary, 0, current.Len()+next.Len())
			members = append(members, current.members...)
			members = append(members, next.members...)
			current = Chain{members: members}
			continue
		}
		merged = append(merged, current)
		current = next
	}
	return append(merged, current)
}

// extendChains pulls the silence immediately before and after each chain into
// it while the spacing to the chain edge is a short unit. Silences already
// owned by a chain are never taken.
func extendChains(bounds []boundary, chains []Chain) []Chain {
	if len(chains) == 0 {
		return chains
	}
	claimed := make([]bool, len(bounds))
	for _, c := range chains {
		for _, m := range c.members {
			claimed[m.pos] = true
		}
	}

	out := make([]Chain, len(chains))
	for i, c := range chains {
		members := append([]boundary(nil), c.members...)

		for {
			edge := members[0]
			p := edge.pos - 1
			if p < 0 || claimed[p] || ClassifyGap(edge.midMs-bounds[p].midMs).Kind != ShortUnit {
				break
			}
			claimed[p] = true
			members = append([]boundary{bounds[p]}, members...)
		}

		for {
			edge := members[len(members)-1]
			p := edge.pos + 1
			if p >= len(bounds) || claimed[p] || ClassifyGap(bounds[p].midMs-edge.midMs).Kind != ShortUnit {
				break
			}
			claimed[p] = true
			members = append(members, bounds[p])
		}

		out[i] = Chain{members: members}
	}
	return out
}
