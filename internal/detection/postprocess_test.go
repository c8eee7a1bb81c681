package detection

import (
	"reflect"
	"testing"
)

func TestBuildChainsSplitsOnBreaks(t *testing.T) {
	bounds := boundariesAt(
		0, 15_000, 30_000, // chain one
		47_000,           // lone: 17s after previous
		140_000, 155_000, // chain two: 93s gap before it
		190_000, // lone: 35s after previous
	)
	chains := buildChains(bounds)
	if len(chains) != 2 {
		t.Fatalf("expected 2 chains, got %d", len(chains))
	}
	if got := midpoints(chains[0]); !reflect.DeepEqual(got, []int64{0, 15_000, 30_000}) {
		t.Fatalf("unexpected first chain %v", got)
	}
	if got := midpoints(chains[1]); !reflect.DeepEqual(got, []int64{140_000, 155_000}) {
		t.Fatalf("unexpected second chain %v", got)
	}
}

func TestBuildChainsLinksShortUnits(t *testing.T) {
	chains := buildChains(boundariesAt(0, 5_000, 15_000, 45_000))
	if len(chains) != 1 || chains[0].Len() != 4 {
		t.Fatalf("expected one chain of 4, got %d chains", len(chains))
	}
	if chains[0].StandardUnitCount() != 1 {
		t.Fatalf("expected 1 standard unit (30s gap) got %d", chains[0].StandardUnitCount())
	}
}

func TestBuildChainsIgnoresLoneSilences(t *testing.T) {
	if chains := buildChains(boundariesAt(1_000)); len(chains) != 0 {
		t.Fatalf("expected no chains for a single silence, got %d", len(chains))
	}
	if chains := buildChains(nil); len(chains) != 0 {
		t.Fatalf("expected no chains for empty input, got %d", len(chains))
	}
}

func TestMergeChainsAcrossStraySilence(t *testing.T) {
	bounds := boundariesAt(0, 15_000, 30_000, 37_000, 40_000, 55_000, 65_000, 80_000, 83_000, 90_000, 105_000)
	chains := buildChains(bounds)
	if len(chains) != 3 {
		t.Fatalf("expected 3 candidate chains, got %d", len(chains))
	}
	merged := mergeChains(chains)
	if len(merged) != 1 {
		t.Fatalf("expected chains to merge into one, got %d", len(merged))
	}
	want := []int64{0, 15_000, 30_000, 40_000, 55_000, 65_000, 80_000, 90_000, 105_000}
	if got := midpoints(merged[0]); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected merged chain %v", got)
	}
}

func TestMergeChainsKeepsBreaks(t *testing.T) {
	bounds := boundariesAt(0, 15_000, 27_000, 42_000)
	chains := []Chain{chainOf(bounds, 0, 1), chainOf(bounds, 2, 3)}
	if merged := mergeChains(chains); len(merged) != 2 {
		t.Fatalf("expected 12s gap to keep chains apart, got %d chains", len(merged))
	}
}

func TestExtendChainsAbsorbsShortNeighbours(t *testing.T) {
	bounds := boundariesAt(2_000, 10_000, 20_000, 35_000, 50_000, 65_000, 80_000, 85_000, 95_000)
	chains := extendChains(bounds, []Chain{chainOf(bounds, 2, 6)})
	want := []int64{10_000, 20_000, 35_000, 50_000, 65_000, 80_000, 85_000, 95_000}
	if got := midpoints(chains[0]); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected extended chain %v", got)
	}
}

func TestExtendChainsDoesNotStealMembers(t *testing.T) {
	bounds := boundariesAt(0, 15_000, 30_000, 40_000, 55_000)
	first := chainOf(bounds, 0, 2)
	second := chainOf(bounds, 3, 4)
	chains := extendChains(bounds, []Chain{first, second})
	if chains[0].Len() != 3 || chains[1].Len() != 2 {
		t.Fatalf("expected chains unchanged, got lengths %d and %d", chains[0].Len(), chains[1].Len())
	}
}

func TestPostProcessMergesBeforeExtending(t *testing.T) {
	bounds := boundariesAt(0, 10_000, 25_000, 40_000, 44_000, 45_000, 60_000, 75_000, 85_000)
	candidates := []Chain{chainOf(bounds, 1, 3), chainOf(bounds, 5, 7)}
	chains := postProcess(bounds, candidates)
	if len(chains) != 1 {
		t.Fatalf("expected one chain, got %d", len(chains))
	}
	want := []int64{0, 10_000, 25_000, 40_000, 45_000, 60_000, 75_000, 85_000}
	if got := midpoints(chains[0]); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected chain %v", got)
	}
}
