package detection

import (
	"errors"
	"math"
	"math/rand/v2"
	"reflect"
	"strings"
	"testing"
)

func TestDetectFourStandardUnits(t *testing.T) {
	result := Detect(silencesAt(0, 15_000, 30_000, 45_000, 60_000))
	if len(result.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(result.Blocks))
	}
	block := result.Blocks[0]
	if block.StartMs != 0 || block.EndMs != 60_000 || block.DurationSec != 60.0 {
		t.Fatalf("unexpected block %+v", block)
	}
	if block.StandardUnits != 4 {
		t.Fatalf("expected 4 standard units, got %d", block.StandardUnits)
	}
	if len(block.Segments) != 4 {
		t.Fatalf("expected 4 segments, got %d", len(block.Segments))
	}
	for i, seg := range block.Segments {
		if seg.StartMs != int64(i)*15_000 || seg.EndMs != int64(i+1)*15_000 || seg.DurationSec != 15.0 {
			t.Fatalf("unexpected segment %d: %+v", i, seg)
		}
		if seg.Gap != (GapLabel{Kind: StandardUnit, Unit: 1}) {
			t.Fatalf("unexpected segment %d gap: %v", i, seg.Gap)
		}
	}
}

func TestDetectRejectsShortBlock(t *testing.T) {
	result := Detect(silencesAt(10_000, 25_000, 55_000))
	if result.Candidates != 1 {
		t.Fatalf("expected the chain to reach the filter, got %d candidates", result.Candidates)
	}
	if len(result.Blocks) != 0 {
		t.Fatalf("expected 45s chain to be rejected, got %+v", result.Blocks)
	}
}

func TestDetectMergesChainsSplitByStraySilence(t *testing.T) {
	// A stray silence 7s into a 10s filler spot splits the break in two;
	// neither half passes the filter alone.
	mids := []int64{100_000, 115_000, 130_000, 145_000, 152_000, 155_000, 170_000, 185_000}
	result := Detect(silencesAt(mids...))
	if len(result.Blocks) != 1 {
		t.Fatalf("expected merged block, got %d blocks", len(result.Blocks))
	}
	block := result.Blocks[0]
	if block.StartMs != 100_000 || block.EndMs != 185_000 {
		t.Fatalf("unexpected block span %d-%d", block.StartMs, block.EndMs)
	}
	if len(block.Segments) != 6 {
		t.Fatalf("expected 6 segments, got %d", len(block.Segments))
	}
	filler := block.Segments[3]
	if filler.StartMs != 145_000 || filler.EndMs != 155_000 || filler.Gap.Kind != ShortUnit {
		t.Fatalf("unexpected filler segment %+v", filler)
	}
	if block.StandardUnits != 5 {
		t.Fatalf("expected 5 standard units, got %d", block.StandardUnits)
	}
}

func TestDetectStartOffset(t *testing.T) {
	result := Detect([]Interval{{StartMs: 3_000, EndMs: 3_400}, {StartMs: 90_000, EndMs: 90_600}})
	if result.StartOffsetMs != 3_200 {
		t.Fatalf("expected start offset 3200, got %d", result.StartOffsetMs)
	}
	if len(result.Blocks) != 0 {
		t.Fatalf("expected no blocks, got %d", len(result.Blocks))
	}
}

func TestDetectEmptyInput(t *testing.T) {
	result := Detect(nil)
	if result.StartOffsetMs != 0 {
		t.Fatalf("expected zero offset, got %d", result.StartOffsetMs)
	}
	if result.Blocks == nil || len(result.Blocks) != 0 {
		t.Fatalf("expected empty non-nil blocks, got %#v", result.Blocks)
	}
	if result.SilenceSegments == nil || len(result.SilenceSegments) != 0 {
		t.Fatalf("expected empty non-nil silences, got %#v", result.SilenceSegments)
	}
}

func TestDetectRejectsOverlongBlock(t *testing.T) {
	mids := make([]int64, 0, 26)
	for i := int64(0); i <= 25; i++ {
		mids = append(mids, 30_000+i*15_000)
	}
	if result := Detect(silencesAt(mids...)); len(result.Blocks) != 0 {
		t.Fatalf("expected 375s chain to be rejected, got %d blocks", len(result.Blocks))
	}
}

func TestDetectRequiresStandardUnits(t *testing.T) {
	mids := make([]int64, 0, 10)
	for i := int64(0); i < 10; i++ {
		mids = append(mids, 5_000+i*10_000)
	}
	if result := Detect(silencesAt(mids...)); len(result.Blocks) != 0 {
		t.Fatalf("expected short-unit-only chain to be rejected, got %d blocks", len(result.Blocks))
	}
}

func TestDetectBreakSplitsBlocks(t *testing.T) {
	mids := []int64{
		0, 15_000, 30_000, 60_000, 75_000,
		170_000, 185_000, 200_000, 230_000,
	}
	result := Detect(silencesAt(mids...))
	if len(result.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(result.Blocks))
	}
	if result.Blocks[0].EndMs != 75_000 || result.Blocks[1].StartMs != 170_000 {
		t.Fatalf("unexpected blocks %+v", result.Blocks)
	}
}

func TestDetectToleratesOverlaps(t *testing.T) {
	raw := append(silencesAt(0, 15_000, 30_000, 45_000, 60_000), Interval{StartMs: 0, EndMs: 120_000})
	result := Detect(raw)
	checkInvariants(t, result)
	if result.StartOffsetMs != 0 {
		t.Fatalf("expected offset from first interval by start, got %d", result.StartOffsetMs)
	}
}

func TestDetectInvariantsAndIdempotence(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	spacings := []int64{15_000, 15_000, 15_000, 30_000, 30_000, 45_000, 60_000, 5_000, 10_000, 7_000, 12_000, 95_000, 240_000}

	for run := 0; run < 50; run++ {
		var raw []Interval
		mid := int64(rng.IntN(20_000) + 1_000)
		for i := 0; i < 200; i++ {
			width := int64(rng.IntN(1_400) + 100)
			raw = append(raw, Interval{StartMs: max(mid-width/2, 0), EndMs: mid + width/2 + 1})
			switch rng.IntN(20) {
			case 0:
				raw = append(raw, raw[len(raw)-1])
			case 1:
				raw = append(raw, Interval{StartMs: mid, EndMs: mid})
			}
			jitter := int64(rng.IntN(1_300)) - 650
			mid += spacings[rng.IntN(len(spacings))] + jitter
		}
		rng.Shuffle(len(raw), func(i, j int) { raw[i], raw[j] = raw[j], raw[i] })

		result := Detect(raw)
		checkInvariants(t, result)

		again := Detect(result.SilenceSegments)
		if !reflect.DeepEqual(again.Blocks, result.Blocks) {
			t.Fatalf("run %d: detection on echoed silences differs", run)
		}
		if again.StartOffsetMs != result.StartOffsetMs {
			t.Fatalf("run %d: offset differs on rerun", run)
		}
	}
}

func checkInvariants(t *testing.T, result Result) {
	t.Helper()
	if result.StartOffsetMs < 0 {
		t.Fatalf("negative start offset %d", result.StartOffsetMs)
	}
	for i, block := range result.Blocks {
		span := block.EndMs - block.StartMs
		if int64(math.Round(block.DurationSec*1000)) != span {
			t.Fatalf("block %d: duration %.3fs does not match span %dms", i, block.DurationSec, span)
		}
		if span < minBlockDurationMs || span > maxBlockDurationMs {
			t.Fatalf("block %d: span %dms outside limits", i, span)
		}
		standard := 0
		for j, seg := range block.Segments {
			if seg.Gap.Kind == StandardUnit {
				standard++
			}
			if j == 0 && seg.StartMs != block.StartMs {
				t.Fatalf("block %d: first segment starts at %d, block at %d", i, seg.StartMs, block.StartMs)
			}
			if j > 0 && seg.StartMs != block.Segments[j-1].EndMs {
				t.Fatalf("block %d: segment %d is not contiguous", i, j)
			}
		}
		if standard != block.StandardUnits || standard < minStandardUnits {
			t.Fatalf("block %d: %d standard segments, %d recorded", i, standard, block.StandardUnits)
		}
		if n := len(block.Segments); n > 0 && block.Segments[n-1].EndMs != block.EndMs {
			t.Fatalf("block %d: last segment does not end the block", i)
		}
		if i > 0 && result.Blocks[i-1].EndMs > block.StartMs {
			t.Fatalf("blocks %d and %d overlap", i-1, i)
		}
	}
}

func TestStreamMatchesDetect(t *testing.T) {
	mids := []int64{3_200, 100_000, 115_000, 130_000, 145_000, 152_000, 155_000, 170_000, 185_000, 400_000}
	silences := silencesAt(mids...)

	stream := NewStream()
	for _, iv := range silences {
		if err := stream.Push(iv); err != nil {
			t.Fatalf("push %v: %v", iv, err)
		}
	}
	if err := stream.Push(silences[len(silences)-1]); err != nil {
		t.Fatalf("expected duplicate to be ignored, got %v", err)
	}
	if stream.Len() != len(silences) {
		t.Fatalf("expected %d silences, got %d", len(silences), stream.Len())
	}

	got := stream.Finish()
	want := Detect(silences)
	if !reflect.DeepEqual(got.Blocks, want.Blocks) {
		t.Fatalf("stream blocks differ:\n got %+v\nwant %+v", got.Blocks, want.Blocks)
	}
	if got.StartOffsetMs != want.StartOffsetMs || got.StartOffsetMs != 3_200 {
		t.Fatalf("unexpected offset %d", got.StartOffsetMs)
	}
}

func TestStreamMatchesDetectOnOverlaps(t *testing.T) {
	tail := silencesAt(16_500, 31_500, 46_500, 61_500, 76_500)
	tests := []struct {
		name      string
		intervals []Interval
	}{
		{
			name:      "long silence swallowing a short one",
			intervals: append([]Interval{{StartMs: 0, EndMs: 10_000}, {StartMs: 1_000, EndMs: 2_000}}, tail...),
		},
		{
			name:      "same start with shrinking end",
			intervals: append([]Interval{{StartMs: 0, EndMs: 2_000}, {StartMs: 0, EndMs: 1_000}, {StartMs: 0, EndMs: 2_000}}, tail...),
		},
		{
			name:      "overlap after a block",
			intervals: append(append([]Interval{}, tail...), Interval{StartMs: 80_000, EndMs: 100_000}, Interval{StartMs: 85_000, EndMs: 86_000}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stream := NewStream()
			for _, iv := range tt.intervals {
				if err := stream.Push(iv); err != nil {
					t.Fatalf("push %v: %v", iv, err)
				}
			}
			got := stream.Finish()
			want := Detect(tt.intervals)
			if len(want.Blocks) == 0 {
				t.Fatal("expected the input to contain a block")
			}
			if !reflect.DeepEqual(got.Blocks, want.Blocks) {
				t.Fatalf("stream blocks differ:\n got %+v\nwant %+v", got.Blocks, want.Blocks)
			}
			if !reflect.DeepEqual(got.SilenceSegments, want.SilenceSegments) {
				t.Fatalf("stream silences differ:\n got %v\nwant %v", got.SilenceSegments, want.SilenceSegments)
			}
			if got.StartOffsetMs != want.StartOffsetMs {
				t.Fatalf("offset %d, want %d", got.StartOffsetMs, want.StartOffsetMs)
			}
		})
	}
}

func TestStreamRejectsOutOfOrderAndMalformed(t *testing.T) {
	stream := NewStream()
	if err := stream.Push(silenceAt(20_000)); err != nil {
		t.Fatalf("push: %v", err)
	}
	err := stream.Push(silenceAt(10_000))
	if !errors.Is(err, ErrOutOfOrder) {
		t.Fatalf("expected ErrOutOfOrder, got %v", err)
	}
	if !strings.Contains(err.Error(), "start=9750ms before previous start=19750ms") {
		t.Fatalf("expected both starts in message, got %v", err)
	}
	if err := stream.Push(Interval{StartMs: 30_000, EndMs: 29_000}); !errors.Is(err, ErrMalformedInterval) {
		t.Fatalf("expected ErrMalformedInterval, got %v", err)
	}
	result := stream.Finish()
	if len(result.Malformed) != 1 {
		t.Fatalf("expected malformed interval recorded, got %v", result.Malformed)
	}
	if len(result.SilenceSegments) != 1 {
		t.Fatalf("expected one accepted silence, got %v", result.SilenceSegments)
	}
	if err := stream.Push(silenceAt(40_000)); err == nil {
		t.Fatal("expected push after finish to fail")
	}
}
