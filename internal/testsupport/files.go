package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cmdetect/internal/detection"
)

// SilenceLog renders intervals the way ffmpeg's silencedetect filter logs
// them, interleaved with unrelated stderr noise.
func SilenceLog(intervals ...detection.Interval) string {
	var b strings.Builder
	b.WriteString("Input #0, mpegts, from 'rec.ts':\n")
	for _, iv := range intervals {
		fmt.Fprintf(&b, "[silencedetect @ 0x55d0c8a3c2c0] silence_start: %.3f\n", float64(iv.StartMs)/1000)
		fmt.Fprintf(&b, "[silencedetect @ 0x55d0c8a3c2c0] silence_end: %.3f | silence_duration: %.3f\n",
			float64(iv.EndMs)/1000, float64(iv.DurationMs())/1000)
	}
	b.WriteString("size=N/A time=00:30:00.00 bitrate=N/A speed= 412x\n")
	return b.String()
}

// CMBreakIntervals returns silences forming one accepted block of four 15s
// spots starting at startMs.
func CMBreakIntervals(startMs int64) []detection.Interval {
	out := make([]detection.Interval, 0, 5)
	for i := int64(0); i < 5; i++ {
		mid := startMs + i*15_000
		out = append(out, detection.Interval{StartMs: mid - 250, EndMs: mid + 250})
	}
	return out
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
