package silencelog

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"cmdetect/internal/detection"
)

const (
	startKey = "silence_start:"
	endKey   = "silence_end:"

	maxLineBytes = 1 << 20
)

// Parser pairs silence_start and silence_end lines. The zero value is ready
// to use.
type Parser struct {
	pendingMs  int64
	hasPending bool
	unmatched  int
	lines      int
}

// ParseLine consumes one log line and returns an interval when the line
// closes a silence. A start that arrives while another is pending replaces it.
func (p *Parser) ParseLine(line string) (detection.Interval, bool) {
	p.lines++
	if ms, ok := timestampAfter(line, startKey); ok {
		if p.hasPending {
			p.unmatched++
		}
		p.pendingMs = ms
		p.hasPending = true
		return detection.Interval{}, false
	}
	ms, ok := timestampAfter(line, endKey)
	if !ok || !p.hasPending {
		return detection.Interval{}, false
	}
	iv := detection.Interval{StartMs: p.pendingMs, EndMs: ms}
	p.hasPending = false
	return iv, true
}

// Stats summarizes what the parser has seen.
type Stats struct {
	Lines int
	// Unmatched counts starts that never received an end, including a
	// silence still open at the end of the input.
	Unmatched int
}

// Stats returns the counters accumulated so far.
func (p *Parser) Stats() Stats {
	unmatched := p.unmatched
	if p.hasPending {
		unmatched++
	}
	return Stats{Lines: p.lines, Unmatched: unmatched}
}

// timestampAfter extracts the seconds value following key and converts it to
// milliseconds. ffmpeg can report a slightly negative start for a silence at
// the very beginning of a stream; those clamp to zero.
func timestampAfter(line, key string) (int64, bool) {
	idx := strings.Index(line, key)
	if idx < 0 {
		return 0, false
	}
	fields := strings.Fields(line[idx+len(key):])
	if len(fields) == 0 {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0, false
	}
	return max(int64(math.Round(seconds*1000)), 0), true
}

// Scan reads ffmpeg output from r and calls fn for every completed silence,
// in log order. Both \n and the \r used by ffmpeg progress updates end a line.
func Scan(r io.Reader, fn func(detection.Interval) error) (Stats, error) {
	var p Parser
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	scanner.Split(scanLogLines)
	for scanner.Scan() {
		iv, ok := p.ParseLine(scanner.Text())
		if !ok {
			continue
		}
		if err := fn(iv); err != nil {
			return p.Stats(), err
		}
	}
	if err := scanner.Err(); err != nil {
		return p.Stats(), fmt.Errorf("read silencedetect log: %w", err)
	}
	return p.Stats(), nil
}

// Parse reads every silence from r.
func Parse(r io.Reader) ([]detection.Interval, Stats, error) {
	var out []detection.Interval
	stats, err := Scan(r, func(iv detection.Interval) error {
		out = append(out, iv)
		return nil
	})
	return out, stats, err
}

func scanLogLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
