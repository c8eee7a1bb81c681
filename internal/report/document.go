package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"golang.org/x/text/unicode/norm"

	"cmdetect/internal/detection"
)

// Silence is one detected silence as written to result documents.
type Silence struct {
	StartMs    int64 `json:"start_ms" yaml:"start_ms"`
	EndMs      int64 `json:"end_ms" yaml:"end_ms"`
	DurationMs int64 `json:"duration_ms" yaml:"duration_ms"`
}

// Document is the serialized result for one input.
type Document struct {
	InputFile       string            `json:"input_file" yaml:"input_file"`
	Blocks          []detection.Block `json:"cm_blocks" yaml:"cm_blocks"`
	SilenceSegments []Silence         `json:"silence_segments" yaml:"silence_segments"`
	StartOffsetMs   int64             `json:"start_offset_ms" yaml:"start_offset_ms"`
}

// NewDocument wraps a detection result for input. File names are stored in
// NFC so names read from macOS file systems compare equal to typed ones.
func NewDocument(input string, result detection.Result) Document {
	silences := make([]Silence, 0, len(result.SilenceSegments))
	for _, iv := range result.SilenceSegments {
		silences = append(silences, Silence{StartMs: iv.StartMs, EndMs: iv.EndMs, DurationMs: iv.DurationMs()})
	}
	blocks := result.Blocks
	if blocks == nil {
		blocks = []detection.Block{}
	}
	return Document{
		InputFile:       NormalizeName(input),
		Blocks:          blocks,
		SilenceSegments: silences,
		StartOffsetMs:   result.StartOffsetMs,
	}
}

// NormalizeName returns name in Unicode NFC.
func NormalizeName(name string) string {
	return norm.NFC.String(name)
}

// Intervals returns the document's silences as detection input.
func (d Document) Intervals() []detection.Interval {
	out := make([]detection.Interval, 0, len(d.SilenceSegments))
	for _, s := range d.SilenceSegments {
		out = append(out, detection.Interval{StartMs: s.StartMs, EndMs: s.EndMs})
	}
	return out
}

// DisplayName returns the base name of the input for headings.
func (d Document) DisplayName() string {
	if d.InputFile == "" || d.InputFile == "-" {
		return "stdin"
	}
	return filepath.Base(d.InputFile)
}

// Decode reads one JSON result document, either a bare object or a
// one-element array. Longer arrays are rejected.
func Decode(r io.Reader) (Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("read result document: %w", err)
	}
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		var docs []Document
		if err := json.Unmarshal(trimmed, &docs); err != nil {
			return Document{}, fmt.Errorf("decode result documents: %w", err)
		}
		if len(docs) != 1 {
			return Document{}, fmt.Errorf("result file holds %d documents; only single-input results can be decoded", len(docs))
		}
		return docs[0], nil
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decode result document: %w", err)
	}
	return doc, nil
}
