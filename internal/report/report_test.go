package report

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"cmdetect/internal/detection"
)

func sampleResult() detection.Result {
	var raw []detection.Interval
	for _, mid := range []int64{3_200, 600_000, 615_000, 630_000, 645_000, 660_000} {
		raw = append(raw, detection.Interval{StartMs: mid - 200, EndMs: mid + 200})
	}
	return detection.Detect(raw)
}

func TestWriteJSONMatchesWireShape(t *testing.T) {
	doc := NewDocument("rec.log", sampleResult())
	var buf bytes.Buffer
	if err := Write(&buf, FormatJSON, doc); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	var generic map[string]any
	if err := json.Unmarshal(buf.Bytes(), &generic); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	for _, key := range []string{"input_file", "cm_blocks", "silence_segments", "start_offset_ms"} {
		if _, ok := generic[key]; !ok {
			t.Fatalf("missing key %q in %s", key, buf.String())
		}
	}
	blocks := generic["cm_blocks"].([]any)
	block := blocks[0].(map[string]any)
	if block["start_ms"].(float64) != 600_000 || block["duration_sec"].(float64) != 60 {
		t.Fatalf("unexpected block %v", block)
	}
	segment := block["segments"].([]any)[0].(map[string]any)
	if len(segment) != 3 {
		t.Fatalf("expected segment with start_ms, end_ms, duration_sec only, got %v", segment)
	}
	silence := generic["silence_segments"].([]any)[0].(map[string]any)
	if silence["duration_ms"].(float64) != 400 {
		t.Fatalf("unexpected silence %v", silence)
	}
	if generic["start_offset_ms"].(float64) != 3_200 {
		t.Fatalf("unexpected offset %v", generic["start_offset_ms"])
	}
}

func TestDecodeRoundTripsIntervals(t *testing.T) {
	result := sampleResult()
	var buf bytes.Buffer
	if err := Write(&buf, FormatJSON, NewDocument("rec.log", result)); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	doc, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	again := detection.Detect(doc.Intervals())
	if !reflect.DeepEqual(again.Blocks, result.Blocks) {
		t.Fatalf("re-detection differs:\n got %+v\nwant %+v", again.Blocks, result.Blocks)
	}
}

func TestDecodeUnwrapsSingleElementArray(t *testing.T) {
	result := sampleResult()
	docs, err := json.Marshal([]Document{NewDocument("rec.log", result)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	doc, err := Decode(bytes.NewReader(append([]byte("\n  "), docs...)))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if doc.InputFile != "rec.log" {
		t.Fatalf("unexpected input file %q", doc.InputFile)
	}
	again := detection.Detect(doc.Intervals())
	if !reflect.DeepEqual(again.Blocks, result.Blocks) {
		t.Fatalf("re-detection differs:\n got %+v\nwant %+v", again.Blocks, result.Blocks)
	}
}

func TestDecodeRejectsMultiDocumentArray(t *testing.T) {
	var buf bytes.Buffer
	docs := []Document{NewDocument("a.log", sampleResult()), NewDocument("b.log", detection.Detect(nil))}
	if err := Write(&buf, FormatJSON, docs...); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	_, err := Decode(&buf)
	if err == nil || !strings.Contains(err.Error(), "holds 2 documents") {
		t.Fatalf("expected multi-document error, got %v", err)
	}
}

func TestWriteMultipleJSONAsArray(t *testing.T) {
	var buf bytes.Buffer
	docs := []Document{NewDocument("a.log", sampleResult()), NewDocument("b.log", detection.Detect(nil))}
	if err := Write(&buf, FormatJSON, docs...); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	var decoded []Document
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(decoded) != 2 || decoded[1].InputFile != "b.log" || decoded[1].Blocks == nil {
		t.Fatalf("unexpected documents %+v", decoded)
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatYAML, NewDocument("rec.log", sampleResult())); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	var doc Document
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if len(doc.Blocks) != 1 || doc.Blocks[0].EndMs != 660_000 || doc.StartOffsetMs != 3_200 {
		t.Fatalf("unexpected yaml document %+v", doc)
	}
}

func TestRenderTable(t *testing.T) {
	out := RenderTable(NewDocument("/tmp/rec.log", sampleResult()))
	if !strings.Contains(out, "rec.log: 1 CM block(s), 6 silences, programme starts at 0:00:03.200") {
		t.Fatalf("unexpected heading in %q", out)
	}
	if !strings.Contains(out, "0:10:00.000") || !strings.Contains(out, "60.0s") || !strings.Contains(out, "15 15 15 15") {
		t.Fatalf("unexpected table %q", out)
	}
	empty := RenderTable(NewDocument("-", detection.Detect(nil)))
	if !strings.HasPrefix(empty, "stdin: 0 CM block(s)") {
		t.Fatalf("unexpected empty rendering %q", empty)
	}
}

func TestAutoFormatFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	if got := FormatAuto.Resolve(&buf); got != FormatJSON {
		t.Fatalf("expected json for non-terminal writer, got %s", got)
	}
	if _, err := ParseFormat("csv"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if f, err := ParseFormat(" TABLE "); err != nil || f != FormatTable {
		t.Fatalf("unexpected parse result %q %v", f, err)
	}
}

func TestNormalizeNameComposes(t *testing.T) {
	decomposed := "\u30d5\u309a\u30ed.ts"
	if got := NormalizeName(decomposed); got != "\u30d7\u30ed.ts" {
		t.Fatalf("expected composed name, got %q", got)
	}
}

func TestFormatTimestamp(t *testing.T) {
	if got := FormatTimestamp(3_723_004); got != "1:02:03.004" {
		t.Fatalf("unexpected timestamp %q", got)
	}
}
