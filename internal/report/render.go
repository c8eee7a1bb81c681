package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"cmdetect/internal/detection"
)

// Format selects a renderer.
type Format string

const (
	FormatAuto  Format = "auto"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
)

// ParseFormat validates a format name.
func ParseFormat(value string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(value))); f {
	case FormatAuto, FormatJSON, FormatYAML, FormatTable:
		return f, nil
	case "":
		return FormatAuto, nil
	default:
		return "", fmt.Errorf("unsupported output format %q", value)
	}
}

// Resolve turns FormatAuto into a table on terminals and JSON elsewhere.
func (f Format) Resolve(w io.Writer) Format {
	if f != FormatAuto {
		return f
	}
	if IsTerminal(w) {
		return FormatTable
	}
	return FormatJSON
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Write renders docs to w. A single JSON document is written bare; several
// are written as a JSON array. YAML uses one document per input.
func Write(w io.Writer, format Format, docs ...Document) error {
	switch format.Resolve(w) {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if len(docs) == 1 {
			return enc.Encode(docs[0])
		}
		if docs == nil {
			docs = []Document{}
		}
		return enc.Encode(docs)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		for _, doc := range docs {
			if err := enc.Encode(doc); err != nil {
				return fmt.Errorf("encode yaml: %w", err)
			}
		}
		return enc.Close()
	case FormatTable:
		for i, doc := range docs {
			if i > 0 {
				if _, err := io.WriteString(w, "\n"); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, RenderTable(doc)); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// RenderTable formats one document as a heading plus a block table.
func RenderTable(doc Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d CM block(s), %d silences, programme starts at %s\n",
		doc.DisplayName(), len(doc.Blocks), len(doc.SilenceSegments), FormatTimestamp(doc.StartOffsetMs))
	if len(doc.Blocks) == 0 {
		return b.String()
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Start", "End", "Duration", "Spots"})
	for i, block := range doc.Blocks {
		tw.AppendRow(table.Row{
			strconv.Itoa(i + 1),
			FormatTimestamp(block.StartMs),
			FormatTimestamp(block.EndMs),
			strconv.FormatFloat(block.DurationSec, 'f', 1, 64) + "s",
			spotSummary(block.Segments),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	b.WriteString(tw.Render())
	b.WriteByte('\n')
	return b.String()
}

// spotSummary lists the segment lengths in whole seconds, e.g. "15 15 30".
func spotSummary(segments []detection.Segment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		parts = append(parts, strconv.FormatFloat(seg.DurationSec, 'f', 0, 64))
	}
	return strings.Join(parts, " ")
}

// FormatTimestamp renders milliseconds as H:MM:SS.mmm.
func FormatTimestamp(ms int64) string {
	sign := ""
	if ms < 0 {
		sign = "-"
		ms = -ms
	}
	h := ms / 3_600_000
	m := ms / 60_000 % 60
	s := ms / 1000 % 60
	return fmt.Sprintf("%s%d:%02d:%02d.%03d", sign, h, m, s, ms%1000)
}
