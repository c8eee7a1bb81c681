// Package report renders detection results as JSON, YAML, or a terminal table.
//
// Document is the wire shape consumed by downstream cutting tools:
// input_file, cm_blocks, silence_segments, and start_offset_ms. The same
// document can be decoded again so a previous result can be re-run.
package report
