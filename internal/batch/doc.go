// Package batch runs detection over many inputs with bounded parallelism.
//
// An input is an ffmpeg silencedetect log (a file or stdin), a recording that
// is first run through ffmpeg, or a previously written result document whose
// silences are detected again. Each input gets its own run ID, its own engine
// invocation, and optionally a row in the history ledger. Outcomes are
// returned in input order regardless of completion order.
package batch
