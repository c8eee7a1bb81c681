// Package history keeps a SQLite ledger of detection runs.
//
// Every run records its input, counts, start offset, and the full result
// document so earlier results can be listed and printed again without
// re-reading the recording. The ledger sits outside the detection engine,
// which stays free of I/O.
package history
