// Package watch processes silencedetect logs as they appear in a directory.
//
// A file whose name matches the configured pattern is handled once its size
// and modification time stop changing for the settle delay. The result
// document is written beside it with the configured suffix in place of the
// extension. A lock file in the directory keeps two watchers from racing on
// the same files.
package watch
