// Package logging assembles the structured slog loggers used by cmdetect.
//
// It owns the console and JSON handlers, level parsing, and output routing.
// Logs always go to stderr (plus an optional log file) because stdout carries
// detection documents. Context helpers tag lines with the run ID and input so
// concurrent batch runs stay distinguishable.
package logging
