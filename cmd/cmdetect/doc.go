// Package main hosts the cmdetect CLI entrypoint and command graph.
//
// The Cobra command tree reads silencedetect logs, recordings, or earlier
// result documents, runs them through the commercial block detector, and
// renders the results. It centralizes configuration resolution and logger
// setup so subcommands only wire internal packages together.
//
// Keep this package lean: new behavior belongs in the internal packages and
// is surfaced here through commands or flags.
package main
