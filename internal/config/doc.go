// Package config loads, normalizes, and validates cmdetect configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours the CMDETECT_FFMPEG / CMDETECT_FFPROBE environment
// fallbacks. Detection thresholds are fixed in the detection package and are
// deliberately absent here; configuration only covers the tooling around it.
package config
