// Package silencelog parses the log output of ffmpeg's silencedetect filter
// into detection intervals.
//
// ffmpeg reports each silence as a pair of lines on stderr:
//
//	[silencedetect @ 0x55d0c8] silence_start: 12.345
//	[silencedetect @ 0x55d0c8] silence_end: 12.987 | silence_duration: 0.642
//
// Parser pairs each end with the most recent start and ignores every other
// line, so full ffmpeg stderr (banner, stream maps, progress) can be fed in
// unfiltered.
package silencelog
