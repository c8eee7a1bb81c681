// Package ffprobe inspects recordings with ffprobe before silence detection.
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns the parsed Result
//
// Result helpers pick the audio streams silencedetect can run against and
// convert the container duration to milliseconds.
package ffprobe
