package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// ErrNoAudio is returned by RequireAudio when a recording has no audio stream.
var ErrNoAudio = errors.New("no audio stream")

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the container.
type Stream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
	Duration   string `json:"duration"`
}

// Format captures container-level metadata.
type Format struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	StartTime  string `json:"start_time"`
}

// Inspect executes ffprobe against path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{}, fmt.Errorf("ffprobe inspect %s: %w: %s", path, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return Result{}, fmt.Errorf("ffprobe inspect %s: %w", path, err)
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// AudioStreams returns the audio streams in container order.
func (r Result) AudioStreams() []Stream {
	var out []Stream
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			out = append(out, stream)
		}
	}
	return out
}

// RequireAudio returns ErrNoAudio when the container carries no audio.
func (r Result) RequireAudio() error {
	if len(r.AudioStreams()) == 0 {
		return fmt.Errorf("%s: %w", r.Format.Filename, ErrNoAudio)
	}
	return nil
}

// DurationMs returns the container duration in milliseconds, or 0 when
// ffprobe did not report a usable value.
func (r Result) DurationMs() int64 {
	return secondsToMs(r.Format.Duration)
}

// StartTimeMs returns the container start timestamp in milliseconds. MPEG-TS
// broadcasts usually start well above zero.
func (r Result) StartTimeMs() int64 {
	return secondsToMs(r.Format.StartTime)
}

func secondsToMs(value string) int64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	seconds, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return 0
	}
	return int64(math.Round(seconds * 1000))
}
