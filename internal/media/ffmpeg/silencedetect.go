// Package ffmpeg runs ffmpeg's silencedetect filter over a recording and
// streams the detected silences as they are reported.
package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"cmdetect/internal/detection"
	"cmdetect/internal/silencelog"
)

const (
	defaultNoiseDB    = -50.0
	defaultMinSilence = 300 * time.Millisecond
	stderrTailBytes   = 4 * 1024
)

// Options controls the silencedetect invocation.
type Options struct {
	// Binary is the ffmpeg executable; "ffmpeg" when empty.
	Binary string
	// NoiseDB is the level below which audio counts as silence.
	NoiseDB float64
	// MinSilence is the shortest silence ffmpeg reports.
	MinSilence time.Duration
	// AudioStream selects the audio stream by audio index; negative uses the
	// ffmpeg default stream.
	AudioStream int
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.Binary) == "" {
		o.Binary = "ffmpeg"
	}
	if o.NoiseDB == 0 {
		o.NoiseDB = defaultNoiseDB
	}
	if o.MinSilence <= 0 {
		o.MinSilence = defaultMinSilence
	}
	return o
}

// FilterExpr returns the silencedetect filter expression for the options.
func (o Options) FilterExpr() string {
	o = o.withDefaults()
	return fmt.Sprintf("silencedetect=noise=%sdB:d=%s",
		strconv.FormatFloat(o.NoiseDB, 'f', -1, 64),
		strconv.FormatFloat(o.MinSilence.Seconds(), 'f', -1, 64),
	)
}

// Args builds the ffmpeg argument list. Video is skipped and the decoded
// audio is discarded through the null muxer.
func (o Options) Args(path string) []string {
	args := []string{"-hide_banner", "-nostats", "-nostdin", "-vn", "-sn", "-dn", "-i", path}
	if o.AudioStream >= 0 {
		args = append(args, "-map", fmt.Sprintf("0:a:%d", o.AudioStream))
	}
	return append(args, "-af", o.FilterExpr(), "-f", "null", "-")
}

// DetectSilence runs ffmpeg against path and calls fn for every silence in
// the order ffmpeg reports it. A non-nil error from fn stops ffmpeg.
func DetectSilence(ctx context.Context, path string, opts Options, fn func(detection.Interval) error) (silencelog.Stats, error) {
	opts = opts.withDefaults()
	if strings.TrimSpace(path) == "" {
		return silencelog.Stats{}, errors.New("silencedetect: empty path")
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(runCtx, opts.Binary, opts.Args(path)...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return silencelog.Stats{}, fmt.Errorf("silencedetect: stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return silencelog.Stats{}, fmt.Errorf("silencedetect: start %s: %w", opts.Binary, err)
	}

	tail := &tailBuffer{limit: stderrTailBytes}
	stats, scanErr := silencelog.Scan(io.TeeReader(stderr, tail), fn)
	if scanErr != nil {
		cancel()
		_, _ = io.Copy(io.Discard, stderr)
	}
	waitErr := cmd.Wait()

	switch {
	case scanErr != nil:
		return stats, fmt.Errorf("silencedetect %s: %w", path, scanErr)
	case ctx.Err() != nil:
		return stats, ctx.Err()
	case waitErr != nil:
		return stats, fmt.Errorf("silencedetect %s: %w: %s", path, waitErr, tail.String())
	}
	return stats, nil
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	return strings.TrimSpace(string(t.buf))
}
