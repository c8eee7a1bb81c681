// Package deps reports whether the external tools cmdetect shells out to are
// installed.
package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"cmdetect/internal/config"
)

const versionTimeout = 5 * time.Second

// Requirement defines an external binary cmdetect relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a requirement.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Path        string
	Version     string
	Detail      string
}

// Requirements lists the binaries used by --media runs. ffprobe is optional
// because probing can be disabled.
func Requirements(cfg *config.Config) []Requirement {
	ffmpegCmd, ffprobeCmd := "ffmpeg", "ffprobe"
	probeOptional := false
	if cfg != nil {
		ffmpegCmd = cfg.FFmpeg.Binary
		ffprobeCmd = cfg.FFmpeg.FFprobeBinary
		probeOptional = !cfg.FFmpeg.Probe
	}
	return []Requirement{
		{Name: "FFmpeg", Command: ffmpegCmd, Description: "Runs silencedetect for --media inputs"},
		{Name: "FFprobe", Command: ffprobeCmd, Description: "Checks recordings for audio before detection", Optional: probeOptional},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
// Available binaries are asked for their version with -version.
func CheckBinaries(ctx context.Context, requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = path
		status.Version = firstLineVersion(ctx, path)
		results = append(results, status)
	}
	return results
}

// Missing returns the required statuses that are unavailable.
func Missing(statuses []Status) []Status {
	var out []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			out = append(out, s)
		}
	}
	return out
}

func firstLineVersion(ctx context.Context, path string) string {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	output, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(string(output), "\n")
	return strings.TrimSpace(line)
}
