package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"cmdetect/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// History is disabled unless WithHistory is passed.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.History.Enabled = false
	cfgVal.History.Path = filepath.Join(base, "data", "history.db")
	cfgVal.FFmpeg.Binary = "ffmpeg"
	cfgVal.FFmpeg.FFprobeBinary = "ffprobe"
	cfgVal.Batch.Workers = 2
	cfgVal.Watch.SettleMs = 50

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithHistory enables the run ledger in the test data directory.
func WithHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = true
	}
}

// WithStubbedBinary writes an executable shell script named name and points
// the matching ffmpeg or ffprobe setting at it.
func WithStubbedBinary(name, script string) ConfigOption {
	return func(b *configBuilder) {
		path := WriteScript(b.t, filepath.Join(b.baseDir, "bin"), name, script)
		switch name {
		case "ffmpeg":
			b.cfg.FFmpeg.Binary = path
		case "ffprobe":
			b.cfg.FFmpeg.FFprobeBinary = path
		}
	}
}

// WriteScript writes an executable /bin/sh script and returns its path.
func WriteScript(t testing.TB, dir, name, body string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
