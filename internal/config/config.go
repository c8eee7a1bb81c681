package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// FFmpeg contains settings for running silencedetect against recordings.
type FFmpeg struct {
	Binary            string  `toml:"binary"`
	FFprobeBinary     string  `toml:"ffprobe_binary"`
	NoiseDB           float64 `toml:"noise_db"`
	MinSilenceSeconds float64 `toml:"min_silence_seconds"`
	// AudioStream selects the audio stream by audio index; -1 lets ffmpeg pick.
	AudioStream    int  `toml:"audio_stream"`
	TimeoutSeconds int  `toml:"timeout_seconds"`
	Probe          bool `toml:"probe"`
}

// Output contains defaults for result rendering.
type Output struct {
	// Format is one of auto, json, yaml, table. auto renders a table on a
	// terminal and JSON otherwise.
	Format string `toml:"format"`
}

// History contains configuration for the run ledger.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Watch contains configuration for directory watching.
type Watch struct {
	Pattern  string `toml:"pattern"`
	Suffix   string `toml:"suffix"`
	SettleMs int    `toml:"settle_ms"`
}

// Batch contains configuration for multi-input runs.
type Batch struct {
	Workers int `toml:"workers"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   bool   `toml:"file"`
}

// Config encapsulates all configuration values for cmdetect.
//
// Configuration sections:
//   - Paths: data and log directories
//   - FFmpeg: silencedetect invocation for --media inputs
//   - Output: default document format
//   - History: SQLite run ledger
//   - Watch: directory watch mode
//   - Batch: parallelism for multi-input runs
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	FFmpeg  FFmpeg  `toml:"ffmpeg"`
	Output  Output  `toml:"output"`
	History History `toml:"history"`
	Watch   Watch   `toml:"watch"`
	Batch   Batch   `toml:"batch"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded. The resolved path and whether a file
// existed there are returned alongside.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the data directory and, when file logging is on,
// the log directory.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir}
	if c.Logging.File {
		dirs = append(dirs, c.Paths.LogDir)
	}
	if c.History.Enabled {
		dirs = append(dirs, filepath.Dir(c.History.Path))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// MinSilence returns the silencedetect duration threshold.
func (c *Config) MinSilence() time.Duration {
	return time.Duration(c.FFmpeg.MinSilenceSeconds * float64(time.Second))
}

// FFmpegTimeout returns the per-recording ffmpeg timeout; zero disables it.
func (c *Config) FFmpegTimeout() time.Duration {
	return time.Duration(c.FFmpeg.TimeoutSeconds) * time.Second
}

// WatchSettle returns how long a watched file must stay unchanged before it
// is processed.
func (c *Config) WatchSettle() time.Duration {
	return time.Duration(c.Watch.SettleMs) * time.Millisecond
}

// LockPath returns the lock file guarding a watched directory.
func (c *Config) LockPath(dir string) string {
	return filepath.Join(dir, ".cmdetect.lock")
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
