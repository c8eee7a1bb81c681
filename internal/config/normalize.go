package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeFFmpeg()
	c.normalizeOutput()
	c.normalizeWatch()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = filepath.Join(c.Paths.DataDir, defaultHistoryFile)
	}
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeFFmpeg() {
	c.FFmpeg.Binary = binaryWithEnv(c.FFmpeg.Binary, envFFmpegBinary, defaultFFmpegBinary)
	c.FFmpeg.FFprobeBinary = binaryWithEnv(c.FFmpeg.FFprobeBinary, envFFprobeBinary, defaultFFprobeBinary)
}

func binaryWithEnv(value, env, fallback string) string {
	value = strings.TrimSpace(value)
	if value != "" {
		return value
	}
	if fromEnv, ok := os.LookupEnv(env); ok && strings.TrimSpace(fromEnv) != "" {
		return strings.TrimSpace(fromEnv)
	}
	return fallback
}

func (c *Config) normalizeOutput() {
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	if c.Output.Format == "" {
		c.Output.Format = defaultOutputFormat
	}
}

func (c *Config) normalizeWatch() {
	c.Watch.Pattern = strings.TrimSpace(c.Watch.Pattern)
	if c.Watch.Pattern == "" {
		c.Watch.Pattern = defaultWatchPattern
	}
	c.Watch.Suffix = strings.TrimSpace(c.Watch.Suffix)
	if c.Watch.Suffix == "" {
		c.Watch.Suffix = defaultWatchSuffix
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
