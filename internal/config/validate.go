package config

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateFFmpeg(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateWatch(); err != nil {
		return err
	}
	if err := c.validateBatch(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateFFmpeg() error {
	if c.FFmpeg.NoiseDB > maxNoiseDB || c.FFmpeg.NoiseDB < minNoiseDB {
		return fmt.Errorf("ffmpeg.noise_db must be between %.0f and %.0f", minNoiseDB, maxNoiseDB)
	}
	if c.FFmpeg.MinSilenceSeconds <= 0 || c.FFmpeg.MinSilenceSeconds > maxMinSilenceSeconds {
		return fmt.Errorf("ffmpeg.min_silence_seconds must be greater than 0 and at most %.0f", maxMinSilenceSeconds)
	}
	if c.FFmpeg.AudioStream < -1 {
		return errors.New("ffmpeg.audio_stream must be -1 or a stream index")
	}
	if c.FFmpeg.TimeoutSeconds < 0 {
		return errors.New("ffmpeg.timeout_seconds must be non-negative")
	}
	return nil
}

func (c *Config) validateOutput() error {
	switch c.Output.Format {
	case "auto", "json", "yaml", "table":
		return nil
	default:
		return fmt.Errorf("output.format: unsupported value %q (want auto, json, yaml, or table)", c.Output.Format)
	}
}

func (c *Config) validateWatch() error {
	if _, err := filepath.Match(c.Watch.Pattern, ""); err != nil {
		return fmt.Errorf("watch.pattern: %w", err)
	}
	if c.Watch.SettleMs < 0 {
		return errors.New("watch.settle_ms must be non-negative")
	}
	return nil
}

func (c *Config) validateBatch() error {
	if c.Batch.Workers < 1 || c.Batch.Workers > maxBatchWorkers {
		return fmt.Errorf("batch.workers must be between 1 and %d", maxBatchWorkers)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
