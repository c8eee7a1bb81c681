package config

const (
	defaultConfigPath     = "~/.config/cmdetect/config.toml"
	projectConfigName     = "cmdetect.toml"
	defaultDataDir        = "~/.local/share/cmdetect"
	defaultLogDir         = "~/.local/share/cmdetect/logs"
	defaultHistoryFile    = "history.db"
	defaultFFmpegBinary   = "ffmpeg"
	defaultFFprobeBinary  = "ffprobe"
	defaultNoiseDB        = -50.0
	defaultMinSilence     = 0.3
	defaultFFmpegTimeout  = 1800
	defaultOutputFormat   = "auto"
	defaultWatchPattern   = "*.log"
	defaultWatchSuffix    = ".cm.json"
	defaultWatchSettleMs  = 1500
	defaultBatchWorkers   = 4
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	envFFmpegBinary       = "CMDETECT_FFMPEG"
	envFFprobeBinary      = "CMDETECT_FFPROBE"
	maxBatchWorkers       = 64
	maxNoiseDB            = 0.0
	minNoiseDB            = -120.0
	maxMinSilenceSeconds  = 10.0
	defaultAudioStream    = -1
	defaultHistoryEnabled = true
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		FFmpeg: FFmpeg{
			NoiseDB:           defaultNoiseDB,
			MinSilenceSeconds: defaultMinSilence,
			AudioStream:       defaultAudioStream,
			TimeoutSeconds:    defaultFFmpegTimeout,
			Probe:             true,
		},
		Output: Output{
			Format: defaultOutputFormat,
		},
		History: History{
			Enabled: defaultHistoryEnabled,
		},
		Watch: Watch{
			Pattern:  defaultWatchPattern,
			Suffix:   defaultWatchSuffix,
			SettleMs: defaultWatchSettleMs,
		},
		Batch: Batch{
			Workers: defaultBatchWorkers,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
