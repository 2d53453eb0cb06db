// Package config provides the configuration schema, loader, and engine
// registry for the noiseguard noise-suppression service.
package config

// LogLevel controls log verbosity for the noiseguard process.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure. It is typically loaded from a
// YAML file using [Load] or [LoadFromReader]. Runtime-mutable DSP settings
// (suppression level, gate threshold, comfort noise) are starting values
// only; they are never written back (settings persistence is out of scope).
type Config struct {
	Server ServerConfig `yaml:"server"`
	Engine EngineEntry  `yaml:"engine"`
	Audio  AudioConfig  `yaml:"audio"`
	DSP    DSPConfig    `yaml:"dsp"`
}

// ServerConfig holds the ops endpoint and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address for /healthz, /readyz, /metrics, and
	// /ws/metrics (e.g., ":9090"). Empty disables the ops server.
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// EngineEntry selects the denoising engine backend by name. The Name field is
// used to look up the constructor in the [Registry].
type EngineEntry struct {
	// Name selects the registered engine (e.g., "rnnoise", "passthrough").
	Name string `yaml:"name"`

	// Options holds engine-specific configuration values. Values may be
	// strings, numbers, booleans, or nested maps.
	Options map[string]any `yaml:"options"`
}

// AudioConfig holds the sample-transport settings.
type AudioConfig struct {
	// QueueCapacity is the requested per-queue depth in samples; it is
	// rounded up to the next power of two at construction. Default 4800
	// (100 ms at 48 kHz).
	QueueCapacity int `yaml:"queue_capacity"`

	// OpusSink enables Opus encoding of the processed output stream.
	OpusSink bool `yaml:"opus_sink"`
}

// DSPConfig holds the starting values for the runtime-mutable processor
// settings.
type DSPConfig struct {
	// SuppressionLevel is the wet/dry blend in [0, 1]: 0 bypasses the
	// engine entirely, 1 is fully processed. Default 1.
	SuppressionLevel *float64 `yaml:"suppression_level"`

	// VADThreshold is the gate threshold in [0, 1]. Frames whose voice
	// probability falls below it are attenuated. Default 0.5.
	VADThreshold *float64 `yaml:"vad_threshold"`

	// ComfortNoise toggles low-level noise injection during gated silence.
	// Default true.
	ComfortNoise *bool `yaml:"comfort_noise"`
}

// Default values applied by [ApplyDefaults].
const (
	DefaultQueueCapacity    = 4800
	DefaultSuppressionLevel = 1.0
	DefaultVADThreshold     = 0.5
	DefaultEngineName       = "passthrough"
)

// ApplyDefaults fills unset fields with their defaults. Called by the loader
// after decoding; exported so tests building a Config literal can reuse it.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Engine.Name == "" {
		cfg.Engine.Name = DefaultEngineName
	}
	if cfg.Audio.QueueCapacity == 0 {
		cfg.Audio.QueueCapacity = DefaultQueueCapacity
	}
	if cfg.DSP.SuppressionLevel == nil {
		v := DefaultSuppressionLevel
		cfg.DSP.SuppressionLevel = &v
	}
	if cfg.DSP.VADThreshold == nil {
		v := DefaultVADThreshold
		cfg.DSP.VADThreshold = &v
	}
	if cfg.DSP.ComfortNoise == nil {
		v := true
		cfg.DSP.ComfortNoise = &v
	}
}
