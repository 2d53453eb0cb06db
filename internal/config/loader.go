package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidEngineNames lists the engine names that ship with noiseguard. Used by
// [Validate] to warn about unrecognised names; external embedders may
// register additional engines, so an unknown name is not an error.
var ValidEngineNames = []string{"rnnoise", "passthrough"}

// Load reads the YAML configuration file at path and returns a validated
// [Config] with defaults applied. It is a convenience wrapper around
// [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Engine.Name != "" && !slices.Contains(ValidEngineNames, cfg.Engine.Name) {
		slog.Warn("unknown engine name; assuming an externally registered engine",
			"name", cfg.Engine.Name,
			"known", ValidEngineNames,
		)
	}

	if cfg.Audio.QueueCapacity < 0 {
		errs = append(errs, fmt.Errorf("audio.queue_capacity %d is negative", cfg.Audio.QueueCapacity))
	}

	if v := *cfg.DSP.SuppressionLevel; v < 0 || v > 1 {
		errs = append(errs, fmt.Errorf("dsp.suppression_level %.2f is out of range [0, 1]", v))
	}
	if v := *cfg.DSP.VADThreshold; v < 0 || v > 1 {
		errs = append(errs, fmt.Errorf("dsp.vad_threshold %.2f is out of range [0, 1]", v))
	}

	return errors.Join(errs...)
}
