package config_test

import (
	"strings"
	"testing"

	"github.com/noiseguard/noiseguard/internal/config"
)

func TestLoadFromReader_Full(t *testing.T) {
	yml := `
server:
  listen_addr: ":9090"
  log_level: debug
engine:
  name: rnnoise
audio:
  queue_capacity: 9600
  opus_sink: true
dsp:
  suppression_level: 0.8
  vad_threshold: 0.6
  comfort_noise: false
`
	cfg, err := config.LoadFromReader(strings.NewReader(yml))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %q, want :9090", cfg.Server.ListenAddr)
	}
	if cfg.Server.LogLevel != config.LogDebug {
		t.Errorf("LogLevel = %q, want debug", cfg.Server.LogLevel)
	}
	if cfg.Engine.Name != "rnnoise" {
		t.Errorf("Engine.Name = %q, want rnnoise", cfg.Engine.Name)
	}
	if cfg.Audio.QueueCapacity != 9600 {
		t.Errorf("QueueCapacity = %d, want 9600", cfg.Audio.QueueCapacity)
	}
	if !cfg.Audio.OpusSink {
		t.Error("OpusSink = false, want true")
	}
	if *cfg.DSP.SuppressionLevel != 0.8 {
		t.Errorf("SuppressionLevel = %v, want 0.8", *cfg.DSP.SuppressionLevel)
	}
	if *cfg.DSP.VADThreshold != 0.6 {
		t.Errorf("VADThreshold = %v, want 0.6", *cfg.DSP.VADThreshold)
	}
	if *cfg.DSP.ComfortNoise {
		t.Error("ComfortNoise = true, want false")
	}
}

func TestLoadFromReader_Defaults(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFromReader on empty input: %v", err)
	}

	if cfg.Server.LogLevel != config.LogInfo {
		t.Errorf("default LogLevel = %q, want info", cfg.Server.LogLevel)
	}
	if cfg.Engine.Name != config.DefaultEngineName {
		t.Errorf("default Engine.Name = %q, want %q", cfg.Engine.Name, config.DefaultEngineName)
	}
	if cfg.Audio.QueueCapacity != config.DefaultQueueCapacity {
		t.Errorf("default QueueCapacity = %d, want %d", cfg.Audio.QueueCapacity, config.DefaultQueueCapacity)
	}
	if *cfg.DSP.SuppressionLevel != 1.0 {
		t.Errorf("default SuppressionLevel = %v, want 1", *cfg.DSP.SuppressionLevel)
	}
	if *cfg.DSP.VADThreshold != 0.5 {
		t.Errorf("default VADThreshold = %v, want 0.5", *cfg.DSP.VADThreshold)
	}
	if !*cfg.DSP.ComfortNoise {
		t.Error("default ComfortNoise = false, want true")
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	_, err := config.LoadFromReader(strings.NewReader("bogus: 1\n"))
	if err == nil {
		t.Fatal("expected error for unknown top-level field")
	}
}

func TestValidate_RangeErrors(t *testing.T) {
	yml := `
server:
  log_level: verbose
audio:
  queue_capacity: -1
dsp:
  suppression_level: 1.5
  vad_threshold: -0.2
`
	_, err := config.LoadFromReader(strings.NewReader(yml))
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"log_level", "queue_capacity", "suppression_level", "vad_threshold"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}
