package session

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config contains all engine configuration options.
type Config struct {
	// Audio settings
	SampleRate        int     `yaml:"sample_rate" env:"SESSIONAUDIO_SAMPLE_RATE" envDefault:"22050"`
	SilenceSampleRate int     `yaml:"silence_sample_rate" env:"SESSIONAUDIO_SILENCE_SAMPLE_RATE" envDefault:"8000"`
	KeepaliveVolume   float64 `yaml:"keepalive_volume" env:"SESSIONAUDIO_KEEPALIVE_VOLUME" envDefault:"0.01"`

	// Asset settings
	ScratchDir string `yaml:"scratch_dir" env:"SESSIONAUDIO_SCRATCH_DIR"`
	ChimePath  string `yaml:"chime_path" env:"SESSIONAUDIO_CHIME_PATH"`

	// Timing settings
	ProgressInterval    time.Duration `yaml:"progress_interval" env:"SESSIONAUDIO_PROGRESS_INTERVAL" envDefault:"500ms"`
	RestorePollInterval time.Duration `yaml:"restore_poll_interval" env:"SESSIONAUDIO_RESTORE_POLL_INTERVAL" envDefault:"200ms"`
	RestorePollTimeout  time.Duration `yaml:"restore_poll_timeout" env:"SESSIONAUDIO_RESTORE_POLL_TIMEOUT" envDefault:"1s"`

	// ForceDuck makes every narration clip duck regardless of whether
	// external audio is detected. Debug aid; the external-audio probe is
	// unreliable under emulation.
	ForceDuck bool `yaml:"force_duck" env:"SESSIONAUDIO_FORCE_DUCK" envDefault:"false"`

	Debug bool `yaml:"debug" env:"SESSIONAUDIO_DEBUG" envDefault:"false"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SampleRate:          SampleRate,
		SilenceSampleRate:   8000,
		KeepaliveVolume:     KeepaliveVolume,
		ProgressInterval:    500 * time.Millisecond,
		RestorePollInterval: 200 * time.Millisecond,
		RestorePollTimeout:  time.Second,
	}
}

// LoadConfig returns the default configuration overlaid with environment
// variables.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("unable to parse environment config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks configuration invariants.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}
	if c.SilenceSampleRate <= 0 {
		return fmt.Errorf("silence sample rate must be positive, got %d", c.SilenceSampleRate)
	}
	if c.KeepaliveVolume < 0 || c.KeepaliveVolume > 1 {
		return fmt.Errorf("keepalive volume must be in [0, 1], got %v", c.KeepaliveVolume)
	}
	if c.ProgressInterval <= 0 {
		return fmt.Errorf("progress interval must be positive, got %v", c.ProgressInterval)
	}
	if c.RestorePollInterval <= 0 || c.RestorePollTimeout < c.RestorePollInterval {
		return fmt.Errorf("invalid restore poll settings: interval %v, timeout %v",
			c.RestorePollInterval, c.RestorePollTimeout)
	}
	return nil
}
