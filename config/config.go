// Package config loads the analyzer's TOML configuration, adapted
// from the teacher's config package: an embedded default written out
// on first run, parsed with BurntSushi/toml. Unlike the teacher, Load
// returns a Config value instead of populating package globals, since
// spec.md §6 requires configuration to be read once at construction
// and then treated as immutable by every component that receives it.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

//go:embed flexray.toml
var defaultConfigData []byte

// Channel holds the sampler construction parameters of spec.md §6.
type Channel struct {
	InputChannel int  `toml:"input_channel"`
	BitRate      int  `toml:"bit_rate"`
	SampleRate   int  `toml:"sample_rate"`
	Inverted     bool `toml:"inverted"`
}

// Capture holds host-facing knobs for talking to a capture/replay
// device, outside the core packages' concern.
type Capture struct {
	Port          string `toml:"port"`
	IdleTimeoutMs int    `toml:"idle_timeout_ms"`
}

// Export selects and configures the output sink (package export).
type Export struct {
	Format string `toml:"format"`
	Path   string `toml:"path"`
}

// Metrics controls the optional prometheus endpoint.
type Metrics struct {
	Enabled    bool   `toml:"enabled"`
	ListenAddr string `toml:"listen_addr"`
}

// Config is the whole parsed file.
type Config struct {
	Channel Channel `toml:"channel"`
	Capture Capture `toml:"capture"`
	Export  Export  `toml:"export"`
	Metrics Metrics `toml:"metrics"`
}

// SamplesPerBit returns sample_rate / bit_rate, the value
// sampler.Config wants directly.
func (c Config) SamplesPerBit() (uint64, error) {
	if c.Channel.BitRate <= 0 {
		return 0, fmt.Errorf("config: bit_rate must be positive, got %d", c.Channel.BitRate)
	}
	if c.Channel.SampleRate <= 0 {
		return 0, fmt.Errorf("config: sample_rate must be positive, got %d", c.Channel.SampleRate)
	}
	if c.Channel.SampleRate%c.Channel.BitRate != 0 {
		return 0, fmt.Errorf("config: sample_rate %d is not a multiple of bit_rate %d", c.Channel.SampleRate, c.Channel.BitRate)
	}
	return uint64(c.Channel.SampleRate / c.Channel.BitRate), nil
}

// DefaultPath returns the per-OS path Load uses when no explicit path
// is given, mirroring the teacher's configPath.
func DefaultPath() (string, error) {
	var dir string
	var err error
	switch runtime.GOOS {
	case "windows":
		dir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("config: cannot determine user config directory: %w", err)
		}
		dir = filepath.Join(dir, "flexray-analyzer")
	default:
		dir, err = os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("config: cannot determine user home directory: %w", err)
		}
	}
	return filepath.Join(dir, ".flexray-analyzer.toml"), nil
}

// Load reads path, creating it from the embedded default if it does
// not exist yet. An empty path resolves via DefaultPath.
func Load(path string) (Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return Config{}, err
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return Config{}, fmt.Errorf("config: creating directory for %s: %w", path, err)
		}
		if err := os.WriteFile(path, defaultConfigData, 0o644); err != nil {
			return Config{}, fmt.Errorf("config: writing default config to %s: %w", path, err)
		}
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if _, err := cfg.SamplesPerBit(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
