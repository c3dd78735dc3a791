package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/cwbudde/algo-ephys/rmsmap"
	"github.com/cwbudde/algo-ephys/spikeglx"
)

//go:embed sample_config.toml
var sampleConfig string

// RMSMap holds noise map parameters.
type RMSMap struct {
	WindowSeconds float64 `toml:"window_seconds"`
	WelchSegment  int     `toml:"welch_segment"`
	HighpassHz    float64 `toml:"highpass_hz"`
	// Spectra controls LF spectral density output for single-file runs.
	Spectra bool `toml:"spectra"`
	// MaxDuration caps processed seconds; 0 processes whole recordings.
	MaxDuration float64 `toml:"max_duration"`
}

// Reader holds SpikeGLX reader options.
type Reader struct {
	Mmap   bool   `toml:"mmap"`
	Layout string `toml:"layout"` // sample_major or channel_major
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Output selects where results go.
type Output struct {
	// Dir receives ALF files; empty writes next to each recording.
	Dir string `toml:"dir"`
}

// Config encapsulates all configuration values for ephysqc.
type Config struct {
	RMSMap  RMSMap  `toml:"rmsmap"`
	Reader  Reader  `toml:"reader"`
	Logging Logging `toml:"logging"`
	Output  Output  `toml:"output"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. It returns the
// config, the resolved path and whether that file exists. A missing file
// yields the defaults.
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
		_, err = os.Stat(expanded)
		if err != nil {
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

// RMSOptions returns the noise map options. Spectra and MaxDuration are
// taken from the config; callers override them per band.
func (c *Config) RMSOptions() rmsmap.Options {
	return rmsmap.Options{
		Spectra:       c.RMSMap.Spectra,
		MaxDuration:   c.RMSMap.MaxDuration,
		WindowSeconds: c.RMSMap.WindowSeconds,
		WelchSegment:  c.RMSMap.WelchSegment,
		HighpassHz:    c.RMSMap.HighpassHz,
	}
}

// ReaderOptions returns the spikeglx.Open options selected by the config.
func (c *Config) ReaderOptions() []spikeglx.Option {
	var opts []spikeglx.Option
	if c.Reader.Mmap {
		opts = append(opts, spikeglx.WithMmap())
	}
	if c.Reader.Layout == "channel_major" {
		opts = append(opts, spikeglx.WithLayout(spikeglx.ChannelMajor))
	}
	return opts
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

// CreateSample writes a sample configuration file to the specified location.
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
