package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRMSMap(); err != nil {
		return err
	}
	if err := c.validateReader(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateRMSMap() error {
	if c.RMSMap.WindowSeconds < 0 {
		return errors.New("rmsmap.window_seconds must be positive")
	}
	if c.RMSMap.WelchSegment < 2 {
		return errors.New("rmsmap.welch_segment must be at least 2")
	}
	if c.RMSMap.HighpassHz < 0 {
		return errors.New("rmsmap.highpass_hz must be positive")
	}
	if c.RMSMap.MaxDuration < 0 {
		return errors.New("rmsmap.max_duration must not be negative")
	}
	return nil
}

func (c *Config) validateReader() error {
	switch c.Reader.Layout {
	case "sample_major", "channel_major":
		return nil
	default:
		return fmt.Errorf("reader.layout must be sample_major or channel_major, got %q", c.Reader.Layout)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}
