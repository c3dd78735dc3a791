package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeRMSMap()
	c.Reader.Layout = strings.ToLower(strings.TrimSpace(c.Reader.Layout))
	if c.Reader.Layout == "" {
		c.Reader.Layout = defaultReadLayout
	}
	c.normalizeLogging()

	var err error
	if c.Output.Dir, err = expandPath(strings.TrimSpace(c.Output.Dir)); err != nil {
		return fmt.Errorf("output.dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeRMSMap() {
	d := Default().RMSMap
	if c.RMSMap.WindowSeconds == 0 {
		c.RMSMap.WindowSeconds = d.WindowSeconds
	}
	if c.RMSMap.WelchSegment == 0 {
		c.RMSMap.WelchSegment = d.WelchSegment
	}
	if c.RMSMap.HighpassHz == 0 {
		c.RMSMap.HighpassHz = d.HighpassHz
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
