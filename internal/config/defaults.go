package config

import "github.com/cwbudde/algo-ephys/rmsmap"

const (
	defaultConfigPath  = "~/.config/ephysqc/config.toml"
	projectConfigName  = "ephysqc.toml"
	defaultLogFormat   = "console"
	defaultLogLevel    = "info"
	defaultReadLayout  = "sample_major"
	defaultSpectraFlag = true
)

// Default returns a Config populated with the built-in defaults.
func Default() Config {
	return Config{
		RMSMap: RMSMap{
			WindowSeconds: rmsmap.RMSWindowSeconds,
			WelchSegment:  rmsmap.WelchSegmentLength,
			HighpassHz:    rmsmap.HighpassCutoffHz,
			Spectra:       defaultSpectraFlag,
		},
		Reader: Reader{
			Layout: defaultReadLayout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
