// Package config loads the ephysqc TOML configuration: noise map
// parameters, reader options, logging and the default output folder.
package config
