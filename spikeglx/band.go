package spikeglx

import (
	"path/filepath"
	"strings"
)

// BandType identifies the acquisition stream a file belongs to.
type BandType string

const (
	BandUnknown BandType = ""
	BandAP      BandType = "ap"
	BandLF      BandType = "lf"
	BandNIDQ    BandType = "nidq"
)

// Label returns the upper-case tag used in output object names, e.g. "AP".
func (b BandType) Label() string {
	return strings.ToUpper(string(b))
}

// BandFromPath derives the band from a SpikeGLX file name such as
// "run_g0_t0.imec0.ap.bin".
func BandFromPath(path string) BandType {
	base := strings.ToLower(filepath.Base(path))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	switch {
	case strings.HasSuffix(base, ".ap"):
		return BandAP
	case strings.HasSuffix(base, ".lf"):
		return BandLF
	case strings.HasSuffix(base, ".nidq"):
		return BandNIDQ
	}
	return BandUnknown
}

// MetaPath returns the sidecar metadata path for a binary file.
func MetaPath(binPath string) string {
	return strings.TrimSuffix(binPath, filepath.Ext(binPath)) + ".meta"
}
