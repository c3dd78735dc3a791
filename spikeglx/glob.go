package spikeglx

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// EphysFiles groups the binary streams recorded for one probe.
type EphysFiles struct {
	Label string // probe label, e.g. "imec0"; empty for single-probe layouts
	Dir   string
	AP    string
	LF    string
	NIDQ  string
}

// GlobEphysFiles walks dir and groups SpikeGLX binaries by directory and
// probe label. Results are sorted by directory then label.
func GlobEphysFiles(dir string) ([]EphysFiles, error) {
	groups := make(map[string]*EphysFiles)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".bin") {
			return nil
		}
		band := BandFromPath(path)
		if band == BandUnknown {
			return nil
		}
		label := probeLabel(path)
		key := filepath.Dir(path) + "\x00" + label
		g, ok := groups[key]
		if !ok {
			g = &EphysFiles{Label: label, Dir: filepath.Dir(path)}
			groups[key] = g
		}
		switch band {
		case BandAP:
			g.AP = path
		case BandLF:
			g.LF = path
		case BandNIDQ:
			g.NIDQ = path
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]EphysFiles, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Dir != out[j].Dir {
			return out[i].Dir < out[j].Dir
		}
		return out[i].Label < out[j].Label
	})
	return out, nil
}

// probeLabel extracts "imecN" from names like "x_g0_t0.imec1.ap.bin".
func probeLabel(path string) string {
	for _, part := range strings.Split(strings.ToLower(filepath.Base(path)), ".") {
		if strings.HasPrefix(part, "imec") {
			return part
		}
	}
	return ""
}
