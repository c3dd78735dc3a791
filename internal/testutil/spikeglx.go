package testutil

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Recording describes a synthetic SpikeGLX file pair.
type Recording struct {
	Name       string    // file name without extension, e.g. "run_g0_t0.imec0.ap"
	SampleRate float64   // Hz
	Data       [][]int16 // channel-major counts, sync channel last
	Gain       float64   // imro gain for every neural channel; 0 means 500
	// ChannelMajor writes channels contiguously instead of interleaved.
	ChannelMajor bool
	// ExtraMeta is appended verbatim to the meta file.
	ExtraMeta map[string]string
}

// WriteSpikeGLX writes rec as <dir>/<Name>.bin and <dir>/<Name>.meta and
// returns the binary path. Conversion parameters are imAiRangeMax=0.6 and
// imMaxInt=512.
func WriteSpikeGLX(t *testing.T, dir string, rec Recording) string {
	t.Helper()

	nc := len(rec.Data)
	ns := 0
	if nc > 0 {
		ns = len(rec.Data[0])
	}
	buf := make([]byte, 0, nc*ns*2)
	if rec.ChannelMajor {
		for c := 0; c < nc; c++ {
			for i := 0; i < ns; i++ {
				buf = binary.LittleEndian.AppendUint16(buf, uint16(rec.Data[c][i]))
			}
		}
	} else {
		for i := 0; i < ns; i++ {
			for c := 0; c < nc; c++ {
				buf = binary.LittleEndian.AppendUint16(buf, uint16(rec.Data[c][i]))
			}
		}
	}

	binPath := filepath.Join(dir, rec.Name+".bin")
	if err := os.WriteFile(binPath, buf, 0o644); err != nil {
		t.Fatalf("write bin: %v", err)
	}

	gain := rec.Gain
	if gain == 0 {
		gain = 500
	}
	neural := max(nc-1, 0)
	var imro strings.Builder
	fmt.Fprintf(&imro, "(0,%d)", neural)
	for c := 0; c < neural; c++ {
		fmt.Fprintf(&imro, "(%d 0 0 %g %g 1)", c, gain, gain)
	}

	var meta strings.Builder
	fmt.Fprintf(&meta, "typeThis=imec\n")
	fmt.Fprintf(&meta, "imSampRate=%g\n", rec.SampleRate)
	fmt.Fprintf(&meta, "nSavedChans=%d\n", nc)
	fmt.Fprintf(&meta, "fileSizeBytes=%d\n", len(buf))
	fmt.Fprintf(&meta, "imAiRangeMax=0.6\n")
	fmt.Fprintf(&meta, "imMaxInt=512\n")
	fmt.Fprintf(&meta, "snsApLfSy=%d,%d,1\n", neural, neural)
	fmt.Fprintf(&meta, "~imroTbl=%s\n", imro.String())
	for k, v := range rec.ExtraMeta {
		fmt.Fprintf(&meta, "%s=%s\n", k, v)
	}

	metaPath := filepath.Join(dir, rec.Name+".meta")
	if err := os.WriteFile(metaPath, []byte(meta.String()), 0o644); err != nil {
		t.Fatalf("write meta: %v", err)
	}
	return binPath
}
