package rmsmap

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/cwbudde/algo-ephys/alf"
	"github.com/cwbudde/algo-ephys/internal/testutil"
	"github.com/cwbudde/algo-ephys/spikeglx"
)

func writeLF(t *testing.T, dir string) string {
	t.Helper()
	return testutil.WriteSpikeGLX(t, dir, testutil.Recording{
		Name:       "run_g0_t0.imec0.lf",
		SampleRate: 2500,
		Data:       testutil.NoisyChannels(11, 5, 12500, 40, 100),
	})
}

func TestExtractWritesObjects(t *testing.T) {
	src := t.TempDir()
	path := writeLF(t, src)
	outDir := filepath.Join(t.TempDir(), "alf", "probe00")

	out, err := Extract(context.Background(), path, ExtractOptions{
		OutDir:  outDir,
		Options: Options{Spectra: true},
		Logger:  zaptest.NewLogger(t),
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if out.Band != spikeglx.BandLF || len(out.Files()) != 4 {
		t.Fatalf("outputs %+v", out)
	}

	rms, err := alf.LoadObject(outDir, "_iblqc_ephysTimeRmsLF")
	if err != nil {
		t.Fatalf("load rms: %v", err)
	}
	// 12500 samples at 2500 Hz: windows of 8192, two of them.
	if got := rms["rms"].Shape; len(got) != 2 || got[0] != 2 || got[1] != 5 {
		t.Fatalf("rms shape %v", got)
	}
	if rms["rms"].DType != alf.Float32 || rms["timestamps"].Data[1] != float64(float32(8192.0/2500)) {
		t.Fatalf("rms object %+v", rms["timestamps"])
	}
	for _, v := range rms["rms"].Data {
		if v <= 0 {
			t.Fatalf("non-positive rms %v", v)
		}
	}

	spec, err := alf.LoadObject(outDir, "_iblqc_ephysSpectralDensityLF")
	if err != nil {
		t.Fatalf("load spectral: %v", err)
	}
	if got := spec["power"].Shape; got[0] != 513 || got[1] != 5 {
		t.Fatalf("power shape %v", got)
	}
	if spec["freqs"].Data[512] != 1250 {
		t.Fatalf("last freq %v", spec["freqs"].Data[512])
	}
}

func TestExtractDefaultsToRecordingDir(t *testing.T) {
	dir := t.TempDir()
	path := writeLF(t, dir)
	if _, err := Extract(context.Background(), path, ExtractOptions{}); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !alf.Exists(dir, "_iblqc_ephysTimeRmsLF", "rms") {
		t.Fatal("rms not written next to the recording")
	}
	if alf.Exists(dir, "_iblqc_ephysSpectralDensityLF", "power") || alf.Exists(dir, "_iblqc_ephysSpectralDensityLF", "freqs") {
		t.Fatal("spectral object written with spectra disabled")
	}
}

func TestExtractIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeLF(t, dir)
	opts := ExtractOptions{Options: Options{Spectra: true}, ReaderOptions: []spikeglx.Option{spikeglx.WithMmap()}}

	first, err := Extract(context.Background(), path, opts)
	if err != nil {
		t.Fatal(err)
	}
	snap := make(map[string][]byte)
	for _, f := range first.Files() {
		b, err := os.ReadFile(f)
		if err != nil {
			t.Fatal(err)
		}
		snap[f] = b
	}

	second, err := Extract(context.Background(), path, opts)
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range second.Files() {
		b, err := os.ReadFile(f)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(b, snap[f]) {
			t.Fatalf("%s changed between runs", f)
		}
	}
}

func TestExtractInputErrors(t *testing.T) {
	t.Run("missing meta", func(t *testing.T) {
		dir := t.TempDir()
		path := writeLF(t, dir)
		if err := os.Remove(spikeglx.MetaPath(path)); err != nil {
			t.Fatal(err)
		}
		outDir := filepath.Join(dir, "out")
		_, err := Extract(context.Background(), path, ExtractOptions{OutDir: outDir})
		if !errors.Is(err, ErrInput) || !errors.Is(err, spikeglx.ErrInvalidRecording) {
			t.Fatalf("err=%v", err)
		}
		if _, statErr := os.Stat(outDir); !os.IsNotExist(statErr) {
			t.Fatalf("output dir created on input error: %v", statErr)
		}
	})

	t.Run("duration below one sample", func(t *testing.T) {
		dir := t.TempDir()
		path := writeLF(t, dir)
		outDir := filepath.Join(dir, "out")
		_, err := Extract(context.Background(), path, ExtractOptions{
			OutDir:  outDir,
			Options: Options{MaxDuration: 1e-4},
		})
		if !errors.Is(err, ErrInput) {
			t.Fatalf("err=%v, want ErrInput", err)
		}
		if alf.Exists(outDir, "_iblqc_ephysTimeRmsLF", "rms") {
			t.Fatal("rms written for an empty selection")
		}
	})

	t.Run("unknown band", func(t *testing.T) {
		_, err := Extract(context.Background(), filepath.Join(t.TempDir(), "run.nidq.bin"), ExtractOptions{})
		if !errors.Is(err, ErrInput) {
			t.Fatalf("err=%v", err)
		}
	})
}

func TestExtractOutputError(t *testing.T) {
	dir := t.TempDir()
	path := writeLF(t, dir)
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Extract(context.Background(), path, ExtractOptions{OutDir: filepath.Join(blocker, "alf")})
	if err == nil || errors.Is(err, ErrInput) {
		t.Fatalf("err=%v, want an I/O error", err)
	}
}

func TestExtractWritesBandAtomically(t *testing.T) {
	blocked := []struct{ object, attr string }{
		{"_iblqc_ephysSpectralDensityLF", "power"},
		{"_iblqc_ephysTimeRmsLF", "timestamps"},
	}
	for _, b := range blocked {
		t.Run(b.object+"."+b.attr, func(t *testing.T) {
			dir := t.TempDir()
			path := writeLF(t, dir)
			outDir := filepath.Join(dir, "alf")
			// A directory cannot be replaced by a file.
			if err := os.MkdirAll(filepath.Join(outDir, alf.FileName(b.object, b.attr, "")), 0o755); err != nil {
				t.Fatal(err)
			}

			_, err := Extract(context.Background(), path, ExtractOptions{
				OutDir:  outDir,
				Options: Options{Spectra: true},
				Logger:  zaptest.NewLogger(t),
			})
			if err == nil {
				t.Fatal("expected commit error")
			}
			files := map[string][]string{
				"_iblqc_ephysTimeRmsLF":         {"rms", "timestamps"},
				"_iblqc_ephysSpectralDensityLF": {"power", "freqs"},
			}
			for object, attrs := range files {
				for _, attr := range attrs {
					if (object != b.object || attr != b.attr) && alf.Exists(outDir, object, attr) {
						t.Fatalf("%s.%s left behind by a failed band", object, attr)
					}
				}
			}
		})
	}
}
