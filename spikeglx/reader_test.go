package spikeglx

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-ephys/internal/testutil"
)

const countsToVolts = 0.6 / 512 / 500

func writeRecording(t *testing.T, channelMajor bool) (string, [][]int16) {
	t.Helper()
	data := testutil.NoisyChannels(3, 3, 257, 200, 50)
	path := testutil.WriteSpikeGLX(t, t.TempDir(), testutil.Recording{
		Name:         "run_g0_t0.imec0.ap",
		SampleRate:   30000,
		Data:         data,
		ChannelMajor: channelMajor,
	})
	return path, data
}

func checkBlock(t *testing.T, got [][]float64, data [][]int16, first int) {
	t.Helper()
	for c := range got {
		scale := countsToVolts
		if c == len(got)-1 {
			scale = 1
		}
		want := make([]float64, len(got[c]))
		for i := range want {
			want[i] = float64(data[c][first+i]) * scale
		}
		testutil.RequireSliceNearlyEqual(t, got[c], want, 1e-15)
	}
}

func TestReaderLayouts(t *testing.T) {
	for _, tt := range []struct {
		name         string
		channelMajor bool
		opts         []Option
	}{
		{"sample-major", false, nil},
		{"sample-major-mmap", false, []Option{WithMmap()}},
		{"channel-major", true, []Option{WithLayout(ChannelMajor)}},
		{"channel-major-mmap", true, []Option{WithLayout(ChannelMajor), WithMmap()}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			path, data := writeRecording(t, tt.channelMajor)
			r, err := Open(path, tt.opts...)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer r.Close()

			if r.NumSamples() != 257 || r.NumChannels() != 3 || r.SampleRate() != 30000 {
				t.Fatalf("ns=%d nc=%d fs=%v", r.NumSamples(), r.NumChannels(), r.SampleRate())
			}
			if r.Band() != BandAP {
				t.Fatalf("band=%q", r.Band())
			}

			got, err := r.ReadSamples(100, 200)
			if err != nil {
				t.Fatalf("ReadSamples: %v", err)
			}
			checkBlock(t, got, data, 100)

			tail, err := r.ReadSamples(200, 257)
			if err != nil {
				t.Fatalf("ReadSamples tail: %v", err)
			}
			checkBlock(t, tail, data, 200)
		})
	}
}

func TestReaderRange(t *testing.T) {
	path, _ := writeRecording(t, false)
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := r.ReadSamples(200, 300); err == nil {
		t.Fatal("expected out of range error")
	}
	if _, err := r.ReadSamples(-1, 5); err == nil {
		t.Fatal("expected negative start error")
	}
	if err := r.ReadInto(make([][]float64, 2), 0); err == nil {
		t.Fatal("expected channel mismatch error")
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := r.ReadSamples(0, 1); err == nil {
		t.Fatal("expected error after close")
	}
}

func TestOpenValidation(t *testing.T) {
	t.Run("missing meta", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "x.imec0.ap.bin")
		if err := os.WriteFile(path, make([]byte, 12), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Open(path); !errors.Is(err, ErrInvalidRecording) {
			t.Fatalf("err=%v", err)
		}
	})

	t.Run("missing bin", func(t *testing.T) {
		path, _ := writeRecording(t, false)
		if err := os.Remove(path); err != nil {
			t.Fatal(err)
		}
		if _, err := Open(path); !errors.Is(err, ErrInvalidRecording) {
			t.Fatalf("err=%v", err)
		}
	})

	t.Run("declared size mismatch", func(t *testing.T) {
		path, _ := writeRecording(t, false)
		if err := os.Truncate(path, 6*100); err != nil {
			t.Fatal(err)
		}
		if _, err := Open(path); !errors.Is(err, ErrInvalidRecording) {
			t.Fatalf("err=%v", err)
		}
	})

	t.Run("partial frame", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "x.imec0.lf.bin")
		if err := os.WriteFile(path, make([]byte, 7), 0o644); err != nil {
			t.Fatal(err)
		}
		meta := &Meta{SampleRate: 2500, NumChannels: 3, FileSizeBytes: -1, AIRangeMax: 0.6, MaxInt: 512}
		if _, err := Open(path, WithMeta(meta)); !errors.Is(err, ErrInvalidRecording) {
			t.Fatalf("err=%v", err)
		}
	})

	t.Run("empty", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "x.imec0.lf.bin")
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			t.Fatal(err)
		}
		meta := &Meta{SampleRate: 2500, NumChannels: 3, FileSizeBytes: -1, AIRangeMax: 0.6, MaxInt: 512}
		if _, err := Open(path, WithMeta(meta)); !errors.Is(err, ErrInvalidRecording) {
			t.Fatalf("err=%v", err)
		}
	})
}

func TestGlobEphysFiles(t *testing.T) {
	root := t.TempDir()
	probe0 := filepath.Join(root, "raw_ephys_data", "probe00")
	probe1 := filepath.Join(root, "raw_ephys_data", "probe01")
	for _, p := range []string{
		filepath.Join(probe0, "run_g0_t0.imec0.ap.bin"),
		filepath.Join(probe0, "run_g0_t0.imec0.lf.bin"),
		filepath.Join(probe1, "run_g0_t0.imec1.ap.bin"),
		filepath.Join(root, "raw_ephys_data", "run_g0_t0.nidq.bin"),
		filepath.Join(probe1, "notes.txt"),
	} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := GlobEphysFiles(root)
	if err != nil {
		t.Fatalf("GlobEphysFiles: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d groups: %+v", len(got), got)
	}
	if got[0].NIDQ == "" || got[0].Label != "" {
		t.Fatalf("first group should be nidq: %+v", got[0])
	}
	if got[1].Label != "imec0" || got[1].AP == "" || got[1].LF == "" {
		t.Fatalf("imec0 group: %+v", got[1])
	}
	if got[2].Label != "imec1" || got[2].AP == "" || got[2].LF != "" {
		t.Fatalf("imec1 group: %+v", got[2])
	}
}
