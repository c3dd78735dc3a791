package testutil

import (
	"os"
	"strings"
	"testing"
)

func TestWriteSpikeGLX(t *testing.T) {
	dir := t.TempDir()
	path := WriteSpikeGLX(t, dir, Recording{
		Name:       "x.imec0.ap",
		SampleRate: 30000,
		Data:       NoisyChannels(1, 3, 10, 100, 0),
	})

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() != 3*10*2 {
		t.Fatalf("bin size=%d want 60", info.Size())
	}

	meta, err := os.ReadFile(strings.TrimSuffix(path, ".bin") + ".meta")
	if err != nil {
		t.Fatalf("read meta: %v", err)
	}
	for _, want := range []string{"nSavedChans=3", "fileSizeBytes=60", "~imroTbl=(0,2)(0 0 0 500 500 1)(1 0 0 500 500 1)"} {
		if !strings.Contains(string(meta), want) {
			t.Fatalf("meta missing %q:\n%s", want, meta)
		}
	}
}

func TestNoisyChannelsDeterministic(t *testing.T) {
	a := NoisyChannels(7, 2, 50, 30, 10)
	b := NoisyChannels(7, 2, 50, 30, 10)
	for c := range a {
		for i := range a[c] {
			if a[c][i] != b[c][i] {
				t.Fatalf("sample [%d][%d] differs: %d vs %d", c, i, a[c][i], b[c][i])
			}
		}
	}
}

func TestSineChannelClamps(t *testing.T) {
	s := SineChannel(100, 10, 1000, 1e6, 0)
	for _, v := range s {
		if v > 32767 || v < -32768 {
			t.Fatalf("value %d out of range", v)
		}
	}
}
