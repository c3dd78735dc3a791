package alf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileName(t *testing.T) {
	if got := FileName("_iblqc_ephysTimeRmsAP", "rms", ""); got != "_iblqc_ephysTimeRmsAP.rms.npy" {
		t.Fatalf("FileName=%q", got)
	}
	if got := FileName("spikes", "times", ".npy"); got != "spikes.times.npy" {
		t.Fatalf("FileName=%q", got)
	}
}

func TestSaveLoadObject(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "alf")
	rms, _ := Matrix([][]float64{{1, 2}, {3, 4}})
	paths, err := SaveObject(dir, "_iblqc_ephysTimeRmsLF", map[string]Array{
		"rms":        rms,
		"timestamps": Vector([]float64{0, 3}),
	})
	if err != nil {
		t.Fatalf("SaveObject: %v", err)
	}
	if len(paths) != 2 || filepath.Base(paths[0]) != "_iblqc_ephysTimeRmsLF.rms.npy" {
		t.Fatalf("paths=%v", paths)
	}

	obj, err := LoadObject(dir, "_iblqc_ephysTimeRmsLF")
	if err != nil {
		t.Fatalf("LoadObject: %v", err)
	}
	if len(obj) != 2 || obj["rms"].Shape[0] != 2 || obj["timestamps"].Data[1] != 3 {
		t.Fatalf("obj=%+v", obj)
	}
	if obj["rms"].DType != Float32 {
		t.Fatalf("dtype=%q", obj["rms"].DType)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Fatalf("temporary file left behind: %s", e.Name())
		}
	}
}

func TestSaveObjectOverwrites(t *testing.T) {
	dir := t.TempDir()
	if _, err := SaveObject(dir, "obj", map[string]Array{"a": Vector([]float64{1, 2, 3})}); err != nil {
		t.Fatal(err)
	}
	if _, err := SaveObject(dir, "obj", map[string]Array{"a": Vector([]float64{9})}); err != nil {
		t.Fatal(err)
	}
	arr, err := LoadFile(filepath.Join(dir, "obj.a.npy"))
	if err != nil {
		t.Fatal(err)
	}
	if len(arr.Data) != 1 || arr.Data[0] != 9 {
		t.Fatalf("not overwritten: %+v", arr)
	}
}

func TestSaveObjectAllOrNothing(t *testing.T) {
	dir := t.TempDir()
	_, err := SaveObject(dir, "obj", map[string]Array{
		"a": Vector([]float64{1}),
		"b": {Shape: []int{4}, Data: []float64{1}},
	})
	if err == nil {
		t.Fatal("expected error for inconsistent attribute")
	}
	if Exists(dir, "obj", "a") {
		t.Fatal("valid attribute committed despite failure")
	}
}

func TestSaveObjectsRollsBackOnCommitFailure(t *testing.T) {
	dir := t.TempDir()
	if _, err := SaveObject(dir, "a", map[string]Array{"x": Vector([]float64{1, 2})}); err != nil {
		t.Fatal(err)
	}
	// A directory in place of b.y.npy cannot be replaced by a file.
	if err := os.Mkdir(filepath.Join(dir, "b.y.npy"), 0o755); err != nil {
		t.Fatal(err)
	}

	_, err := SaveObjects(dir, map[string]map[string]Array{
		"a": {"x": Vector([]float64{7})},
		"b": {"w": Vector([]float64{3}), "y": Vector([]float64{4})},
	})
	if err == nil {
		t.Fatal("expected commit error")
	}

	arr, err := LoadFile(filepath.Join(dir, "a.x.npy"))
	if err != nil {
		t.Fatalf("previous a.x lost: %v", err)
	}
	if len(arr.Data) != 2 || arr.Data[1] != 2 {
		t.Fatalf("a.x not restored: %+v", arr)
	}
	if Exists(dir, "b", "w") {
		t.Fatal("b.w committed despite failure")
	}
	if fi, err := os.Stat(filepath.Join(dir, "b.y.npy")); err != nil || !fi.IsDir() {
		t.Fatalf("b.y.npy disturbed: %v", err)
	}
	leftovers, _ := filepath.Glob(filepath.Join(dir, ".*.tmp"))
	backups, _ := filepath.Glob(filepath.Join(dir, ".*.bak"))
	if len(leftovers)+len(backups) != 0 {
		t.Fatalf("leftover files %v %v", leftovers, backups)
	}
}

func TestSaveObjectsReturnsPathsPerObject(t *testing.T) {
	dir := t.TempDir()
	paths, err := SaveObjects(dir, map[string]map[string]Array{
		"rms":  {"values": Vector([]float64{1}), "times": Vector([]float64{0})},
		"spec": {"freqs": Vector([]float64{0})},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := paths["rms"]; len(got) != 2 || filepath.Base(got[0]) != "rms.times.npy" {
		t.Fatalf("rms paths %v", got)
	}
	if got := paths["spec"]; len(got) != 1 || !Exists(dir, "spec", "freqs") {
		t.Fatalf("spec paths %v", got)
	}
	if _, err := SaveObjects(dir, nil); err == nil {
		t.Fatal("expected error for no objects")
	}
	if _, err := SaveObjects(dir, map[string]map[string]Array{"empty": {}}); err == nil {
		t.Fatal("expected error for object without attributes")
	}
}

func TestLoadObjectMissing(t *testing.T) {
	if _, err := LoadObject(t.TempDir(), "spikes"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v, want ErrNotFound", err)
	}
}

func TestNPZ(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lfp_corr.npz")
	corr, _ := Matrix([][]float64{{1, 0.5}, {0.5, 1}})
	if err := SaveNPZ(path, map[string]Array{"lfp_corr": corr, "lfp_cov": corr.As(Float64)}); err != nil {
		t.Fatalf("SaveNPZ: %v", err)
	}
	got, err := LoadNPZ(path)
	if err != nil {
		t.Fatalf("LoadNPZ: %v", err)
	}
	if len(got) != 2 || got["lfp_corr"].Data[1] != 0.5 || got["lfp_cov"].DType != Float64 {
		t.Fatalf("got %+v", got)
	}
}

func TestLock(t *testing.T) {
	dir := t.TempDir()
	unlock, err := Lock(dir)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if err := unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}
}
