package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cwbudde/algo-ephys/internal/testutil"
	"github.com/cwbudde/algo-ephys/rmsmap"
)

// runCLI executes the root command with a config path that does not exist,
// so defaults apply regardless of the user's environment.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "absent.toml")
	return runCLIWithConfig(t, cfgPath, args...)
}

func runCLIWithConfig(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", cfgPath, "--log-level", "warn"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeLF(t *testing.T) string {
	t.Helper()
	return testutil.WriteSpikeGLX(t, t.TempDir(), testutil.Recording{
		Name:       "run_g0_t0.imec0.lf",
		SampleRate: 2500,
		Data:       testutil.NoisyChannels(5, 4, 10000, 40, 0),
	})
}

func outputLines(s string) []string {
	return strings.Fields(strings.TrimSpace(s))
}

func TestRMSMapCommand(t *testing.T) {
	bin := writeLF(t)
	outDir := t.TempDir()

	out, err := runCLI(t, "rmsmap", "--out", outDir, bin)
	if err != nil {
		t.Fatalf("rmsmap: %v", err)
	}
	files := outputLines(out)
	if len(files) != 4 {
		t.Fatalf("expected 4 files, got %q", out)
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			t.Fatalf("listed file missing: %v", err)
		}
		if filepath.Dir(f) != outDir {
			t.Fatalf("file %s outside %s", f, outDir)
		}
	}

	out, err = runCLI(t, "rmsmap", "--spectra=false", "--out", t.TempDir(), bin)
	if err != nil {
		t.Fatalf("rmsmap without spectra: %v", err)
	}
	if n := len(outputLines(out)); n != 2 {
		t.Fatalf("expected 2 files without spectra, got %d", n)
	}
}

func TestRMSMapCommandRejectsNIDQ(t *testing.T) {
	bin := testutil.WriteSpikeGLX(t, t.TempDir(), testutil.Recording{
		Name:       "run_g0_t0.nidq",
		SampleRate: 1000,
		Data:       testutil.NoisyChannels(1, 2, 100, 10, 0),
	})
	_, err := runCLI(t, "rmsmap", bin)
	if !errors.Is(err, rmsmap.ErrInput) {
		t.Fatalf("expected input error, got %v", err)
	}
}

func TestLFPCorrCommand(t *testing.T) {
	outDir := t.TempDir()
	out, err := runCLI(t, "lfpcorr", "--out", outDir, writeLF(t))
	if err != nil {
		t.Fatalf("lfpcorr: %v", err)
	}
	if got := strings.TrimSpace(out); got != filepath.Join(outDir, "lfp_corr.npz") {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestInfoCommand(t *testing.T) {
	out, err := runCLI(t, "info", "--channels", "2", writeLF(t))
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	for _, want := range []string{"Sample rate", "2500 Hz", "RMS (uV)", "Duration"} {
		if !strings.Contains(out, want) {
			t.Fatalf("info output missing %q:\n%s", want, out)
		}
	}
}

func TestAlignCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, "align", dir)
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	if !strings.Contains(out, "original") || !strings.Contains(out, "No notes for this session") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	out, err = runCLI(t, "align", "--json", dir)
	if err != nil {
		t.Fatalf("align --json: %v", err)
	}
	var doc struct {
		Alignments []string `json:"alignments"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(doc.Alignments) != 1 || doc.Alignments[0] != "original" {
		t.Fatalf("alignments %v", doc.Alignments)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ephysqc.toml")
	if _, err := runCLIWithConfig(t, path, "config", "init"); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("sample not written: %v", err)
	}
	out, err := runCLIWithConfig(t, path, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	var doc struct {
		Exists bool `json:"exists"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil || !doc.Exists {
		t.Fatalf("show output %q err=%v", out, err)
	}
}

func TestInvalidConfigFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[logging]\nformat = \"xml\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLIWithConfig(t, path, "info", "whatever.ap.bin"); err == nil {
		t.Fatal("expected config error")
	}
}
