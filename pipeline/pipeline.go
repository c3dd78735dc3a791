// Package pipeline runs the full per-session extraction: spike sorting
// conversion and AP noise maps for every probe with an AP binary, LFP
// correlation and LF noise maps for every probe with an LF binary.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-ephys/kilosort"
	"github.com/cwbudde/algo-ephys/lfpcorr"
	"github.com/cwbudde/algo-ephys/rmsmap"
	"github.com/cwbudde/algo-ephys/spikeglx"
)

// ErrNoRecordings is returned when the ephys folder holds no AP or LF
// binaries.
var ErrNoRecordings = errors.New("pipeline: no ap or lf recordings found")

// Options configures ExtractData.
type Options struct {
	// MaxDuration caps the processed seconds of every recording; 0 means
	// the whole file.
	MaxDuration float64
	// RMS carries window settings for the noise maps. Spectra and
	// MaxDuration are set per band.
	RMS           rmsmap.Options
	Logger        *zap.Logger
	ReaderOptions []spikeglx.Option
	// NewProgress, when set, returns the progress sink for one noise map.
	NewProgress func(path string) rmsmap.Progress
}

// Report lists what ExtractData wrote.
type Report struct {
	Files []string
}

// ExtractData converts the sorting in ksDir and extracts the quality maps
// of every recording under ephysDir into outDir.
func ExtractData(ctx context.Context, ksDir, ephysDir, outDir string, opts Options) (*Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	groups, err := spikeglx.GlobEphysFiles(ephysDir)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoRecordings, ephysDir)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	rep := &Report{}
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		log := logger.With(zap.String("probe", g.Label), zap.String("dir", g.Dir))
		if g.AP != "" {
			if err := extractAP(ctx, ksDir, outDir, g.AP, opts, log, rep); err != nil {
				return rep, err
			}
		}
		if g.LF != "" {
			if err := extractLF(ctx, outDir, g.LF, opts, log, rep); err != nil {
				return rep, err
			}
		}
	}
	return rep, nil
}

func extractAP(ctx context.Context, ksDir, outDir, path string, opts Options, log *zap.Logger, rep *Report) error {
	meta, err := spikeglx.ReadMeta(spikeglx.MetaPath(path))
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	ampFactor := 1.0
	if s2v := meta.Sample2Volts(spikeglx.BandAP); len(s2v) > 0 {
		ampFactor = s2v[0]
	}

	model, err := kilosort.Load(ksDir)
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	files, err := kilosort.Convert(model, outDir, kilosort.Options{AmpFactor: ampFactor, Logger: log})
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	rep.Files = append(rep.Files, files...)

	return extractRMS(ctx, outDir, path, false, opts, log, rep)
}

func extractLF(ctx context.Context, outDir, path string, opts Options, log *zap.Logger, rep *Report) error {
	out, err := lfpcorr.Extract(ctx, path, lfpcorr.ExtractOptions{
		OutDir:        outDir,
		MaxDuration:   opts.MaxDuration,
		Logger:        log,
		ReaderOptions: opts.ReaderOptions,
	})
	if err != nil {
		return err
	}
	rep.Files = append(rep.Files, out)

	return extractRMS(ctx, outDir, path, true, opts, log, rep)
}

func extractRMS(ctx context.Context, outDir, path string, spectra bool, opts Options, log *zap.Logger, rep *Report) error {
	ro := opts.RMS
	ro.Spectra = spectra
	ro.MaxDuration = opts.MaxDuration
	if opts.NewProgress != nil {
		ro.Progress = opts.NewProgress(path)
	}
	out, err := rmsmap.Extract(ctx, path, rmsmap.ExtractOptions{
		OutDir:        outDir,
		Options:       ro,
		Logger:        log,
		ReaderOptions: opts.ReaderOptions,
	})
	if err != nil {
		return err
	}
	rep.Files = append(rep.Files, out.Files()...)
	return nil
}
