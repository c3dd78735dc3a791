package rmsmap

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-ephys/alf"
	"github.com/cwbudde/algo-ephys/spikeglx"
)

const (
	timeObject     = "_iblqc_ephysTimeRms"
	spectralObject = "_iblqc_ephysSpectralDensity"
)

// TimeObject returns the ALF object name of the RMS map for a band.
func TimeObject(band spikeglx.BandType) string { return timeObject + band.Label() }

// SpectralObject returns the ALF object name of the spectral map for a band.
func SpectralObject(band spikeglx.BandType) string { return spectralObject + band.Label() }

// ExtractOptions configures Extract.
type ExtractOptions struct {
	// OutDir receives the ALF files; empty means the recording's directory.
	OutDir string
	Options
	Logger        *zap.Logger
	ReaderOptions []spikeglx.Option
}

// Outputs lists what Extract wrote.
type Outputs struct {
	Band     spikeglx.BandType
	TimeRMS  []string // rms then timestamps
	Spectral []string // freqs then power; empty without spectra
	Result   *Result
}

// Files returns every written path.
func (o *Outputs) Files() []string {
	return append(append([]string(nil), o.TimeRMS...), o.Spectral...)
}

// Extract computes the noise maps of the SpikeGLX AP or LF binary at path
// and writes them as float32 ALF arrays. The recording is closed before
// anything is written; input errors wrap ErrInput and leave no output.
func Extract(ctx context.Context, path string, opts ExtractOptions) (*Outputs, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	band := spikeglx.BandFromPath(path)
	if band != spikeglx.BandAP && band != spikeglx.BandLF {
		return nil, fmt.Errorf("%w: %s is neither an ap nor an lf binary", ErrInput, path)
	}

	rec, err := spikeglx.Open(path, opts.ReaderOptions...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInput, err)
	}
	logger.Debug("recording opened",
		zap.String("path", path),
		zap.String("band", string(band)),
		zap.Int("samples", rec.NumSamples()),
		zap.Int("channels", rec.NumChannels()),
		zap.Float64("sample_rate", rec.SampleRate()),
		zap.Bool("mmap", rec.Mapped()),
	)

	start := time.Now()
	res, err := Compute(ctx, rec, opts.Options)
	if cerr := rec.Close(); cerr != nil {
		err = errors.Join(err, fmt.Errorf("rmsmap: close %s: %w", path, cerr))
	}
	if err != nil {
		return nil, err
	}
	logger.Info("noise map computed",
		zap.String("band", string(band)),
		zap.Int("windows", len(res.RMS)),
		zap.Int("spectral_windows", res.SpectralWindows),
		zap.Duration("elapsed", time.Since(start)),
	)

	outDir := opts.OutDir
	if outDir == "" {
		outDir = filepath.Dir(path)
	}
	out := &Outputs{Band: band, Result: res}

	rms, err := alf.Matrix(res.RMS)
	if err != nil {
		return nil, err
	}
	objects := map[string]map[string]alf.Array{
		TimeObject(band): {
			"rms":        rms,
			"timestamps": alf.Vector(res.TimeScale),
		},
	}
	if opts.Spectra {
		power, err := alf.Matrix(res.Spectral)
		if err != nil {
			return nil, err
		}
		objects[SpectralObject(band)] = map[string]alf.Array{
			"power": power,
			"freqs": alf.Vector(res.FreqScale),
		}
	}

	// Both objects of a band are replaced together or not at all.
	paths, err := alf.SaveObjects(outDir, objects)
	if err != nil {
		return nil, err
	}
	out.TimeRMS = paths[TimeObject(band)]
	out.Spectral = paths[SpectralObject(band)]

	logger.Info("noise map written", zap.String("dir", outDir), zap.Strings("files", out.Files()))
	return out, nil
}
