package rmsmap

import (
	"context"
	"errors"
	"fmt"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-ephys/dsp/buffer"
	"github.com/cwbudde/algo-ephys/dsp/filter/biquad"
	"github.com/cwbudde/algo-ephys/dsp/filter/design"
	"github.com/cwbudde/algo-ephys/dsp/segment"
	"github.com/cwbudde/algo-ephys/dsp/spectrum"
	timestats "github.com/cwbudde/algo-ephys/stats/time"
)

const (
	// RMSWindowSeconds is the nominal window duration before power-of-two
	// rounding.
	RMSWindowSeconds = 3
	// WelchSegmentLength is the Welch segment length in samples. Windows
	// shorter than this do not contribute to the spectral sum.
	WelchSegmentLength = 1024
	// HighpassCutoffHz is the corner of the first-order high-pass applied
	// before any statistic.
	HighpassCutoffHz = 1
)

// blocks recycles window buffers across Compute calls.
var blocks = buffer.NewPool()

// ErrInput marks recordings or parameters that cannot be processed.
var ErrInput = errors.New("rmsmap: invalid input")

// Recording is a multichannel series read in channel-major blocks of
// volts.
type Recording interface {
	NumSamples() int
	NumChannels() int
	SampleRate() float64
	// ReadInto fills dst (NumChannels rows of equal length) starting at
	// sample first.
	ReadInto(dst [][]float64, first int) error
}

// Progress receives window counts while Compute runs.
type Progress interface {
	Report(done, total int)
}

// ProgressFunc adapts a function to Progress.
type ProgressFunc func(done, total int)

// Report calls f(done, total).
func (f ProgressFunc) Report(done, total int) { f(done, total) }

// Options configures Compute. Zero values select the package constants.
type Options struct {
	Spectra       bool
	MaxDuration   float64 // seconds from the start; 0 processes everything
	WindowSeconds float64
	WelchSegment  int
	HighpassHz    float64
	Progress      Progress
}

func (o Options) withDefaults() Options {
	if o.WindowSeconds == 0 {
		o.WindowSeconds = RMSWindowSeconds
	}
	if o.WelchSegment == 0 {
		o.WelchSegment = WelchSegmentLength
	}
	if o.HighpassHz == 0 {
		o.HighpassHz = HighpassCutoffHz
	}
	return o
}

// Result holds the noise maps of one recording.
type Result struct {
	// RMS has one row per window and one column per channel.
	RMS [][]float64
	// NumSamples is the length of each window in samples.
	NumSamples []int
	// TimeScale is the start time of each window in seconds.
	TimeScale []float64
	// Spectral is the sum of per-window PSDs, one row per frequency bin and
	// one column per channel. Nil when spectra were not requested.
	Spectral [][]float64
	// FreqScale holds the bin frequencies in Hz. Nil without spectra.
	FreqScale []float64
	// SpectralWindows counts the windows that contributed to Spectral.
	SpectralWindows int
}

// Compute streams rec window by window and returns its RMS map and, when
// requested, its summed power spectral density. Matrices are allocated
// before the first read and the high-pass state is carried across windows.
func Compute(ctx context.Context, rec Recording, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	fs := rec.SampleRate()
	nc := rec.NumChannels()
	ns := rec.NumSamples()

	switch {
	case fs <= 0:
		return nil, fmt.Errorf("%w: sample rate must be > 0: %v", ErrInput, fs)
	case nc <= 0:
		return nil, fmt.Errorf("%w: channel count must be > 0: %d", ErrInput, nc)
	case ns <= 0:
		return nil, fmt.Errorf("%w: recording has no samples (%d)", ErrInput, ns)
	case opts.WindowSeconds < 0 || opts.MaxDuration < 0:
		return nil, fmt.Errorf("%w: durations must be >= 0", ErrInput)
	case opts.HighpassHz <= 0 || opts.HighpassHz >= fs/2:
		return nil, fmt.Errorf("%w: high-pass cutoff %v Hz outside (0, %v)", ErrInput, opts.HighpassHz, fs/2)
	}
	if opts.MaxDuration > 0 {
		ns = min(ns, int(opts.MaxDuration*fs))
		if ns == 0 {
			return nil, fmt.Errorf("%w: max duration %v s is shorter than one sample at %v Hz", ErrInput, opts.MaxDuration, fs)
		}
	}

	gen, err := segment.New(ns, segment.WindowLength(fs, opts.WindowSeconds), 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInput, err)
	}
	nwin := gen.Count()

	var welch *spectrum.Welch
	if opts.Spectra {
		welch, err = spectrum.NewWelch(spectrum.WelchConfig{SegmentLength: opts.WelchSegment}, fs)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInput, err)
		}
	}

	res := &Result{
		RMS:        make([][]float64, nwin),
		NumSamples: make([]int, nwin),
		TimeScale:  gen.TimeScale(fs),
	}
	for i := range res.RMS {
		res.RMS[i] = make([]float64, nc)
	}
	var acc [][]float64
	var psd []float64
	if welch != nil {
		acc = make([][]float64, nc)
		for c := range acc {
			acc[c] = make([]float64, welch.Bins())
		}
		psd = make([]float64, welch.Bins())
	}

	bank := biquad.NewBank(design.ButterworthHighpass1(opts.HighpassHz, fs), nc)
	buf := blocks.Get(nc, min(gen.Length(), ns))
	defer blocks.Put(buf)

	every := min(20, max(nwin/75, 1))
	iw := 0
	for first, last := range gen.FirstLast() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if opts.Progress != nil && iw%every == 0 {
			opts.Progress.Report(iw, nwin)
		}

		n := last - first
		block := buf.Head(n)
		if err := rec.ReadInto(block, first); err != nil {
			return nil, fmt.Errorf("rmsmap: read window %d [%d,%d): %w", iw, first, last, err)
		}
		if err := bank.ProcessBlocks(block); err != nil {
			return nil, err
		}
		timestats.RMSRows(res.RMS[iw], block)
		res.NumSamples[iw] = n

		// Windows shorter than one Welch segment are left out of the sum.
		if welch != nil && n >= welch.SegmentLength() {
			for c := range block {
				if err := welch.PSD(psd, block[c]); err != nil {
					return nil, fmt.Errorf("rmsmap: window %d channel %d: %w", iw, c, err)
				}
				vecmath.AddBlockInPlace(acc[c], psd)
			}
			res.SpectralWindows++
		}
		iw++
	}
	if opts.Progress != nil {
		opts.Progress.Report(nwin, nwin)
	}

	if welch != nil {
		res.FreqScale = welch.Frequencies()
		res.Spectral = transpose(acc, welch.Bins())
	}
	return res, nil
}

// transpose turns nc rows of nbins into nbins rows of nc.
func transpose(rows [][]float64, ncol int) [][]float64 {
	out := make([][]float64, ncol)
	for k := range out {
		out[k] = make([]float64, len(rows))
		for c := range rows {
			out[k][c] = rows[c][k]
		}
	}
	return out
}
