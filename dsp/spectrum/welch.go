package spectrum

import (
	"errors"
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-ephys/dsp/window"
)

// ErrShortInput is returned when a signal is shorter than one segment.
var ErrShortInput = errors.New("spectrum: input shorter than welch segment")

// Detrend selects per-segment trend removal.
type Detrend int

const (
	DetrendConstant Detrend = iota
	DetrendNone
)

// Scaling selects the normalization of the periodogram.
type Scaling int

const (
	// ScalingDensity yields V^2/Hz.
	ScalingDensity Scaling = iota
	// ScalingSpectrum yields V^2.
	ScalingSpectrum
)

// WelchConfig configures a Welch estimator. Zero values pick the defaults
// documented on each field.
type WelchConfig struct {
	SegmentLength int         // default 1024
	Overlap       int         // default SegmentLength/2; negative means 0
	Window        window.Type // periodic form; the zero value selects Hann
	Detrend       Detrend
	Scaling       Scaling
	TwoSided      bool
}

// Welch estimates power spectral density by averaging modified
// periodograms of overlapping segments.
type Welch struct {
	nseg    int
	step    int
	fs      float64
	detrend Detrend
	twoSide bool
	nbins   int
	win     []float64
	scale   float64
	plan    *algofft.Plan[complex128]

	seg    []float64
	buf    []complex128
	re, im []float64
	pow    []float64
}

// NewWelch returns a Welch estimator for sample rate fs.
func NewWelch(cfg WelchConfig, fs float64) (*Welch, error) {
	if fs <= 0 {
		return nil, fmt.Errorf("spectrum: sample rate must be > 0: %f", fs)
	}
	nseg := cfg.SegmentLength
	if nseg == 0 {
		nseg = 1024
	}
	if nseg < 2 {
		return nil, fmt.Errorf("spectrum: welch segment length must be >= 2: %d", nseg)
	}
	overlap := cfg.Overlap
	switch {
	case overlap == 0:
		overlap = nseg / 2
	case overlap < 0:
		overlap = 0
	}
	if overlap >= nseg {
		return nil, fmt.Errorf("spectrum: welch overlap %d must be < segment length %d", overlap, nseg)
	}

	plan, err := algofft.NewPlan64(nseg)
	if err != nil {
		return nil, fmt.Errorf("spectrum: failed to create FFT plan: %w", err)
	}

	wt := cfg.Window
	if wt == window.TypeRectangular {
		wt = window.TypeHann
	}
	win := window.Generate(wt, nseg, window.WithPeriodic())
	var scale float64
	switch cfg.Scaling {
	case ScalingSpectrum:
		sum := 0.0
		for _, v := range win {
			sum += v
		}
		scale = 1 / (sum * sum)
	default:
		energy, err := window.EnergyGain(win)
		if err != nil {
			return nil, err
		}
		scale = 1 / (fs * energy)
	}

	nbins := nseg
	if !cfg.TwoSided {
		nbins = nseg/2 + 1
	}

	return &Welch{
		nseg:    nseg,
		step:    nseg - overlap,
		fs:      fs,
		detrend: cfg.Detrend,
		twoSide: cfg.TwoSided,
		nbins:   nbins,
		win:     win,
		scale:   scale,
		plan:    plan,
		seg:     make([]float64, nseg),
		buf:     make([]complex128, nseg),
		re:      make([]float64, nseg),
		im:      make([]float64, nseg),
		pow:     make([]float64, nseg),
	}, nil
}

// SegmentLength returns the FFT segment length.
func (w *Welch) SegmentLength() int { return w.nseg }

// Bins returns the number of output frequency bins.
func (w *Welch) Bins() int { return w.nbins }

// Frequencies returns the frequency of each output bin in Hz.
func (w *Welch) Frequencies() []float64 {
	return FrequencyScale(w.nseg, w.fs, !w.twoSide)
}

// Segments returns how many segments a signal of n samples is split into.
func (w *Welch) Segments(n int) int {
	if n < w.nseg {
		return 0
	}
	return (n-w.nseg)/w.step + 1
}

// PSD writes the averaged power spectral density of x into dst, which must
// hold Bins() values. Trailing samples that do not fill a segment are
// ignored.
func (w *Welch) PSD(dst, x []float64) error {
	if len(dst) != w.nbins {
		return fmt.Errorf("spectrum: psd destination has %d bins, want %d", len(dst), w.nbins)
	}
	nsegs := w.Segments(len(x))
	if nsegs == 0 {
		return fmt.Errorf("%w: %d < %d", ErrShortInput, len(x), w.nseg)
	}

	clear(dst)
	for s := range nsegs {
		if err := w.periodogram(x[s*w.step : s*w.step+w.nseg]); err != nil {
			return err
		}
		vecmath.AddBlockInPlace(dst, w.pow[:w.nbins])
	}

	norm := w.scale / float64(nsegs)
	for k := range dst {
		dst[k] *= norm
	}
	if !w.twoSide {
		end := w.nbins
		if w.nseg%2 == 0 {
			end-- // Nyquist bin is not doubled
		}
		for k := 1; k < end; k++ {
			dst[k] *= 2
		}
	}
	return nil
}

// periodogram leaves |FFT(w*detrend(seg))|^2 in w.pow.
func (w *Welch) periodogram(seg []float64) error {
	copy(w.seg, seg)
	if w.detrend == DetrendConstant {
		mean := 0.0
		for _, v := range w.seg {
			mean += v
		}
		mean /= float64(len(w.seg))
		for i := range w.seg {
			w.seg[i] -= mean
		}
	}
	if err := window.ApplyCoefficientsInPlace(w.seg, w.win); err != nil {
		return err
	}

	for i, v := range w.seg {
		w.buf[i] = complex(v, 0)
	}
	if err := w.plan.Forward(w.buf, w.buf); err != nil {
		return fmt.Errorf("spectrum: forward FFT failed: %w", err)
	}
	for i, c := range w.buf {
		w.re[i] = real(c)
		w.im[i] = imag(c)
	}
	PowerFromParts(w.pow, w.re, w.im)
	return nil
}
