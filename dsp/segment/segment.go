package segment

import (
	"fmt"
	"iter"
	"math"
)

// Generator produces window index pairs over a series of ns samples.
type Generator struct {
	ns      int
	nswin   int
	overlap int
	nwin    int
}

// New returns a Generator for ns samples, windows of nswin samples and the
// given overlap in samples.
func New(ns, nswin, overlap int) (*Generator, error) {
	if ns < 0 {
		return nil, fmt.Errorf("segment: sample count must be >= 0: %d", ns)
	}
	if nswin <= 0 {
		return nil, fmt.Errorf("segment: window length must be > 0: %d", nswin)
	}
	if overlap < 0 || overlap >= nswin {
		return nil, fmt.Errorf("segment: overlap must be in [0,%d): %d", nswin, overlap)
	}

	return &Generator{
		ns:      ns,
		nswin:   nswin,
		overlap: overlap,
		nwin:    windowCount(ns, nswin, nswin-overlap),
	}, nil
}

func windowCount(ns, nswin, step int) int {
	switch {
	case ns == 0:
		return 0
	case ns <= nswin:
		return 1
	}
	return (ns-nswin+step-1)/step + 1
}

// Count returns the number of windows.
func (g *Generator) Count() int { return g.nwin }

// Samples returns the total number of samples covered.
func (g *Generator) Samples() int { return g.ns }

// Length returns the nominal window length in samples.
func (g *Generator) Length() int { return g.nswin }

// Step returns the distance in samples between consecutive window starts.
func (g *Generator) Step() int { return g.nswin - g.overlap }

// Bounds returns the sample range of window i. It panics if i is out of range.
func (g *Generator) Bounds(i int) (first, last int) {
	if i < 0 || i >= g.nwin {
		panic(fmt.Sprintf("segment: window index %d out of range [0,%d)", i, g.nwin))
	}
	first = i * g.Step()
	last = min(first+g.nswin, g.ns)
	return first, last
}

// FirstLast yields (first, last) for every window in order.
func (g *Generator) FirstLast() iter.Seq2[int, int] {
	return func(yield func(int, int) bool) {
		for first := 0; first < g.ns; first += g.Step() {
			if !yield(first, min(first+g.nswin, g.ns)) {
				return
			}
			if first+g.nswin >= g.ns {
				return
			}
		}
	}
}

// TimeScale returns the start time in seconds of each window for sample
// rate fs.
func (g *Generator) TimeScale(fs float64) []float64 {
	out := make([]float64, g.nwin)
	step := float64(g.Step())
	for i := range out {
		out[i] = float64(i) * step / fs
	}
	return out
}

// WindowLength returns the smallest power of two that is >= fs*seconds
// samples. Non-positive products yield 1.
func WindowLength(fs, seconds float64) int {
	raw := fs * seconds
	if !(raw > 1) {
		return 1
	}
	return NextPowerOf2(int(math.Ceil(raw)))
}

// NextPowerOf2 returns the smallest power of two >= n.
func NextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p *= 2
	}
	return p
}
