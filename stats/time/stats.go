// Package time computes time-domain amplitude statistics of sampled signals.
package time

import "math"

// Stats holds time-domain signal statistics.
type Stats struct {
	Length   int
	DC       float64 // mean
	RMS      float64
	Max      float64
	Min      float64
	Peak     float64 // max(|max|, |min|)
	Variance float64
}

// Calculate computes all statistics in a single pass using Welford's online
// algorithm for the variance.
func Calculate(signal []float64) Stats {
	s := NewStreamingStats()
	s.Update(signal)
	return s.Result()
}

// RMS returns the root-mean-square of the signal.
func RMS(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}

	var sumSq float64
	for _, x := range signal {
		sumSq += x * x
	}

	return math.Sqrt(sumSq / float64(len(signal)))
}

// RMSRows writes the RMS of every row of a channel-major block into dst,
// which must have len(block) elements.
func RMSRows(dst []float64, block [][]float64) {
	for i, row := range block {
		dst[i] = RMS(row)
	}
}

// Peak returns the peak absolute amplitude of the signal.
func Peak(signal []float64) float64 {
	peak := 0.0
	for _, x := range signal {
		if a := math.Abs(x); a > peak {
			peak = a
		}
	}

	return peak
}

// StreamingStats accumulates statistics incrementally across multiple
// blocks of samples with results identical to [Calculate] on the
// concatenated input.
type StreamingStats struct {
	n       int
	mean    float64
	m2      float64
	sumSq   float64
	maxVal  float64
	minVal  float64
	hasData bool
}

// NewStreamingStats creates a new StreamingStats accumulator.
func NewStreamingStats() *StreamingStats {
	return &StreamingStats{}
}

// Update adds a block of samples to the running statistics.
func (s *StreamingStats) Update(samples []float64) {
	for _, x := range samples {
		s.n++
		delta := x - s.mean
		s.mean += delta / float64(s.n)
		s.m2 += delta * (x - s.mean)
		s.sumSq += x * x

		if !s.hasData {
			s.maxVal, s.minVal = x, x
			s.hasData = true
			continue
		}
		if x > s.maxVal {
			s.maxVal = x
		}
		if x < s.minVal {
			s.minVal = x
		}
	}
}

// Result computes the final statistics from accumulated data.
func (s *StreamingStats) Result() Stats {
	if s.n == 0 {
		return Stats{}
	}

	nf := float64(s.n)
	return Stats{
		Length:   s.n,
		DC:       s.mean,
		RMS:      math.Sqrt(s.sumSq / nf),
		Max:      s.maxVal,
		Min:      s.minVal,
		Peak:     math.Max(math.Abs(s.maxVal), math.Abs(s.minVal)),
		Variance: s.m2 / nf,
	}
}

// Reset clears accumulated state.
func (s *StreamingStats) Reset() {
	*s = StreamingStats{}
}
