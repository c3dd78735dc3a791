package testutil

import (
	"math"
	"math/rand"
)

// NoisyChannels returns nc channels of ns int16 samples: seeded uniform
// noise of the given amplitude (counts) around a per-channel DC offset of
// offset*channelIndex counts.
func NoisyChannels(seed int64, nc, ns int, amplitude, offset float64) [][]int16 {
	rng := rand.New(rand.NewSource(seed))
	out := make([][]int16, nc)
	for c := range out {
		out[c] = make([]int16, ns)
		dc := offset * float64(c)
		for i := range out[c] {
			out[c][i] = clampInt16(dc + (rng.Float64()*2-1)*amplitude)
		}
	}
	return out
}

// SineChannel returns ns int16 samples of a sine wave in counts.
func SineChannel(ns int, freqHz, sampleRate, amplitude, dc float64) []int16 {
	out := make([]int16, ns)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = clampInt16(dc + amplitude*math.Sin(step*float64(i)))
	}
	return out
}

func clampInt16(v float64) int16 {
	v = math.Round(v)
	switch {
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	}
	return int16(v)
}
