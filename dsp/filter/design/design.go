package design

import (
	"math"

	"github.com/cwbudde/algo-ephys/dsp/filter/biquad"
)

// ButterworthHighpass1 designs a first-order Butterworth highpass at freq
// (Hz) via the bilinear transform with frequency prewarping. Invalid
// frequencies (<= 0 or >= Nyquist) yield zero coefficients.
func ButterworthHighpass1(freq, sampleRate float64) biquad.Coefficients {
	k, ok := prewarp(freq, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}
	norm := 1 / (1 + k)
	return biquad.Coefficients{
		B0: norm,
		B1: -norm,
		A1: (k - 1) * norm,
	}
}

// ButterworthLowpass1 designs a first-order Butterworth lowpass at freq (Hz).
func ButterworthLowpass1(freq, sampleRate float64) biquad.Coefficients {
	k, ok := prewarp(freq, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}
	norm := 1 / (1 + k)
	return biquad.Coefficients{
		B0: k * norm,
		B1: k * norm,
		A1: (k - 1) * norm,
	}
}

func prewarp(freq, sampleRate float64) (float64, bool) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return 0, false
	}
	if freq <= 0 || freq >= sampleRate/2 || math.IsNaN(freq) {
		return 0, false
	}
	return math.Tan(math.Pi * freq / sampleRate), true
}
