// Package biquad provides biquad (second-order IIR) filter runtime primitives.
//
// A [Section] implements Direct Form II Transposed processing for a single
// second-order section defined by [Coefficients]. First-order filters are
// sections with B2 = A2 = 0. A [Bank] runs one independent section per
// channel over channel-major blocks, carrying state between calls so a long
// recording can be filtered window by window.
//
// This package provides the processing runtime only. Coefficient design
// lives in dsp/filter/design.
package biquad
