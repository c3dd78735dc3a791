// Package design provides digital IIR filter coefficient designers.
//
// The functions in this package produce biquad coefficients consumable by
// dsp/filter/biquad for runtime processing. First-order Butterworth
// sections are returned with B2 = A2 = 0.
package design
