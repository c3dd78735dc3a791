// Package spectrum provides spectrum-domain utilities and Welch power
// spectral density estimation.
//
// FFTs are delegated to algo-fft; bin-wise power uses algo-vecmath kernels.
package spectrum
