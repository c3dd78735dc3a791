// Package rmsmap computes time-resolved noise maps of multichannel
// electrophysiology recordings.
//
// A recording is cut into consecutive windows of RMSWindowSeconds rounded
// up to a power of two samples. Each window is high-pass filtered, reduced
// to one RMS value per channel and, optionally, to a Welch power spectral
// density that is summed across windows. Extract persists the result as
// two ALF objects keyed by the acquisition band:
//
//	_iblqc_ephysTimeRms{AP,LF}.rms.npy         nwin x nc
//	_iblqc_ephysTimeRms{AP,LF}.timestamps.npy  nwin
//	_iblqc_ephysSpectralDensity{AP,LF}.power.npy  nfreq x nc
//	_iblqc_ephysSpectralDensity{AP,LF}.freqs.npy  nfreq
package rmsmap
