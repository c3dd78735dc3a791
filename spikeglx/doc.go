// Package spikeglx reads SpikeGLX binary recordings and their sidecar
// metadata.
//
// A recording is a flat file of little-endian int16 samples plus a ".meta"
// text file with the same stem holding key=value pairs (sample rate, channel
// count, file size, gain table). [Open] validates the pair up front and
// returns a [Reader] that serves channel-major blocks scaled to volts.
// Validation failures wrap [ErrInvalidRecording].
package spikeglx
