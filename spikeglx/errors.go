package spikeglx

import "errors"

var (
	// ErrInvalidRecording marks missing or malformed recordings and metadata.
	ErrInvalidRecording = errors.New("spikeglx: invalid recording")

	errMmapUnsupported = errors.New("spikeglx: mmap not supported on this platform")
)
