package spikeglx

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const bytesPerSample = 2

// Layout describes how samples are ordered in the binary file.
type Layout int

const (
	// SampleMajor interleaves channels: s0c0 s0c1 ... s1c0 (SpikeGLX default).
	SampleMajor Layout = iota
	// ChannelMajor stores each channel contiguously.
	ChannelMajor
)

// Option configures Open.
type Option func(*readerConfig)

type readerConfig struct {
	layout Layout
	mmap   bool
	meta   *Meta
}

// WithLayout selects the on-disk sample ordering.
func WithLayout(l Layout) Option {
	return func(c *readerConfig) {
		c.layout = l
	}
}

// WithMmap memory-maps the binary file where the platform supports it and
// falls back to positional reads elsewhere.
func WithMmap() Option {
	return func(c *readerConfig) {
		c.mmap = true
	}
}

// WithMeta supplies already parsed metadata instead of reading the sidecar.
func WithMeta(m *Meta) Option {
	return func(c *readerConfig) {
		c.meta = m
	}
}

// Reader streams blocks from one recording. It is not safe for concurrent
// use.
type Reader struct {
	path   string
	meta   *Meta
	band   BandType
	layout Layout
	ns     int
	nc     int
	s2v    []float64

	file   *os.File
	src    io.ReaderAt
	unmap  func() error
	mapped bool
	raw    []byte
	closed bool
}

// Open validates the binary file and its metadata and opens it for reading.
// The declared channel count must divide the file size and a declared
// fileSizeBytes must match the actual size.
func Open(path string, opts ...Option) (*Reader, error) {
	var cfg readerConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	meta := cfg.meta
	if meta == nil {
		var err error
		if meta, err = ReadMeta(MetaPath(path)); err != nil {
			return nil, err
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecording, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: stat %s: %w", ErrInvalidRecording, path, err)
	}

	size := info.Size()
	frame := int64(meta.NumChannels * bytesPerSample)
	switch {
	case meta.FileSizeBytes >= 0 && meta.FileSizeBytes != size:
		err = fmt.Errorf("%w: %s: meta declares %d bytes, file has %d", ErrInvalidRecording, path, meta.FileSizeBytes, size)
	case size%frame != 0:
		err = fmt.Errorf("%w: %s: size %d is not a multiple of %d channels x %d bytes", ErrInvalidRecording, path, size, meta.NumChannels, bytesPerSample)
	case size == 0:
		err = fmt.Errorf("%w: %s: no samples", ErrInvalidRecording, path)
	}
	if err != nil {
		f.Close()
		return nil, err
	}

	band := BandFromPath(path)
	r := &Reader{
		path:   path,
		meta:   meta,
		band:   band,
		layout: cfg.layout,
		ns:     int(size / frame),
		nc:     meta.NumChannels,
		s2v:    meta.Sample2Volts(band),
		file:   f,
		src:    f,
	}

	if cfg.mmap {
		src, unmap, err := mmapFile(f, size)
		if err == nil {
			r.src, r.unmap, r.mapped = src, unmap, true
		} else if !errors.Is(err, errMmapUnsupported) {
			f.Close()
			return nil, fmt.Errorf("spikeglx: mmap %s: %w", path, err)
		}
	}
	return r, nil
}

// Path returns the binary file path.
func (r *Reader) Path() string { return r.path }

// Meta returns the parsed metadata.
func (r *Reader) Meta() *Meta { return r.meta }

// Band returns the acquisition band derived from the file name.
func (r *Reader) Band() BandType { return r.band }

// NumSamples returns the number of samples per channel.
func (r *Reader) NumSamples() int { return r.ns }

// NumChannels returns the number of stored channels, sync included.
func (r *Reader) NumChannels() int { return r.nc }

// SampleRate returns the sampling frequency in Hz.
func (r *Reader) SampleRate() float64 { return r.meta.SampleRate }

// Mapped reports whether reads are served from a memory map.
func (r *Reader) Mapped() bool { return r.mapped }

// Sample2Volts returns a copy of the per-channel conversion factors.
func (r *Reader) Sample2Volts() []float64 {
	return append([]float64(nil), r.s2v...)
}

// ReadSamples returns samples [first, last) of every channel in volts,
// channel-major.
func (r *Reader) ReadSamples(first, last int) ([][]float64, error) {
	if err := r.checkRange(first, last); err != nil {
		return nil, err
	}
	n := last - first
	out := make([][]float64, r.nc)
	for c := range out {
		out[c] = make([]float64, n)
	}
	if err := r.ReadInto(out, first); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadInto fills dst, a channel-major block of NumChannels rows of equal
// length, with samples starting at first. Rows are reused as-is.
func (r *Reader) ReadInto(dst [][]float64, first int) error {
	if len(dst) != r.nc {
		return fmt.Errorf("spikeglx: destination has %d channels, recording has %d", len(dst), r.nc)
	}
	n := 0
	if r.nc > 0 {
		n = len(dst[0])
	}
	if err := r.checkRange(first, first+n); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}

	switch r.layout {
	case ChannelMajor:
		buf := r.scratch(n * bytesPerSample)
		for c := range dst {
			off := (int64(c)*int64(r.ns) + int64(first)) * bytesPerSample
			if err := r.readAt(buf, off); err != nil {
				return err
			}
			row, scale := dst[c], r.s2v[c]
			for i := range row {
				row[i] = float64(int16(binary.LittleEndian.Uint16(buf[i*2:]))) * scale
			}
		}
	default:
		buf := r.scratch(n * r.nc * bytesPerSample)
		if err := r.readAt(buf, int64(first)*int64(r.nc)*bytesPerSample); err != nil {
			return err
		}
		pos := 0
		for i := 0; i < n; i++ {
			for c := range dst {
				dst[c][i] = float64(int16(binary.LittleEndian.Uint16(buf[pos:]))) * r.s2v[c]
				pos += bytesPerSample
			}
		}
	}
	return nil
}

func (r *Reader) checkRange(first, last int) error {
	if r.closed {
		return fmt.Errorf("spikeglx: read from closed reader %s", r.path)
	}
	if first < 0 || last < first || last > r.ns {
		return fmt.Errorf("spikeglx: sample range [%d,%d) outside [0,%d)", first, last, r.ns)
	}
	return nil
}

func (r *Reader) scratch(n int) []byte {
	if cap(r.raw) < n {
		r.raw = make([]byte, n)
	}
	return r.raw[:n]
}

func (r *Reader) readAt(buf []byte, off int64) error {
	if _, err := r.src.ReadAt(buf, off); err != nil {
		return fmt.Errorf("spikeglx: read %s at %d: %w", r.path, off, err)
	}
	return nil
}

// Close releases the file and any mapping. It is safe to call more than
// once.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	var errs []error
	if r.unmap != nil {
		errs = append(errs, r.unmap())
	}
	errs = append(errs, r.file.Close())
	return errors.Join(errs...)
}
