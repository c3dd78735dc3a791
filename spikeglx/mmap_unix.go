//go:build unix

package spikeglx

import (
	"bytes"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

func mmapFile(f *os.File, size int64) (io.ReaderAt, func() error, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)
	return bytes.NewReader(data), func() error { return unix.Munmap(data) }, nil
}
