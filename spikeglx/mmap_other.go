//go:build !unix

package spikeglx

import (
	"io"
	"os"
)

func mmapFile(*os.File, int64) (io.ReaderAt, func() error, error) {
	return nil, nil, errMmapUnsupported
}
