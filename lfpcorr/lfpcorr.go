// Package lfpcorr computes channel-by-channel correlation and covariance
// of local field potential recordings.
package lfpcorr

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-ephys/alf"
	"github.com/cwbudde/algo-ephys/spikeglx"
)

// FileName is the archive written by Extract.
const FileName = "lfp_corr.npz"

// syncThreshold separates a sync channel (raw counts, factor 1) from
// neural channels in volts.
const syncThreshold = 1

// ErrInput marks recordings that cannot be processed.
var ErrInput = errors.New("lfpcorr: invalid input")

// Recording is a multichannel series readable in channel-major blocks of
// volts.
type Recording interface {
	NumSamples() int
	NumChannels() int
	SampleRate() float64
	ReadSamples(first, last int) ([][]float64, error)
}

// Result holds symmetric nch x nch matrices over the neural channels.
type Result struct {
	Corr *mat.SymDense
	Cov  *mat.SymDense
	// SyncDropped reports whether the last channel was detected as sync
	// and excluded.
	SyncDropped bool
	// First is the first sample used.
	First int
}

// Compute correlates the last maxDuration seconds of rec (everything when
// maxDuration is 0). The last channel is dropped when its maximum exceeds
// 1, which only a sync channel stored in raw counts reaches.
func Compute(rec Recording, maxDuration float64) (*Result, error) {
	ns, nc, fs := rec.NumSamples(), rec.NumChannels(), rec.SampleRate()
	if ns < 2 || nc < 1 || fs <= 0 || maxDuration < 0 {
		return nil, fmt.Errorf("%w: ns=%d nc=%d fs=%v max=%v", ErrInput, ns, nc, fs, maxDuration)
	}
	first := 0
	if maxDuration > 0 {
		first = max(0, ns-int(maxDuration*fs))
	}
	if ns-first < 2 {
		return nil, fmt.Errorf("%w: %d samples are too few to correlate", ErrInput, ns-first)
	}

	block, err := rec.ReadSamples(first, ns)
	if err != nil {
		return nil, fmt.Errorf("lfpcorr: read [%d,%d): %w", first, ns, err)
	}
	res := &Result{First: first}
	if nc > 1 && floats.Max(block[nc-1]) > syncThreshold {
		block = block[:nc-1]
		res.SyncDropped = true
	}

	// Observations are rows and channels are columns.
	n, nch := ns-first, len(block)
	x := mat.NewDense(n, nch, nil)
	for c, row := range block {
		x.SetCol(c, row)
	}
	res.Corr = mat.NewSymDense(nch, nil)
	res.Cov = mat.NewSymDense(nch, nil)
	stat.CorrelationMatrix(res.Corr, x, nil)
	stat.CovarianceMatrix(res.Cov, x, nil)
	return res, nil
}

// ExtractOptions configures Extract.
type ExtractOptions struct {
	OutDir        string // empty means the recording's directory
	MaxDuration   float64
	Logger        *zap.Logger
	ReaderOptions []spikeglx.Option
}

// Extract computes the correlation of the LF binary at path and writes
// lfp_corr.npz holding lfp_corr and lfp_cov as float64 arrays.
func Extract(ctx context.Context, path string, opts ExtractOptions) (string, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	rec, err := spikeglx.Open(path, opts.ReaderOptions...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInput, err)
	}
	res, err := Compute(rec, opts.MaxDuration)
	if cerr := rec.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	if err != nil {
		return "", err
	}

	outDir := opts.OutDir
	if outDir == "" {
		outDir = filepath.Dir(path)
	}
	out := filepath.Join(outDir, FileName)
	if err := alf.SaveNPZ(out, map[string]alf.Array{
		"lfp_corr": symArray(res.Corr),
		"lfp_cov":  symArray(res.Cov),
	}); err != nil {
		return "", err
	}
	logger.Info("lfp correlation written",
		zap.String("path", out),
		zap.Int("channels", res.Corr.SymmetricDim()),
		zap.Bool("sync_dropped", res.SyncDropped),
	)
	return out, nil
}

func symArray(m *mat.SymDense) alf.Array {
	n := m.SymmetricDim()
	data := make([]float64, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			data = append(data, m.At(i, j))
		}
	}
	return alf.Array{Shape: []int{n, n}, Data: data, DType: alf.Float64}
}
