package plotdata

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-ephys/alf"
)

// ErrNoData is returned by builders whose source data was not found.
var ErrNoData = errors.New("plotdata: data not available")

// Spikes holds the spikes ALF object.
type Spikes struct {
	Times    []float64
	Depths   []float64
	Amps     []float64
	Clusters []int
}

// Session is the data behind one probe's alignment view.
type Session struct {
	EphysDir string

	ChannelCoords [][2]float64
	ChannelInd    []int

	// Spikes and PeakToTrough are nil when no spike sorting was found.
	Spikes       *Spikes
	PeakToTrough []float64

	// LFPFreqs and LFPPower (nfreq x nc) are nil without a spectral map.
	LFPFreqs []float64
	LFPPower [][]float64

	spikeIdx []int
	maxY     float64
}

// LoadSession reads the channels, spikes and clusters objects from alfDir
// and the LF spectral density from ephysDir. Only channels are required;
// missing optional objects are logged and leave their fields nil.
func LoadSession(alfDir, ephysDir string, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{EphysDir: ephysDir}

	ch, err := alf.LoadObject(alfDir, "channels")
	if err != nil {
		return nil, err
	}
	coords, ok := ch["localCoordinates"]
	if !ok || len(coords.Shape) != 2 || coords.Shape[1] != 2 {
		return nil, fmt.Errorf("plotdata: channels.localCoordinates missing or not n x 2")
	}
	s.ChannelCoords = make([][2]float64, coords.Shape[0])
	s.maxY = math.Inf(-1)
	for i := range s.ChannelCoords {
		s.ChannelCoords[i] = [2]float64{coords.Data[2*i], coords.Data[2*i+1]}
		s.maxY = math.Max(s.maxY, coords.Data[2*i+1])
	}
	s.ChannelInd = make([]int, len(s.ChannelCoords))
	for i := range s.ChannelInd {
		s.ChannelInd[i] = i
	}
	if raw, ok := ch["rawInd"]; ok {
		if len(raw.Data) != len(s.ChannelCoords) {
			return nil, fmt.Errorf("plotdata: %d raw indices for %d channels", len(raw.Data), len(s.ChannelCoords))
		}
		for i, v := range raw.Data {
			s.ChannelInd[i] = int(v)
		}
	}

	if spikes, err := alf.LoadObject(alfDir, "spikes"); err == nil {
		s.Spikes = &Spikes{
			Times:  spikes["times"].Data,
			Depths: spikes["depths"].Data,
			Amps:   spikes["amps"].Data,
		}
		for _, v := range spikes["clusters"].Data {
			s.Spikes.Clusters = append(s.Spikes.Clusters, int(v))
		}
		if err := s.Spikes.validate(); err != nil {
			return nil, err
		}
		s.FilterUnits(nil)
	} else {
		logger.Warn("spike data not found, spike plots disabled", zap.Error(err))
	}

	if clusters, err := alf.LoadObject(alfDir, "clusters"); err == nil {
		s.PeakToTrough = clusters["peakToTrough"].Data
	} else {
		logger.Warn("cluster data not found, cluster plots disabled", zap.Error(err))
	}

	if lfp, err := alf.LoadObject(ephysDir, "_iblqc_ephysSpectralDensityLF"); err == nil {
		power, ok := lfp["power"]
		if !ok {
			power = lfp["amps"]
		}
		if rows, err := power.Rows(); err == nil && len(lfp["freqs"].Data) == len(rows) {
			s.LFPFreqs, s.LFPPower = lfp["freqs"].Data, rows
		} else {
			logger.Warn("lfp spectral density malformed, lfp plots disabled")
		}
	} else {
		logger.Warn("lfp data not found, lfp plots disabled", zap.Error(err))
	}
	return s, nil
}

func (sp *Spikes) validate() error {
	n := len(sp.Times)
	if len(sp.Depths) != n || len(sp.Amps) != n || len(sp.Clusters) != n {
		return fmt.Errorf("plotdata: spike attributes differ in length: times=%d depths=%d amps=%d clusters=%d",
			n, len(sp.Depths), len(sp.Amps), len(sp.Clusters))
	}
	return nil
}

// FilterUnits restricts spike plots to the given clusters; nil selects
// every spike.
func (s *Session) FilterUnits(clusters []int) {
	if s.Spikes == nil {
		return
	}
	keep := make(map[int]bool, len(clusters))
	for _, c := range clusters {
		keep[c] = true
	}
	s.spikeIdx = s.spikeIdx[:0]
	for i, c := range s.Spikes.Clusters {
		if clusters == nil || keep[c] {
			s.spikeIdx = append(s.spikeIdx, i)
		}
	}
}

func (s *Session) selected(v []float64) []float64 {
	out := make([]float64, len(s.spikeIdx))
	for i, idx := range s.spikeIdx {
		out[i] = v[idx]
	}
	return out
}

func (s *Session) channelYRange() Range {
	ys := make([]float64, len(s.ChannelCoords))
	for i, c := range s.ChannelCoords {
		ys[i] = c[1]
	}
	return minMax(ys)
}

// loadTimeRMS reads the RMS map for band ("AP" or "LF") and its
// timestamps. Without timestamps the x axis counts windows.
func (s *Session) loadTimeRMS(band string) (rms [][]float64, times []float64, xaxis string, err error) {
	object := "_iblqc_ephysTimeRms" + band
	arr, err := alf.LoadFile(filepath.Join(s.EphysDir, alf.FileName(object, "rms", "npy")))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = fmt.Errorf("%w: %s: %w", ErrNoData, object, err)
		}
		return nil, nil, "", err
	}
	if rms, err = arr.Rows(); err != nil {
		return nil, nil, "", err
	}
	ts, err := alf.LoadFile(filepath.Join(s.EphysDir, alf.FileName(object, "timestamps", "npy")))
	if err != nil || len(ts.Data) == 0 {
		return rms, []float64{0, float64(len(rms))}, "Time samples", nil
	}
	return rms, ts.Data, "Time (s)", nil
}

func maxOf(v []float64) float64 {
	if len(v) == 0 {
		return math.NaN()
	}
	return floats.Max(v)
}
