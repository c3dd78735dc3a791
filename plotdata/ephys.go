package plotdata

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// LFPBand is a frequency band summarised on the probe view.
type LFPBand struct {
	Lo, Hi float64
}

// Name labels the band, e.g. "4 - 10 Hz".
func (b LFPBand) Name() string { return fmt.Sprintf("%g - %g Hz", b.Lo, b.Hi) }

// LFPBands are the bands LFPSpectrum maps onto the probe.
var LFPBands = []LFPBand{{0, 4}, {4, 10}, {10, 30}, {30, 80}, {80, 200}}

const lfpMaxFreq = 300

// RMSImageProbe builds the RMS image (time by depth, uV) and the per-bank
// probe map of time-averaged RMS for band "AP" or "LF". Channels sharing
// a depth are averaged and each time row is median-subtracted, then the
// mean of the medians is added back.
func (s *Session) RMSImageProbe(band string) (*Image, *Probe, error) {
	rms, times, xaxis, err := s.loadTimeRMS(band)
	if err != nil {
		return nil, nil, err
	}
	if len(rms) == 0 {
		return nil, nil, ErrNoData
	}
	for _, ci := range s.ChannelInd {
		if ci < 0 || ci >= len(rms[0]) {
			return nil, nil, fmt.Errorf("plotdata: channel index %d outside rms map of %d channels", ci, len(rms[0]))
		}
	}

	taken := make([][]float64, len(rms))
	for t, row := range rms {
		taken[t] = make([]float64, len(s.ChannelInd))
		for i, ci := range s.ChannelInd {
			taken[t][i] = row[ci] * 1e6
		}
	}
	first, second := depthPairs(s.ChannelCoords)
	img := averageDepths(taken, first, second)

	medians := make([]float64, len(img))
	for t, row := range img {
		medians[t] = Quantiles(row, 0.5)[0]
	}
	meanMedian := stat.Mean(medians, nil)
	for t, row := range img {
		for d := range row {
			row[d] += meanMedian - medians[t]
		}
	}

	cmap := "inferno"
	if band == "AP" {
		cmap = "plasma"
	}
	yr := s.channelYRange()
	title := band + " RMS (uV)"
	image := &Image{
		Title:  title,
		XAxis:  xaxis,
		Cmap:   cmap,
		Img:    img,
		Scale:  [2]float64{(last(times) - times[0]) / float64(len(img)), (yr[1] - yr[0]) / float64(len(img[0]))},
		Levels: quantileRange(flatten(img), 0.1, 0.9),
		XRange: Range{times[0], last(times)},
	}

	avg := make([]float64, len(s.ChannelInd))
	for i, ci := range s.ChannelInd {
		col := make([]float64, len(rms))
		for t := range rms {
			col[t] = rms[t][ci]
		}
		avg[i] = stat.Mean(col, nil) * 1e6
	}
	probe := s.probe(avg, title, cmap)
	return image, probe, nil
}

// LFPSpectrum returns the power spectral density image (frequency by
// depth, dB) below 300 Hz and one probe map per LFPBands entry, keyed by
// band name.
func (s *Session) LFPSpectrum() (*Image, map[string]*Probe, error) {
	if s.LFPPower == nil {
		return nil, nil, ErrNoData
	}
	nc := len(s.LFPPower[0])
	for _, ci := range s.ChannelInd {
		if ci < 0 || ci >= nc {
			return nil, nil, fmt.Errorf("plotdata: channel index %d outside spectrum of %d channels", ci, nc)
		}
	}

	var rows [][]float64
	for k, f := range s.LFPFreqs {
		if f < 0 || f >= lfpMaxFreq {
			continue
		}
		row := make([]float64, len(s.ChannelInd))
		for i, ci := range s.ChannelInd {
			row[i] = 10 * math.Log10(s.LFPPower[k][ci])
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, nil, ErrNoData
	}
	first, second := depthPairs(s.ChannelCoords)
	img := averageDepths(rows, first, second)
	yr := s.channelYRange()
	image := &Image{
		Title:  "PSD (dB)",
		XAxis:  "Frequency (Hz)",
		Cmap:   "viridis",
		Img:    img,
		Scale:  [2]float64{lfpMaxFreq / float64(len(img)), (yr[1] - yr[0]) / float64(len(img[0]))},
		Levels: quantileRange(flatten(img), 0.1, 0.9),
		XRange: Range{0, lfpMaxFreq},
	}

	probes := make(map[string]*Probe, len(LFPBands))
	for _, b := range LFPBands {
		avg := make([]float64, len(s.ChannelInd))
		n := 0
		for k, f := range s.LFPFreqs {
			if f < b.Lo || f >= b.Hi {
				continue
			}
			n++
			for i, ci := range s.ChannelInd {
				avg[i] += s.LFPPower[k][ci]
			}
		}
		if n == 0 {
			probes[b.Name()] = nil
			continue
		}
		for i := range avg {
			avg[i] = 10 * math.Log10(avg[i]/float64(n))
		}
		probes[b.Name()] = s.probe(avg, b.Name()+" (dB)", "viridis")
	}
	return image, probes, nil
}

func (s *Session) probe(values []float64, title, cmap string) *Probe {
	banks, scale, offset := ChannelsToBanks(s.ChannelCoords, values)
	return &Probe{
		Title:  title,
		Cmap:   cmap,
		Banks:  banks,
		Scale:  scale,
		Offset: offset,
		Levels: quantileRange(values, 0.1, 0.9),
		XRange: Range{0, NumBanks * BankWidth},
	}
}
