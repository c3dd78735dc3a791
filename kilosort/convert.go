package kilosort

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-ephys/alf"
)

// TemplateFeatures summarises one template waveform.
type TemplateFeatures struct {
	Amplitude    float64 // largest peak-to-peak across channels
	PeakChannel  int
	Depth        float64 // ptp^2 weighted mean of channel y positions
	PeakToTrough float64 // ms between trough and peak on the peak channel
}

// Features computes TemplateFeatures for every template.
func (m *Model) Features() []TemplateFeatures {
	out := make([]TemplateFeatures, len(m.Templates))
	for t, tpl := range m.Templates {
		if len(tpl) == 0 {
			out[t] = TemplateFeatures{Depth: math.NaN(), PeakToTrough: math.NaN(), PeakChannel: -1}
			continue
		}
		nch := len(tpl[0])
		var f TemplateFeatures
		var wsum, ysum float64
		for c := 0; c < nch; c++ {
			lo, hi := tpl[0][c], tpl[0][c]
			for _, row := range tpl {
				lo = math.Min(lo, row[c])
				hi = math.Max(hi, row[c])
			}
			ptp := hi - lo
			if ptp > f.Amplitude {
				f.Amplitude, f.PeakChannel = ptp, c
			}
			w := ptp * ptp
			wsum += w
			ysum += w * m.ChannelPositions[c][1]
		}
		f.Depth = math.NaN()
		if wsum > 0 {
			f.Depth = ysum / wsum
		}

		imin, imax := 0, 0
		for s, row := range tpl {
			if row[f.PeakChannel] < tpl[imin][f.PeakChannel] {
				imin = s
			}
			if row[f.PeakChannel] > tpl[imax][f.PeakChannel] {
				imax = s
			}
		}
		f.PeakToTrough = float64(imax-imin) / m.Params.SampleRate * 1000
		out[t] = f
	}
	return out
}

// Options configures Convert.
type Options struct {
	// AmpFactor scales template amplitudes to physical units, typically
	// the recording's first sample-to-volts factor. 0 means 1.
	AmpFactor float64
	Logger    *zap.Logger
}

// Convert writes the spikes, clusters and channels objects of m into
// outDir and returns the written paths.
func Convert(m *Model, outDir string, opts Options) ([]string, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	amp := opts.AmpFactor
	if amp == 0 {
		amp = 1
	}

	feats := m.Features()
	ns := len(m.SpikeTimes)
	times := make([]float64, ns)
	amps := make([]float64, ns)
	depths := make([]float64, ns)
	clusters := make([]float64, ns)
	nclu := 0
	for i := range times {
		f := feats[m.SpikeTemplates[i]]
		times[i] = m.SpikeTimes[i] / m.Params.SampleRate
		amps[i] = m.Amplitudes[i] * f.Amplitude * amp
		depths[i] = f.Depth
		clusters[i] = float64(m.SpikeClusters[i])
		nclu = max(nclu, m.SpikeClusters[i]+1)
	}

	cluDepths, cluAmps, cluP2T, cluChannels := clusterSummaries(m, feats, amps, depths, nclu)

	coords := make([]float64, 0, 2*len(m.ChannelPositions))
	for _, p := range m.ChannelPositions {
		coords = append(coords, p[0], p[1])
	}
	rawInd := make([]float64, len(m.ChannelMap))
	for i, c := range m.ChannelMap {
		rawInd[i] = float64(c)
	}

	objects := []struct {
		name  string
		attrs map[string]alf.Array
	}{
		{"spikes", map[string]alf.Array{
			"times":    alf.Vector(times).As(alf.Float64),
			"clusters": alf.Vector(clusters).As(alf.Int64),
			"amps":     alf.Vector(amps).As(alf.Float64),
			"depths":   alf.Vector(depths).As(alf.Float64),
		}},
		{"clusters", map[string]alf.Array{
			"depths":       alf.Vector(cluDepths).As(alf.Float64),
			"amps":         alf.Vector(cluAmps).As(alf.Float64),
			"peakToTrough": alf.Vector(cluP2T).As(alf.Float64),
			"channels":     alf.Vector(cluChannels).As(alf.Int64),
		}},
		{"channels", map[string]alf.Array{
			"localCoordinates": {Shape: []int{len(m.ChannelPositions), 2}, Data: coords, DType: alf.Float64},
			"rawInd":           alf.Vector(rawInd).As(alf.Int64),
		}},
	}

	var paths []string
	for _, obj := range objects {
		written, err := alf.SaveObject(outDir, obj.name, obj.attrs)
		if err != nil {
			return paths, fmt.Errorf("kilosort: save %s: %w", obj.name, err)
		}
		paths = append(paths, written...)
	}
	logger.Info("kilosort output converted",
		zap.String("dir", outDir),
		zap.Int("spikes", ns),
		zap.Int("clusters", nclu),
		zap.Int("templates", len(m.Templates)),
	)
	return paths, nil
}

// clusterSummaries averages spike amplitudes and depths per cluster and
// takes waveform features from the template most of its spikes use.
// Clusters without spikes get NaN and channel -1.
func clusterSummaries(m *Model, feats []TemplateFeatures, amps, depths []float64, nclu int) (cluDepths, cluAmps, cluP2T, cluChannels []float64) {
	cluDepths = make([]float64, nclu)
	cluAmps = make([]float64, nclu)
	cluP2T = make([]float64, nclu)
	cluChannels = make([]float64, nclu)
	counts := make([]int, nclu)
	votes := make([]map[int]int, nclu)

	for i, c := range m.SpikeClusters {
		counts[c]++
		cluDepths[c] += depths[i]
		cluAmps[c] += amps[i]
		if votes[c] == nil {
			votes[c] = make(map[int]int)
		}
		votes[c][m.SpikeTemplates[i]]++
	}

	for c := range counts {
		if counts[c] == 0 {
			cluDepths[c], cluAmps[c], cluP2T[c], cluChannels[c] = math.NaN(), math.NaN(), math.NaN(), -1
			continue
		}
		cluDepths[c] /= float64(counts[c])
		cluAmps[c] /= float64(counts[c])

		best, bestVotes := -1, 0
		for t, v := range votes[c] {
			if v > bestVotes || (v == bestVotes && t < best) {
				best, bestVotes = t, v
			}
		}
		cluP2T[c] = feats[best].PeakToTrough
		cluChannels[c] = float64(feats[best].PeakChannel)
	}
	return cluDepths, cluAmps, cluP2T, cluChannels
}
