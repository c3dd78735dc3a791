package plotdata

import (
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	ampBins        = 10
	scatterStride  = 100
	frTimeBin      = 0.05
	frDepthBin     = 5
	lineDepthBin   = 10
	lineMinSpikes  = 50
	corrDepthBin   = 40
	autocorrBin    = 0.25e-3
	autocorrWindow = 10e-3
)

// DepthScatter plots every 100th selected spike at (time, depth),
// coloured and sized by its amplitude bin between the 0 and 0.9
// amplitude quantiles. Spikes outside those bins get colour and size 0.
func (s *Session) DepthScatter() (*Scatter, error) {
	if s.Spikes == nil {
		return nil, ErrNoData
	}
	amps := s.selected(s.Spikes.Amps)
	times := s.selected(s.Spikes.Times)
	depths := s.selected(s.Spikes.Depths)
	ampRange := quantileRange(amps, 0, 0.9)
	edges := linspace(ampRange[0], ampRange[1], ampBins)

	sc := &Scatter{
		Title:  "Amplitude (uV)",
		XAxis:  "Time (s)",
		Cmap:   "BuPu",
		Levels: Range{ampRange[0] * 1e6, ampRange[1] * 1e6},
		Symbol: "o",
	}
	// Every 100th spike, excluding the last one.
	for i := 0; i < len(amps)-1; i += scatterStride {
		colour, size := 0.0, 0.0
		for b := 0; b < ampBins-1; b++ {
			if amps[i] > edges[b] && amps[i] <= edges[b+1] {
				colour = float64(b) / (ampBins - 1)
				size = float64(b) / (ampBins / 4.0)
				break
			}
		}
		sc.X = append(sc.X, times[i])
		sc.Y = append(sc.Y, depths[i])
		sc.Colours = append(sc.Colours, colour)
		sc.Sizes = append(sc.Sizes, size)
	}
	sc.XRange = minMax(sc.X)
	return sc, nil
}

// ClusterAverages holds per-cluster spike means over the selected spikes.
type ClusterAverages struct {
	Clusters []int
	Depths   []float64
	Amps     []float64
	Counts   []float64
}

// ClusterAverages groups the selected spikes by cluster, ascending.
func (s *Session) ClusterAverages() (*ClusterAverages, error) {
	if s.Spikes == nil {
		return nil, ErrNoData
	}
	idx := make(map[int]int)
	ca := &ClusterAverages{}
	for _, i := range s.spikeIdx {
		c := s.Spikes.Clusters[i]
		if _, ok := idx[c]; !ok {
			idx[c] = len(ca.Clusters)
			ca.Clusters = append(ca.Clusters, c)
		}
	}
	sort.Ints(ca.Clusters)
	for k, c := range ca.Clusters {
		idx[c] = k
	}
	n := len(ca.Clusters)
	ca.Depths, ca.Amps, ca.Counts = make([]float64, n), make([]float64, n), make([]float64, n)
	for _, i := range s.spikeIdx {
		k := idx[s.Spikes.Clusters[i]]
		ca.Depths[k] += s.Spikes.Depths[i]
		ca.Amps[k] += s.Spikes.Amps[i]
		ca.Counts[k]++
	}
	for k := range ca.Counts {
		ca.Depths[k] /= ca.Counts[k]
		ca.Amps[k] /= ca.Counts[k]
	}
	return ca, nil
}

// ClusterScatters returns three per-cluster scatters at mean depth:
// firing rate against amplitude, peak-to-trough against amplitude, and
// amplitude against firing rate. The peak-to-trough scatter is nil when
// no cluster object was loaded.
func (s *Session) ClusterScatters() (fr, p2t, amp *Scatter, err error) {
	ca, err := s.ClusterAverages()
	if err != nil {
		return nil, nil, nil, err
	}
	ampsUV := slices.Clone(ca.Amps)
	for i := range ampsUV {
		ampsUV[i] *= 1e6
	}
	rates := slices.Clone(ca.Counts)
	if tmax := maxOf(s.Spikes.Times); tmax > 0 {
		for i := range rates {
			rates[i] /= tmax
		}
	}

	scaled := func(v []float64) Range {
		r := minMax(v)
		return Range{0.9 * r[0], 1.1 * r[1]}
	}
	clusterScatter := func(x, colourData []float64, title, xaxis, cmap string) *Scatter {
		colours, levels := Normalise(colourData, 0, 1)
		return &Scatter{
			Title: title, XAxis: xaxis, Cmap: cmap,
			X: x, Y: ca.Depths, Colours: colours, Sizes: []float64{8},
			Levels: levels, XRange: scaled(x), Pen: "k", Symbol: "o", Cluster: true,
		}
	}

	fr = clusterScatter(ampsUV, rates, "Firing Rate (Sp/s)", "Amplitude (uV)", "hot")
	if s.PeakToTrough != nil {
		vals := make([]float64, len(ca.Clusters))
		for i, c := range ca.Clusters {
			vals[i] = math.NaN()
			if c < len(s.PeakToTrough) {
				vals[i] = s.PeakToTrough[c]
			}
		}
		p2t = clusterScatter(ampsUV, vals, "Peak to Trough duration (ms)", "Amplitude (uV)", "RdYlGn")
	}
	amp = clusterScatter(rates, ampsUV, "Amplitude (uV)", "Firing Rate (Sp/s)", "magma")
	return fr, p2t, amp, nil
}

// FiringRateImage bins selected spikes in 50 ms by 5 um cells and returns
// rates in spikes/s, indexed [time][depth].
func (s *Session) FiringRateImage() (*Image, error) {
	if s.Spikes == nil {
		return nil, ErrNoData
	}
	g := Bincount2D(s.selected(s.Spikes.Times), s.selected(s.Spikes.Depths), nil,
		frTimeBin, frDepthBin, nil, []float64{0, s.maxY})
	img := transposeScaled(g.Counts, 1/frTimeBin)
	if len(img) == 0 || len(g.Y) == 0 {
		return nil, ErrNoData
	}

	means := make([]float64, len(img[0]))
	for _, row := range img {
		for d, v := range row {
			means[d] += v / float64(len(img))
		}
	}
	return &Image{
		Title:  "Firing Rate",
		XAxis:  "Time (s)",
		Cmap:   "binary",
		Img:    img,
		Scale:  [2]float64{(last(g.X) - g.X[0]) / float64(len(img)), (last(g.Y) - g.Y[0]) / float64(len(img[0]))},
		Levels: quantileRange(means, 0, 1),
		XRange: Range{g.X[0], last(g.X)},
	}, nil
}

// FiringRateAmpLines returns depth profiles of mean firing rate and mean
// amplitude (uV) in 10 um bins. Bins with fewer than 50 spikes report an
// amplitude of 0.
func (s *Session) FiringRateAmpLines() (fr, amp *Line, err error) {
	if s.Spikes == nil {
		return nil, nil, ErrNoData
	}
	depths := s.selected(s.Spikes.Depths)
	amps := s.selected(s.Spikes.Amps)
	tmax := maxOf(s.Spikes.Times)
	ones := make([]float64, len(depths))
	for i := range ones {
		ones[i] = 1
	}

	counts := Bincount2D(ones, depths, nil, 1, lineDepthBin, []float64{1, 1}, []float64{0, s.maxY})
	sums := Bincount2D(ones, depths, amps, 1, lineDepthBin, []float64{1, 1}, []float64{0, s.maxY})

	meanFR := make([]float64, len(counts.Y))
	meanAmp := make([]float64, len(counts.Y))
	for d := range counts.Y {
		n := counts.Counts[d][0]
		if tmax > 0 {
			meanFR[d] = n / tmax
		}
		if n >= lineMinSpikes {
			meanAmp[d] = sums.Counts[d][0] / n * 1e6
		}
	}
	fr = &Line{XAxis: "Firing Rate (Sp/s)", X: meanFR, Y: counts.Y, XRange: Range{0, maxOf(meanFR)}}
	amp = &Line{XAxis: "Amplitude (uV)", X: meanAmp, Y: counts.Y, XRange: Range{0, maxOf(meanAmp)}}
	return fr, amp, nil
}

// CorrelationImage correlates spike counts of 40 um depth bins over 50 ms
// time bins. Undefined correlations are 0.
func (s *Session) CorrelationImage() (*Image, error) {
	if s.Spikes == nil {
		return nil, ErrNoData
	}
	g := Bincount2D(s.selected(s.Spikes.Times), s.selected(s.Spikes.Depths), nil,
		frTimeBin, corrDepthBin, nil, []float64{0, s.maxY})
	nd := len(g.Counts)
	if nd == 0 || len(g.X) < 2 {
		return nil, ErrNoData
	}

	// Observations are time bins, variables are depth bins.
	x := mat.NewDense(len(g.X), nd, nil)
	for d, row := range g.Counts {
		x.SetCol(d, row)
	}
	corr := mat.NewSymDense(nd, nil)
	stat.CorrelationMatrix(corr, x, nil)

	img := make([][]float64, nd)
	for i := range img {
		img[i] = make([]float64, nd)
		for j := range img[i] {
			if v := corr.At(i, j); !math.IsNaN(v) {
				img[i][j] = v
			}
		}
	}
	dr := minMax(g.Y)
	scale := (dr[1] - dr[0]) / float64(nd)
	return &Image{
		Title:  "Correlation",
		XAxis:  "Distance from probe tip (um)",
		Cmap:   "viridis",
		Img:    img,
		Scale:  [2]float64{scale, scale},
		Levels: minMax(flatten(img)),
		XRange: s.channelYRange(),
	}, nil
}

// Autocorrelogram counts spike-time differences of one cluster in 0.25 ms
// bins within a 10 ms window centred on zero. Self pairs are excluded.
func (s *Session) Autocorrelogram(cluster int) (lags, counts []float64, err error) {
	if s.Spikes == nil {
		return nil, nil, ErrNoData
	}
	var times []float64
	for i, c := range s.Spikes.Clusters {
		if c == cluster {
			times = append(times, s.Spikes.Times[i])
		}
	}
	sort.Float64s(times)

	half := int(math.Round(autocorrWindow / autocorrBin / 2))
	counts = make([]float64, 2*half+1)
	lags = make([]float64, len(counts))
	for k := range lags {
		lags[k] = float64(k-half) * autocorrBin * 1e3
	}
	for i := range times {
		for j := i + 1; j < len(times); j++ {
			b := int(math.Round((times[j] - times[i]) / autocorrBin))
			if b > half {
				break
			}
			counts[half+b]++
			counts[half-b]++
		}
	}
	return lags, counts, nil
}

func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = lo
		return out
	}
	for i := range out {
		out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return out
}

// transposeScaled turns [y][x] counts into [x][y] values times k.
func transposeScaled(rows [][]float64, k float64) [][]float64 {
	if len(rows) == 0 {
		return nil
	}
	out := make([][]float64, len(rows[0]))
	for x := range out {
		out[x] = make([]float64, len(rows))
		for y := range rows {
			out[x][y] = rows[y][x] * k
		}
	}
	return out
}

func last(v []float64) float64 { return v[len(v)-1] }
