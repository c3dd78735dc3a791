package plotdata

import (
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// BankWidth is the horizontal extent of one probe bank.
	BankWidth = 10
	// NumBanks is the number of banks on a probe view.
	NumBanks    = 4
	bankYOffset = 20
)

// Quantiles returns the linearly interpolated quantiles ps of data.
// NaNs are ignored; an empty input yields NaNs.
func Quantiles(data []float64, ps ...float64) []float64 {
	sorted := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	out := make([]float64, len(ps))
	if len(sorted) == 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	sort.Float64s(sorted)
	for i, p := range ps {
		out[i] = stat.Quantile(p, stat.LinInterp, sorted, nil)
	}
	return out
}

func quantileRange(data []float64, lo, hi float64) Range {
	q := Quantiles(data, lo, hi)
	return Range{q[0], q[1]}
}

// Normalise shifts data to be non-negative, scales it by its maximum and
// clamps values outside the [lquant, uquant] quantiles of the result to 0
// and 1. Levels are the quantiles of the original data.
func Normalise(data []float64, lquant, uquant float64) (norm []float64, levels Range) {
	levels = quantileRange(data, lquant, uquant)
	norm = slices.Clone(data)
	if len(norm) == 0 {
		return norm, levels
	}
	if lo := floats.Min(norm); lo < 0 {
		floats.AddConst(-lo, norm)
	}
	if hi := floats.Max(norm); hi != 0 {
		floats.Scale(1/hi, norm)
	}
	nl := quantileRange(norm, lquant, uquant)
	for i, v := range norm {
		switch {
		case v < nl[0]:
			norm[i] = 0
		case v > nl[1]:
			norm[i] = 1
		}
	}
	return norm, levels
}

// Grid is a 2-D histogram; Counts is indexed [y][x].
type Grid struct {
	Counts [][]float64
	X      []float64 // left edge of each x bin
	Y      []float64 // left edge of each y bin
}

// Bincount2D aggregates points into xbin by ybin cells starting at the
// lower limits. Nil limits use the data range. Points outside the limits
// are dropped. With weights, cells hold weight sums instead of counts.
func Bincount2D(x, y, weights []float64, xbin, ybin float64, xlim, ylim []float64) Grid {
	xs := binScale(x, xbin, xlim)
	ys := binScale(y, ybin, ylim)
	g := Grid{Counts: make([][]float64, len(ys)), X: xs, Y: ys}
	for i := range g.Counts {
		g.Counts[i] = make([]float64, len(xs))
	}
	if len(xs) == 0 || len(ys) == 0 {
		return g
	}
	for i := range x {
		xi := int(math.Floor((x[i] - xs[0]) / xbin))
		yi := int(math.Floor((y[i] - ys[0]) / ybin))
		if xi < 0 || xi >= len(xs) || yi < 0 || yi >= len(ys) {
			continue
		}
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		g.Counts[yi][xi] += w
	}
	return g
}

// binScale returns lo, lo+bin, ... up to hi + bin/2.
func binScale(v []float64, bin float64, lim []float64) []float64 {
	if bin <= 0 {
		return nil
	}
	var lo, hi float64
	switch {
	case len(lim) == 2:
		lo, hi = lim[0], lim[1]
	case len(v) > 0:
		lo, hi = floats.Min(v), floats.Max(v)
	default:
		return nil
	}
	n := int(math.Ceil((hi + bin/2 - lo) / bin))
	out := make([]float64, max(n, 0))
	for i := range out {
		out[i] = lo + float64(i)*bin
	}
	return out
}

// ChannelsToBanks splits per-channel values into one column per distinct
// x coordinate, ordered by x. Scale and offset place each column in the
// probe view.
func ChannelsToBanks(coords [][2]float64, data []float64) (banks [][]float64, scale, offset [][2]float64) {
	xs := make([]float64, 0, NumBanks)
	for _, c := range coords {
		if !slices.Contains(xs, c[0]) {
			xs = append(xs, c[0])
		}
	}
	sort.Float64s(xs)

	for ix, x := range xs {
		var vals []float64
		ymin, ymax := math.Inf(1), math.Inf(-1)
		for i, c := range coords {
			if c[0] != x {
				continue
			}
			vals = append(vals, data[i])
			ymin = math.Min(ymin, c[1])
			ymax = math.Max(ymax, c[1])
		}
		banks = append(banks, vals)
		scale = append(scale, [2]float64{BankWidth, (ymax - ymin) / float64(len(vals))})
		offset = append(offset, [2]float64{BankWidth * float64(ix), ymin - bankYOffset})
	}
	return banks, scale, offset
}

// depthPairs returns, for each distinct channel depth in ascending order,
// the index of its first channel and of its partner: the next channel
// when two channels share the depth, the same channel otherwise.
func depthPairs(coords [][2]float64) (first, second []int) {
	idx := make([]int, len(coords))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return coords[idx[a]][1] < coords[idx[b]][1] })

	for i := 0; i < len(idx); {
		j := i
		for j < len(idx) && coords[idx[j]][1] == coords[idx[i]][1] {
			j++
		}
		f := slices.Min(idx[i:j])
		s := f
		if j-i == 2 {
			s = f + 1
		}
		first = append(first, f)
		second = append(second, s)
		i = j
	}
	return first, second
}

// averageDepths averages each row's channel pairs returned by depthPairs.
func averageDepths(rows [][]float64, first, second []int) [][]float64 {
	out := make([][]float64, len(rows))
	for r, row := range rows {
		out[r] = make([]float64, len(first))
		for k := range first {
			out[r][k] = (row[first[k]] + row[second[k]]) / 2
		}
	}
	return out
}

func flatten(rows [][]float64) []float64 {
	var out []float64
	for _, r := range rows {
		out = append(out, r...)
	}
	return out
}

func minMax(v []float64) Range {
	if len(v) == 0 {
		return Range{math.NaN(), math.NaN()}
	}
	return Range{floats.Min(v), floats.Max(v)}
}
