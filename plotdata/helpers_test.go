package plotdata

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-ephys/internal/testutil"
)

func TestQuantilesExtremes(t *testing.T) {
	q := Quantiles([]float64{5, 1, math.NaN(), 3}, 0, 1)
	if q[0] != 1 || q[1] != 5 {
		t.Fatalf("quantiles %v, want [1 5]", q)
	}
	if q := Quantiles(nil, 0.5); !math.IsNaN(q[0]) {
		t.Fatalf("empty quantile %v", q)
	}
}

func TestNormalise(t *testing.T) {
	norm, levels := Normalise([]float64{1, 2, 3, 4}, 0, 1)
	testutil.RequireSliceNearlyEqual(t, norm, []float64{0.25, 0.5, 0.75, 1}, 1e-12)
	if levels != (Range{1, 4}) {
		t.Fatalf("levels %v", levels)
	}

	norm, _ = Normalise([]float64{-1, 1}, 0, 1)
	testutil.RequireSliceNearlyEqual(t, norm, []float64{0, 1}, 1e-12)
}

func TestBincount2D(t *testing.T) {
	g := Bincount2D([]float64{0, 0.5, 1.2}, []float64{0, 0, 10}, nil, 1, 10, nil, nil)
	if len(g.X) != 2 || len(g.Y) != 2 {
		t.Fatalf("scales x=%v y=%v", g.X, g.Y)
	}
	if g.Counts[0][0] != 2 || g.Counts[1][1] != 1 || g.Counts[0][1] != 0 {
		t.Fatalf("counts %v", g.Counts)
	}

	w := Bincount2D([]float64{0, 0.5}, []float64{0, 0}, []float64{2, 3}, 1, 10, nil, []float64{0, 5})
	if w.Counts[0][0] != 5 {
		t.Fatalf("weighted counts %v", w.Counts)
	}

	out := Bincount2D([]float64{0, 1}, []float64{0, 100}, nil, 1, 10, nil, []float64{0, 10})
	total := 0.0
	for _, row := range out.Counts {
		for _, v := range row {
			total += v
		}
	}
	if total != 1 {
		t.Fatalf("point outside ylim counted: %v", out.Counts)
	}
}

func TestChannelsToBanks(t *testing.T) {
	coords := [][2]float64{{16, 0}, {0, 0}, {16, 20}, {0, 20}, {0, 40}}
	banks, scale, offset := ChannelsToBanks(coords, []float64{1, 2, 3, 4, 5})
	if len(banks) != 2 {
		t.Fatalf("banks %v", banks)
	}
	testutil.RequireSliceNearlyEqual(t, banks[0], []float64{2, 4, 5}, 0)
	testutil.RequireSliceNearlyEqual(t, banks[1], []float64{1, 3}, 0)
	if scale[0] != [2]float64{BankWidth, 40.0 / 3} || scale[1] != [2]float64{BankWidth, 10} {
		t.Fatalf("scale %v", scale)
	}
	if offset[0] != [2]float64{0, -20} || offset[1] != [2]float64{BankWidth, -20} {
		t.Fatalf("offset %v", offset)
	}
}

func TestDepthPairs(t *testing.T) {
	first, second := depthPairs([][2]float64{{0, 20}, {16, 20}, {0, 0}})
	if len(first) != 2 || first[0] != 2 || second[0] != 2 || first[1] != 0 || second[1] != 1 {
		t.Fatalf("first=%v second=%v", first, second)
	}
}
