package plotdata

import (
	"errors"
	"strings"
)

// Kind names a plot record variant.
type Kind string

const (
	KindScatter Kind = "scatter"
	KindImage   Kind = "image"
	KindLine    Kind = "line"
	KindProbe   Kind = "probe"
)

// Record is implemented by every plot record.
type Record interface {
	Kind() Kind
}

// Range is a closed [min, max] interval.
type Range [2]float64

// Scatter is a point cloud, either one point per spike or one per cluster.
type Scatter struct {
	Title string    `json:"title"`
	XAxis string    `json:"xaxis"`
	Cmap  string    `json:"cmap"`
	X     []float64 `json:"x"`
	Y     []float64 `json:"y"`
	// Colours are colour-map positions in [0, 1].
	Colours []float64 `json:"colours"`
	Sizes   []float64 `json:"size"`
	Levels  Range     `json:"levels"`
	XRange  Range     `json:"xrange"`
	Pen     string    `json:"pen,omitempty"`
	Symbol  string    `json:"symbol"`
	Cluster bool      `json:"cluster"`
}

// Image is a 2-D map; Img is indexed [x][y].
type Image struct {
	Title  string      `json:"title"`
	XAxis  string      `json:"xaxis"`
	Cmap   string      `json:"cmap"`
	Img    [][]float64 `json:"img"`
	Scale  [2]float64  `json:"scale"`
	Levels Range       `json:"levels"`
	XRange Range       `json:"xrange"`
}

// Line is a depth profile.
type Line struct {
	XAxis  string    `json:"xaxis"`
	X      []float64 `json:"x"`
	Y      []float64 `json:"y"`
	XRange Range     `json:"xrange"`
}

// Probe draws one image column per probe bank.
type Probe struct {
	Title  string       `json:"title"`
	Cmap   string       `json:"cmap"`
	Banks  [][]float64  `json:"img"`
	Scale  [][2]float64 `json:"scale"`
	Offset [][2]float64 `json:"offset"`
	Levels Range        `json:"levels"`
	XRange Range        `json:"xrange"`
}

func (*Scatter) Kind() Kind { return KindScatter }
func (*Image) Kind() Kind   { return KindImage }
func (*Line) Kind() Kind    { return KindLine }
func (*Probe) Kind() Kind   { return KindProbe }

// Named pairs a record with the panel it feeds.
type Named struct {
	Name   string `json:"name"`
	Kind   Kind   `json:"kind"`
	Record Record `json:"data"`
}

// Records builds every record the session has data for. Builders
// reporting ErrNoData are skipped; other errors abort.
func (s *Session) Records() ([]Named, error) {
	var out []Named
	add := func(name string, r Record) {
		if r == nil || isNilRecord(r) {
			return
		}
		out = append(out, Named{Name: name, Kind: r.Kind(), Record: r})
	}
	skip := func(err error) error {
		if err == nil || errors.Is(err, ErrNoData) {
			return nil
		}
		return err
	}

	depth, err := s.DepthScatter()
	if err := skip(err); err != nil {
		return nil, err
	}
	add("depth_scatter", depth)

	fr, p2t, amp, err := s.ClusterScatters()
	if err := skip(err); err != nil {
		return nil, err
	}
	add("fr_scatter", fr)
	add("p2t_scatter", p2t)
	add("amp_scatter", amp)

	frImg, err := s.FiringRateImage()
	if err := skip(err); err != nil {
		return nil, err
	}
	add("fr_image", frImg)

	frLine, ampLine, err := s.FiringRateAmpLines()
	if err := skip(err); err != nil {
		return nil, err
	}
	add("fr_line", frLine)
	add("amp_line", ampLine)

	corr, err := s.CorrelationImage()
	if err := skip(err); err != nil {
		return nil, err
	}
	add("correlation_image", corr)

	for _, band := range []string{"AP", "LF"} {
		img, probe, err := s.RMSImageProbe(band)
		if err := skip(err); err != nil {
			return nil, err
		}
		add("rms_image_"+strings.ToLower(band), img)
		add("rms_probe_"+strings.ToLower(band), probe)
	}

	psd, bands, err := s.LFPSpectrum()
	if err := skip(err); err != nil {
		return nil, err
	}
	add("lfp_spectrum_image", psd)
	for _, b := range LFPBands {
		add("lfp_probe "+b.Name(), bands[b.Name()])
	}
	return out, nil
}

func isNilRecord(r Record) bool {
	switch v := r.(type) {
	case *Scatter:
		return v == nil
	case *Image:
		return v == nil
	case *Line:
		return v == nil
	case *Probe:
		return v == nil
	}
	return false
}
