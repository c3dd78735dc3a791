package kilosort

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-ephys/alf"
)

// ErrInput marks missing or inconsistent Kilosort output.
var ErrInput = errors.New("kilosort: invalid input")

// Model is the subset of a Kilosort output folder needed for ALF export.
type Model struct {
	Params *Params

	SpikeTimes     []float64 // samples
	SpikeTemplates []int
	SpikeClusters  []int
	Amplitudes     []float64

	// Templates are ntemplates x nsamples x nchannels, unwhitened when a
	// whitening_mat_inv.npy is present.
	Templates        [][][]float64
	ChannelPositions [][2]float64
	ChannelMap       []int
}

// Load reads a Kilosort output folder. spike_clusters.npy is optional and
// defaults to the template assignment.
func Load(dir string) (*Model, error) {
	params, err := ReadParams(filepath.Join(dir, "params.py"))
	if err != nil {
		return nil, err
	}
	m := &Model{Params: params}

	load := func(name string) (alf.Array, error) {
		arr, err := alf.LoadFile(filepath.Join(dir, name))
		if err != nil {
			return alf.Array{}, fmt.Errorf("%w: %w", ErrInput, err)
		}
		return arr, nil
	}

	times, err := load("spike_times.npy")
	if err != nil {
		return nil, err
	}
	m.SpikeTimes = times.Data

	tpl, err := load("spike_templates.npy")
	if err != nil {
		return nil, err
	}
	m.SpikeTemplates = toInts(tpl.Data)

	m.SpikeClusters = m.SpikeTemplates
	if _, statErr := os.Stat(filepath.Join(dir, "spike_clusters.npy")); statErr == nil {
		clu, err := load("spike_clusters.npy")
		if err != nil {
			return nil, err
		}
		m.SpikeClusters = toInts(clu.Data)
	}

	amps, err := load("amplitudes.npy")
	if err != nil {
		return nil, err
	}
	m.Amplitudes = amps.Data

	templates, err := load("templates.npy")
	if err != nil {
		return nil, err
	}
	if len(templates.Shape) != 3 {
		return nil, fmt.Errorf("%w: templates.npy has shape %v, want 3-D", ErrInput, templates.Shape)
	}
	m.Templates = split3(templates)

	pos, err := load("channel_positions.npy")
	if err != nil {
		return nil, err
	}
	if len(pos.Shape) != 2 || pos.Shape[1] != 2 {
		return nil, fmt.Errorf("%w: channel_positions.npy has shape %v", ErrInput, pos.Shape)
	}
	m.ChannelPositions = make([][2]float64, pos.Shape[0])
	for i := range m.ChannelPositions {
		m.ChannelPositions[i] = [2]float64{pos.Data[2*i], pos.Data[2*i+1]}
	}

	chmap, err := load("channel_map.npy")
	if err != nil {
		return nil, err
	}
	m.ChannelMap = toInts(chmap.Data)

	if _, statErr := os.Stat(filepath.Join(dir, "whitening_mat_inv.npy")); statErr == nil {
		winv, err := load("whitening_mat_inv.npy")
		if err != nil {
			return nil, err
		}
		if err := m.unwhiten(winv); err != nil {
			return nil, err
		}
	}
	return m, m.validate()
}

func (m *Model) validate() error {
	n := len(m.SpikeTimes)
	if len(m.SpikeTemplates) != n || len(m.SpikeClusters) != n || len(m.Amplitudes) != n {
		return fmt.Errorf("%w: spike arrays differ in length: times=%d templates=%d clusters=%d amplitudes=%d",
			ErrInput, n, len(m.SpikeTemplates), len(m.SpikeClusters), len(m.Amplitudes))
	}
	nch := len(m.ChannelPositions)
	if len(m.ChannelMap) != nch {
		return fmt.Errorf("%w: %d channel positions but %d mapped channels", ErrInput, nch, len(m.ChannelMap))
	}
	for _, tpl := range m.Templates {
		if len(tpl) > 0 && len(tpl[0]) != nch {
			return fmt.Errorf("%w: templates span %d channels, probe has %d", ErrInput, len(tpl[0]), nch)
		}
	}
	for i, t := range m.SpikeTemplates {
		if t < 0 || t >= len(m.Templates) {
			return fmt.Errorf("%w: spike %d references template %d of %d", ErrInput, i, t, len(m.Templates))
		}
	}
	for i, c := range m.SpikeClusters {
		if c < 0 {
			return fmt.Errorf("%w: spike %d has negative cluster %d", ErrInput, i, c)
		}
	}
	return nil
}

// unwhiten multiplies every template by the inverse whitening matrix.
func (m *Model) unwhiten(winv alf.Array) error {
	if len(winv.Shape) != 2 || winv.Shape[0] != winv.Shape[1] {
		return fmt.Errorf("%w: whitening_mat_inv.npy has shape %v", ErrInput, winv.Shape)
	}
	nch := winv.Shape[0]
	for _, tpl := range m.Templates {
		for s, row := range tpl {
			if len(row) != nch {
				return fmt.Errorf("%w: whitening matrix is %dx%d, templates span %d channels", ErrInput, nch, nch, len(row))
			}
			out := make([]float64, nch)
			for j := range out {
				for k, v := range row {
					out[j] += v * winv.Data[k*nch+j]
				}
			}
			tpl[s] = out
		}
	}
	return nil
}

func toInts(data []float64) []int {
	out := make([]int, len(data))
	for i, v := range data {
		out[i] = int(math.Round(v))
	}
	return out
}

func split3(a alf.Array) [][][]float64 {
	nt, ns, nc := a.Shape[0], a.Shape[1], a.Shape[2]
	out := make([][][]float64, nt)
	for t := range out {
		out[t] = make([][]float64, ns)
		for s := range out[t] {
			off := (t*ns + s) * nc
			out[t][s] = a.Data[off : off+nc : off+nc]
		}
	}
	return out
}
