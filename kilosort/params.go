package kilosort

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Params holds the settings Kilosort writes to params.py.
type Params struct {
	SampleRate  float64
	NumChannels int
	DType       string
	Offset      int
	HPFiltered  bool
	DatPath     string
	Fields      map[string]string
}

// ReadParams parses the python assignments in params.py.
func ReadParams(path string) (*Params, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInput, err)
	}
	defer f.Close()

	p := &Params{Fields: make(map[string]string)}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		p.Fields[strings.TrimSpace(key)] = strings.Trim(strings.TrimSpace(value), `'"`)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	rate, ok := p.Fields["sample_rate"]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no sample_rate", ErrInput, path)
	}
	if p.SampleRate, err = strconv.ParseFloat(rate, 64); err != nil || p.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample_rate %q", ErrInput, rate)
	}
	if v, ok := p.Fields["n_channels_dat"]; ok {
		p.NumChannels, _ = strconv.Atoi(v)
	}
	if v, ok := p.Fields["offset"]; ok {
		p.Offset, _ = strconv.Atoi(v)
	}
	p.DType = p.Fields["dtype"]
	p.HPFiltered = p.Fields["hp_filtered"] == "True"
	p.DatPath = strings.Trim(p.Fields["dat_path"], "[]'\" ")
	return p, nil
}
