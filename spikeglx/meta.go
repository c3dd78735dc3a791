package spikeglx

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const (
	defaultImecMaxInt = 512
	defaultNidqMaxInt = 32768
	np2Gain           = 80
)

// Meta is the parsed content of a SpikeGLX ".meta" file.
type Meta struct {
	Fields map[string]string

	SampleRate    float64
	NumChannels   int
	FileSizeBytes int64 // -1 when not declared
	TypeThis      string
	AIRangeMax    float64
	MaxInt        float64

	// Per neural channel gains from the imro table, in file channel order.
	APGains []float64
	LFGains []float64
}

// ReadMeta parses the metadata file at path.
func ReadMeta(path string) (*Meta, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open meta: %w", ErrInvalidRecording, err)
	}
	defer f.Close()

	m, err := ParseMeta(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ParseMeta parses key=value metadata lines. A leading '~' on keys is
// stripped. Sample rate and channel count are required.
func ParseMeta(r io.Reader) (*Meta, error) {
	fields := make(map[string]string)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("%w: malformed meta line %q", ErrInvalidRecording, line)
		}
		fields[strings.TrimPrefix(strings.TrimSpace(key), "~")] = strings.TrimSpace(value)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: read meta: %w", ErrInvalidRecording, err)
	}

	m := &Meta{Fields: fields, FileSizeBytes: -1, TypeThis: fields["typeThis"]}

	rateKey, rangeKey, maxIntKey, maxInt := "imSampRate", "imAiRangeMax", "imMaxInt", float64(defaultImecMaxInt)
	if m.TypeThis == "nidq" {
		rateKey, rangeKey, maxIntKey, maxInt = "niSampRate", "niAiRangeMax", "niMaxInt", defaultNidqMaxInt
	}

	var err error
	if m.SampleRate, err = m.requireFloat(rateKey); err != nil {
		return nil, err
	}
	if m.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be > 0: %v", ErrInvalidRecording, m.SampleRate)
	}
	nc, err := m.requireFloat("nSavedChans")
	if err != nil {
		return nil, err
	}
	m.NumChannels = int(nc)
	if m.NumChannels <= 0 || float64(m.NumChannels) != nc {
		return nil, fmt.Errorf("%w: channel count must be a positive integer: %v", ErrInvalidRecording, nc)
	}
	if v, ok := fields["fileSizeBytes"]; ok {
		if m.FileSizeBytes, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, fmt.Errorf("%w: fileSizeBytes: %w", ErrInvalidRecording, err)
		}
	}

	m.AIRangeMax = m.floatOr(rangeKey, 0.6)
	m.MaxInt = m.floatOr(maxIntKey, maxInt)
	if tbl, ok := fields["imroTbl"]; ok {
		if m.APGains, m.LFGains, err = parseImroGains(tbl, m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Meta) requireFloat(key string) (float64, error) {
	v, ok := m.Fields[key]
	if !ok {
		return 0, fmt.Errorf("%w: meta is missing %q", ErrInvalidRecording, key)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: meta %q: %w", ErrInvalidRecording, key, err)
	}
	return f, nil
}

func (m *Meta) floatOr(key string, def float64) float64 {
	if v, ok := m.Fields[key]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// IsNP2 reports whether the probe is a Neuropixels 2.0 variant, whose imro
// entries carry no gain columns.
func (m *Meta) IsNP2() bool {
	switch m.Fields["imDatPrb_type"] {
	case "21", "24", "2003", "2004", "2013", "2014":
		return true
	}
	return m.MaxInt == 8192
}

// parseImroGains reads "(type,n)(chan bank ref apgain lfgain apfilt)..."
// tables. Entries without gain columns fall back to meta-level gains.
func parseImroGains(tbl string, m *Meta) (ap, lf []float64, err error) {
	entries := strings.Split(strings.Trim(tbl, "()"), ")(")
	if len(entries) < 2 {
		return nil, nil, nil
	}
	defAP, defLF := m.floatOr("imChan0apGain", 500), m.floatOr("imChan0lfGain", 250)
	if m.IsNP2() {
		defAP, defLF = m.floatOr("imChan0apGain", np2Gain), m.floatOr("imChan0lfGain", np2Gain)
	}
	for _, e := range entries[1:] {
		cols := strings.Fields(e)
		if len(cols) < 6 || m.IsNP2() {
			ap = append(ap, defAP)
			lf = append(lf, defLF)
			continue
		}
		g1, err1 := strconv.ParseFloat(cols[3], 64)
		g2, err2 := strconv.ParseFloat(cols[4], 64)
		if err := errors.Join(err1, err2); err != nil {
			return nil, nil, fmt.Errorf("%w: imroTbl entry %q: %w", ErrInvalidRecording, e, err)
		}
		ap = append(ap, g1)
		lf = append(lf, g2)
	}
	return ap, lf, nil
}

// channelCounts returns the neural and sync channel counts stored in a file
// of the given band.
func (m *Meta) channelCounts(band BandType) (neural, sync int) {
	if v, ok := m.Fields["snsApLfSy"]; ok {
		parts := strings.Split(v, ",")
		if len(parts) == 3 {
			a, _ := strconv.Atoi(parts[0])
			l, _ := strconv.Atoi(parts[1])
			s, _ := strconv.Atoi(parts[2])
			switch band {
			case BandAP:
				return a, s
			case BandLF:
				return l, s
			}
		}
	}
	if m.NumChannels > 1 {
		return m.NumChannels - 1, 1
	}
	return m.NumChannels, 0
}

// Sample2Volts returns the per-channel factor converting int16 counts to
// volts for a file of the given band. Sync and digital channels get 1.
func (m *Meta) Sample2Volts(band BandType) []float64 {
	out := make([]float64, m.NumChannels)
	for i := range out {
		out[i] = 1
	}
	int2volt := m.AIRangeMax / m.MaxInt

	if m.TypeThis == "nidq" {
		m.nidqFactors(out, int2volt)
		return out
	}

	gains := m.APGains
	if band == BandLF {
		gains = m.LFGains
	}
	neural, _ := m.channelCounts(band)
	for i := 0; i < neural && i < len(out); i++ {
		g := 0.0
		if i < len(gains) {
			g = gains[i]
		}
		if g <= 0 {
			out[i] = int2volt
			continue
		}
		out[i] = int2volt / g
	}
	return out
}

func (m *Meta) nidqFactors(out []float64, int2volt float64) {
	counts := [4]int{}
	if v, ok := m.Fields["snsMnMaXaDw"]; ok {
		for i, p := range strings.SplitN(v, ",", 4) {
			counts[i], _ = strconv.Atoi(strings.TrimSpace(p))
		}
	}
	mn, ma, xa := counts[0], counts[1], counts[2]
	mnGain := m.floatOr("niMNGain", 1)
	maGain := m.floatOr("niMAGain", 1)
	for i := range out {
		switch {
		case i < mn:
			out[i] = int2volt / mnGain
		case i < mn+ma:
			out[i] = int2volt / maGain
		case i < mn+ma+xa:
			out[i] = int2volt
		}
	}
}
