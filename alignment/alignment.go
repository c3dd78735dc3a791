// Package alignment persists the state of a manual probe-to-atlas
// alignment: previous alignments, picked track points, session notes and
// the resulting channel locations, all as JSON files in one folder.
package alignment

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/cwbudde/algo-ephys/alf"
)

// Original names the starting point without a saved alignment.
const Original = "original"

const (
	defaultNotes = "No notes for this session"
	timeLayout   = "2006-01-02T15:04:05"
)

var (
	// ErrNoPicks is returned when no single xyz_picks file matches.
	ErrNoPicks = errors.New("alignment: xyz picks not found")
	// ErrUnknownAlignment is returned for keys that were never saved.
	ErrUnknownAlignment = errors.New("alignment: unknown alignment")
)

// Region is an atlas brain region.
type Region struct {
	ID      int
	Acronym string
}

// Atlas resolves coordinates to brain regions. Coordinates are metres
// relative to bregma.
type Atlas interface {
	Regions(xyz [][3]float64) ([]Region, error)
	// Bregma returns the bregma landmark in atlas micrometres (ML, AP, DV).
	Bregma() [3]float64
}

// Alignment is a pair of matched reference lines: feature positions along
// the probe and their track positions.
type Alignment struct {
	Feature []float64
	Track   []float64
}

// MarshalJSON writes the [feature, track] pair layout.
func (a Alignment) MarshalJSON() ([]byte, error) {
	return json.Marshal([2][]float64{a.Feature, a.Track})
}

// UnmarshalJSON reads the [feature, track] pair layout.
func (a *Alignment) UnmarshalJSON(b []byte) error {
	var pair [2][]float64
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	a.Feature, a.Track = pair[0], pair[1]
	return nil
}

// Store reads and writes the alignment files of one probe folder. Shank 0
// addresses a single-shank probe; shank k > 0 addresses shank k-1 of a
// multi-shank probe.
type Store struct {
	Dir   string
	Shank int
}

func (s Store) suffixed(base string) string {
	if s.Shank == 0 {
		return base + ".json"
	}
	return base + "_shank" + strconv.Itoa(s.Shank-1) + ".json"
}

func (s Store) alignmentsPath() string { return filepath.Join(s.Dir, s.suffixed("prev_alignments")) }
func (s Store) locationsPath() string  { return filepath.Join(s.Dir, s.suffixed("channel_locations")) }

// Alignments returns every saved alignment keyed by its timestamp.
func (s Store) Alignments() (map[string]Alignment, error) {
	b, err := os.ReadFile(s.alignmentsPath())
	if errors.Is(err, os.ErrNotExist) {
		return map[string]Alignment{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := map[string]Alignment{}
	if len(bytes.TrimSpace(b)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("alignment: %s: %w", s.alignmentsPath(), err)
	}
	return out, nil
}

// PreviousAlignments lists saved alignment keys, newest first, followed
// by Original.
func (s Store) PreviousAlignments() ([]string, error) {
	all, err := s.Alignments()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(all)+1)
	for k := range all {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return append(keys, Original), nil
}

// StartingAlignment returns the alignment saved under key, or nil for
// Original.
func (s Store) StartingAlignment(key string) (*Alignment, error) {
	if key == Original {
		return nil, nil
	}
	all, err := s.Alignments()
	if err != nil {
		return nil, err
	}
	a, ok := all[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlignment, key)
	}
	return &a, nil
}

// XYZPicks reads the traced track points and converts them from
// micrometres to metres. Exactly one matching picks file must exist.
func (s Store) XYZPicks() ([][3]float64, error) {
	pattern := "*xyz_picks.json"
	if s.Shank > 0 {
		pattern = "*shank" + strconv.Itoa(s.Shank-1) + "_xyz_picks.json"
	}
	matches, err := filepath.Glob(filepath.Join(s.Dir, pattern))
	if err != nil {
		return nil, err
	}
	if len(matches) != 1 {
		return nil, fmt.Errorf("%w: %d files match %s", ErrNoPicks, len(matches), pattern)
	}
	b, err := os.ReadFile(matches[0])
	if err != nil {
		return nil, err
	}
	var picks struct {
		XYZ [][3]float64 `json:"xyz_picks"`
	}
	if err := json.Unmarshal(b, &picks); err != nil {
		return nil, fmt.Errorf("alignment: %s: %w", matches[0], err)
	}
	for i := range picks.XYZ {
		for j := range picks.XYZ[i] {
			picks.XYZ[i][j] /= 1e6
		}
	}
	return picks.XYZ, nil
}

// SessionNotes returns session_notes.txt or a placeholder when absent.
func (s Store) SessionNotes() (string, error) {
	b, err := os.ReadFile(filepath.Join(s.Dir, "session_notes.txt"))
	if errors.Is(err, os.ErrNotExist) {
		return defaultNotes, nil
	}
	return string(b), err
}

// ChannelCoords loads channels.localCoordinates from the folder.
func (s Store) ChannelCoords() ([][2]float64, error) {
	arr, err := alf.LoadFile(filepath.Join(s.Dir, alf.FileName("channels", "localCoordinates", "npy")))
	if err != nil {
		return nil, err
	}
	if len(arr.Shape) != 2 || arr.Shape[1] != 2 {
		return nil, fmt.Errorf("alignment: channels.localCoordinates has shape %v", arr.Shape)
	}
	out := make([][2]float64, arr.Shape[0])
	for i := range out {
		out[i] = [2]float64{arr.Data[2*i], arr.Data[2*i+1]}
	}
	return out, nil
}

// SaveAlignment adds an alignment keyed by now (second precision) to the
// previous alignments file.
func (s Store) SaveAlignment(a Alignment, now time.Time) (string, error) {
	unlock, err := alf.Lock(s.Dir)
	if err != nil {
		return "", err
	}
	defer unlock()

	all, err := s.Alignments()
	if err != nil {
		return "", err
	}
	key := now.Format(timeLayout)
	all[key] = a
	b, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return "", err
	}
	return key, writeFileAtomic(s.alignmentsPath(), b)
}

// SaveChannelLocations resolves xyz (metres, one per channel) through
// atlas and writes the channel locations file with coordinates in
// micrometres, probe coordinates and region labels.
func (s Store) SaveChannelLocations(atlas Atlas, xyz [][3]float64, coords [][2]float64) error {
	if len(xyz) != len(coords) {
		return fmt.Errorf("alignment: %d channel positions for %d channels", len(xyz), len(coords))
	}
	regions, err := atlas.Regions(xyz)
	if err != nil {
		return fmt.Errorf("alignment: resolve regions: %w", err)
	}
	if len(regions) != len(xyz) {
		return fmt.Errorf("alignment: atlas returned %d regions for %d channels", len(regions), len(xyz))
	}

	type channel struct {
		X             float64 `json:"x"`
		Y             float64 `json:"y"`
		Z             float64 `json:"z"`
		Axial         float64 `json:"axial"`
		Lateral       float64 `json:"lateral"`
		BrainRegionID int     `json:"brain_region_id"`
		BrainRegion   string  `json:"brain_region"`
	}
	var doc orderedObject
	for i := range xyz {
		doc.add("channel_"+strconv.Itoa(i), channel{
			X:             xyz[i][0] * 1e6,
			Y:             xyz[i][1] * 1e6,
			Z:             xyz[i][2] * 1e6,
			Axial:         coords[i][1],
			Lateral:       coords[i][0],
			BrainRegionID: regions[i].ID,
			BrainRegion:   regions[i].Acronym,
		})
	}
	doc.add("origin", map[string][3]float64{"bregma": atlas.Bregma()})

	b, err := doc.marshalIndent()
	if err != nil {
		return err
	}

	unlock, err := alf.Lock(s.Dir)
	if err != nil {
		return err
	}
	defer unlock()
	return writeFileAtomic(s.locationsPath(), b)
}

// Upload writes the channel locations and records the alignment that
// produced them.
func (s Store) Upload(atlas Atlas, a Alignment, xyz [][3]float64, now time.Time) (string, error) {
	coords, err := s.ChannelCoords()
	if err != nil {
		return "", err
	}
	if err := s.SaveChannelLocations(atlas, xyz, coords); err != nil {
		return "", err
	}
	return s.SaveAlignment(a, now)
}

// orderedObject is a JSON object that keeps insertion order.
type orderedObject struct {
	keys   []string
	values []any
}

func (o *orderedObject) add(key string, v any) {
	o.keys = append(o.keys, key)
	o.values = append(o.values, v)
}

func (o *orderedObject) marshalIndent() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteString(",")
		}
		v, err := json.MarshalIndent(o.values[i], "  ", "  ")
		if err != nil {
			return nil, err
		}
		key, _ := json.Marshal(k)
		fmt.Fprintf(&buf, "\n  %s: %s", key, v)
	}
	buf.WriteString("\n}\n")
	return buf.Bytes(), nil
}

func writeFileAtomic(path string, b []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
