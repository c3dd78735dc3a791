package alf

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SaveNPZ writes arrays as an uncompressed NumPy .npz archive, one
// name.npy member per entry. The archive is written to a temporary file
// and renamed into place.
func SaveNPZ(path string, arrays map[string]Array) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("alf: create %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := writeNPZ(f, arrays); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("alf: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func writeNPZ(w io.Writer, arrays map[string]Array) error {
	names := make([]string, 0, len(arrays))
	for name := range arrays {
		names = append(names, name)
	}
	sort.Strings(names)

	zw := zip.NewWriter(w)
	for _, name := range names {
		member, err := zw.CreateHeader(&zip.FileHeader{Name: name + ".npy", Method: zip.Store})
		if err != nil {
			return err
		}
		if err := WriteNPY(member, arrays[name]); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return zw.Close()
}

// LoadNPZ reads every .npy member of an .npz archive keyed by member name
// without the extension.
func LoadNPZ(path string) (map[string]Array, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	out := make(map[string]Array, len(zr.File))
	for _, zf := range zr.File {
		if !strings.HasSuffix(zf.Name, ".npy") {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return nil, err
		}
		arr, err := ReadNPY(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%s[%s]: %w", path, zf.Name, err)
		}
		out[strings.TrimSuffix(zf.Name, ".npy")] = arr
	}
	return out, nil
}
