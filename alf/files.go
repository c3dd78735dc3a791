package alf

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileName joins object, attribute and extension ("npy" when empty).
func FileName(object, attribute, ext string) string {
	if ext == "" {
		ext = "npy"
	}
	return object + "." + attribute + "." + strings.TrimPrefix(ext, ".")
}

// SaveObject writes every attribute of object into dir, creating dir if
// needed. Existing files of the same name are replaced. It returns the
// written paths sorted by name. See SaveObjects for the failure guarantee.
func SaveObject(dir, object string, attrs map[string]Array) ([]string, error) {
	paths, err := SaveObjects(dir, map[string]map[string]Array{object: attrs})
	if err != nil {
		return nil, err
	}
	return paths[object], nil
}

// SaveObjects writes several objects into dir as one unit. Every file is
// first staged under a temporary name; the targets are then swapped in one
// by one, keeping any file they replace as a backup. If a write or a swap
// fails, swapped files are removed, backups are restored and dir is left as
// it was. The returned paths are keyed by object and sorted by name.
func SaveObjects(dir string, objects map[string]map[string]Array) (map[string][]string, error) {
	if len(objects) == 0 {
		return nil, fmt.Errorf("alf: no objects to save")
	}
	objectNames := sortedKeys(objects)
	for _, object := range objectNames {
		if len(objects[object]) == 0 {
			return nil, fmt.Errorf("alf: object %q has no attributes", object)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("alf: create %s: %w", dir, err)
	}

	unlock, err := Lock(dir)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var files []stagedFile
	for _, object := range objectNames {
		attrs := objects[object]
		for _, name := range sortedKeys(attrs) {
			base := FileName(object, name, "npy")
			tmp, err := writeTemp(dir, base, attrs[name])
			if err != nil {
				rollback(files)
				return nil, fmt.Errorf("alf: write %s.%s: %w", object, name, err)
			}
			files = append(files, stagedFile{
				object: object,
				tmp:    tmp,
				path:   filepath.Join(dir, base),
			})
		}
	}

	if err := commit(dir, files); err != nil {
		return nil, err
	}
	paths := make(map[string][]string, len(objectNames))
	for _, f := range files {
		paths[f.object] = append(paths[f.object], f.path)
	}
	return paths, nil
}

type stagedFile struct {
	object string
	tmp    string
	path   string
	backup string
	done   bool
}

// commit swaps staged files into place. On failure everything already
// swapped is undone.
func commit(dir string, files []stagedFile) error {
	for i := range files {
		f := &files[i]
		if _, err := os.Lstat(f.path); err == nil {
			bak, err := reserveTemp(dir, "."+filepath.Base(f.path)+".*.bak")
			if err != nil {
				rollback(files)
				return fmt.Errorf("alf: back up %s: %w", f.path, err)
			}
			if err := os.Rename(f.path, bak); err != nil {
				_ = os.Remove(bak)
				rollback(files)
				return fmt.Errorf("alf: back up %s: %w", f.path, err)
			}
			f.backup = bak
		}
		if err := os.Rename(f.tmp, f.path); err != nil {
			rollback(files)
			return fmt.Errorf("alf: commit %s: %w", f.path, err)
		}
		f.done = true
	}
	for _, f := range files {
		if f.backup != "" {
			_ = os.Remove(f.backup)
		}
	}
	return nil
}

// rollback undoes a partial commit in reverse order and drops staged files.
func rollback(files []stagedFile) {
	for i := len(files) - 1; i >= 0; i-- {
		f := files[i]
		if f.done {
			_ = os.Remove(f.path)
		} else {
			_ = os.Remove(f.tmp)
		}
		if f.backup != "" {
			_ = os.Rename(f.backup, f.path)
		}
	}
}

func reserveTemp(dir, pattern string) (string, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", err
	}
	return name, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeTemp(dir, name string, arr Array) (string, error) {
	f, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", err
	}
	if err := WriteNPY(f, arr); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// LoadFile reads a single .npy file.
func LoadFile(path string) (Array, error) {
	f, err := os.Open(path)
	if err != nil {
		return Array{}, err
	}
	defer f.Close()

	arr, err := ReadNPY(f)
	if err != nil {
		return Array{}, fmt.Errorf("%s: %w", path, err)
	}
	return arr, nil
}

// LoadObject reads every object.*.npy file in dir keyed by attribute.
// Attributes with extra dot-separated parts (e.g. a revision) keep them in
// the key.
func LoadObject(dir, object string) (map[string]Array, error) {
	matches, err := filepath.Glob(filepath.Join(dir, globEscape(object)+".*.npy"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, object, dir)
	}
	out := make(map[string]Array, len(matches))
	for _, m := range matches {
		attr := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), object+"."), ".npy")
		arr, err := LoadFile(m)
		if err != nil {
			return nil, err
		}
		out[attr] = arr
	}
	return out, nil
}

// Exists reports whether object.attribute.npy is present in dir.
func Exists(dir, object, attribute string) bool {
	_, err := os.Stat(filepath.Join(dir, FileName(object, attribute, "npy")))
	return err == nil
}

func globEscape(s string) string {
	r := strings.NewReplacer(`[`, `\[`, `*`, `\*`, `?`, `\?`)
	return r.Replace(s)
}
