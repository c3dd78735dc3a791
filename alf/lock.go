package alf

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

const lockName = ".alf.lock"

// Lock takes an exclusive advisory lock on dir so concurrent writers of
// the same ALF directory serialise. The returned function releases it.
func Lock(dir string) (func() error, error) {
	fl := flock.New(filepath.Join(dir, lockName))
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("alf: lock %s: %w", dir, err)
	}
	return fl.Unlock, nil
}
