package dubbing

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is created inside a work dir while a run holds it.
const LockFileName = ".redub.lock"

// ErrWorkDirBusy reports that another run holds the work dir lock.
var ErrWorkDirBusy = errors.New("work dir is in use by another run")

// LockWorkDir takes an exclusive, non-blocking lock on dir so two runs never
// share intermediate artifacts. The returned func releases it.
func LockWorkDir(dir string) (func() error, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	lock := flock.New(filepath.Join(dir, LockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWorkDirBusy, dir)
	}
	return lock.Unlock, nil
}
