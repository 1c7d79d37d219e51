package lockfile

import (
	"fmt"
	"os"
	"strconv"
)

// Lock is an advisory file lock preventing a second service instance from
// starting against the same state. The file stores the holder pid for
// operator diagnostics only.
type Lock struct {
	path string
}

// Acquire creates the lock file, failing when it already exists.
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("lock file %s exists: another instance is probably running", path)
		}
		return nil, fmt.Errorf("create lock file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(strconv.Itoa(os.Getpid()) + "\n"); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write lock file: %w", err)
	}

	return &Lock{path: path}, nil
}

// Release removes the lock file. Safe to call when the file is already gone.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}
