package shared

import (
	"fmt"
	"path/filepath"
	"sync"
)

const pathBusyErrorTemplateConstant = "operation already in progress for %s"

// PathBusyError reports that another operation holds the lock for a path.
type PathBusyError struct {
	Path string
}

// Error describes the conflict.
func (busyError PathBusyError) Error() string {
	return fmt.Sprintf(pathBusyErrorTemplateConstant, busyError.Path)
}

// PathLocker grants exclusive, non-blocking ownership of repository paths so that
// git commands for one working tree never interleave.
type PathLocker struct {
	mutex  sync.Mutex
	active map[string]struct{}
}

// NewPathLocker constructs an empty PathLocker.
func NewPathLocker() *PathLocker {
	return &PathLocker{active: map[string]struct{}{}}
}

// TryLock acquires the path or returns PathBusyError. The returned release function is idempotent.
func (locker *PathLocker) TryLock(path string) (func(), error) {
	key := filepath.Clean(path)

	locker.mutex.Lock()
	defer locker.mutex.Unlock()
	if _, busy := locker.active[key]; busy {
		return nil, PathBusyError{Path: key}
	}
	locker.active[key] = struct{}{}

	var releaseOnce sync.Once
	return func() {
		releaseOnce.Do(func() {
			locker.mutex.Lock()
			delete(locker.active, key)
			locker.mutex.Unlock()
		})
	}, nil
}
