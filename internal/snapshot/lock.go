package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// AcquireBuildLock takes the exclusive build lock in dir so only one index
// build runs at a time. The returned func releases it.
func AcquireBuildLock(dir string, timeout time.Duration) (func(), error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return func() {}, fmt.Errorf("cannot create lock dir %s: %w", dir, err)
	}
	lockPath := filepath.Join(dir, "index.lock")
	l := flock.New(lockPath)
	deadline := time.Now().Add(timeout)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return func() {}, fmt.Errorf("cannot acquire build lock: %w", err)
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return func() {}, fmt.Errorf("another index build is in progress (lock: %s)", lockPath)
		}
		time.Sleep(200 * time.Millisecond)
	}
}
