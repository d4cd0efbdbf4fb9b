package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/mhmtszr/concurrent-swiss-map"
)

// activeRoots holds the folder roots claimed by any Organizer in this process.
var activeRoots = csmap.Create[string, struct{}]()

// runGuard enforces at most one organize run per folder root. Roots are
// claimed in-process through activeRoots and, when lockDir is set, across
// processes through an advisory file lock.
type runGuard struct {
	active  *csmap.CsMap[string, struct{}]
	lockDir string
}

func newRunGuard(lockDir string) *runGuard {
	return &runGuard{
		active:  activeRoots,
		lockDir: lockDir,
	}
}

// claim reserves root and returns the release func. ErrRunInProgress is
// returned when root is already claimed here or by another process.
func (g *runGuard) claim(root string) (func(), error) {
	claimed := false
	g.active.SetIf(root, func(_ struct{}, found bool) (struct{}, bool) {
		claimed = !found
		return struct{}{}, !found
	})
	if !claimed {
		return nil, ErrRunInProgress
	}

	if g.lockDir == "" {
		return func() { g.active.Delete(root) }, nil
	}

	lock, err := g.lock(root)
	if err != nil {
		g.active.Delete(root)
		return nil, err
	}
	return func() {
		_ = lock.Unlock()
		g.active.Delete(root)
	}, nil
}

func (g *runGuard) lock(root string) (*flock.Flock, error) {
	if err := os.MkdirAll(g.lockDir, 0755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	sum := sha256.Sum256([]byte(root))
	lock := flock.New(filepath.Join(g.lockDir, hex.EncodeToString(sum[:8])+".lock"))

	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrRunInProgress
	}
	return lock, nil
}

// running reports whether root is currently claimed in this process.
func (g *runGuard) running(root string) bool {
	return g.active.Has(root)
}
