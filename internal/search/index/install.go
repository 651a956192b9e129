package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/kamusis/pricematch/internal/embeddings"
)

// DefaultLockTimeout bounds how long Install waits for another build to finish.
const DefaultLockTimeout = 30 * time.Second

// LockPath returns the lock file guarding builds of the index in dir.
func LockPath(dir string) string {
	return filepath.Clean(dir) + ".lock"
}

// acquireBuildLock takes the per-index build lock, polling until ctx is done
// or timeout elapses.
func acquireBuildLock(ctx context.Context, dir string, timeout time.Duration) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(filepath.Clean(dir)), 0o755); err != nil {
		return nil, err
	}
	lockPath := LockPath(dir)
	l := flock.New(lockPath)
	deadline := time.Now().Add(timeout)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return nil, fmt.Errorf("cannot acquire index lock: %w", err)
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w (lock: %s)", ErrIndexLocked, lockPath)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
}

// Install builds the index for opts.CatalogDir into a temp dir next to
// opts.OutDir and swaps it into place. Concurrent installs of the same index
// are serialized by a lock file. Vectors of unchanged images are reused from
// the installed index.
func Install(ctx context.Context, prov embeddings.Provider, opts BuildOptions) (*BuildResult, error) {
	if opts.OutDir == "" {
		return nil, fmt.Errorf("out dir is required")
	}
	unlock, err := acquireBuildLock(ctx, opts.OutDir, DefaultLockTimeout)
	if err != nil {
		return nil, err
	}
	defer unlock()

	parent := filepath.Dir(filepath.Clean(opts.OutDir))
	tmpDir, err := os.MkdirTemp(parent, ".index-build-*")
	if err != nil {
		return nil, fmt.Errorf("cannot create temp index dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	buildOpts := opts
	buildOpts.OutDir = tmpDir
	if buildOpts.ReuseDir == "" {
		buildOpts.ReuseDir = opts.OutDir
	}
	res, err := BuildIndex(ctx, prov, buildOpts)
	if err != nil {
		return nil, fmt.Errorf("index build failed: %w", err)
	}
	if err := AtomicSwap(tmpDir, opts.OutDir); err != nil {
		return nil, fmt.Errorf("cannot install index: %w", err)
	}
	return res, nil
}
