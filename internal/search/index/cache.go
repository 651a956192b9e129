package index

import (
	"context"
	"sync"

	"github.com/kamusis/pricematch/internal/embeddings"
)

// Loader produces a Store. force asks it to rebuild rather than reuse
// whatever it has persisted.
type Loader func(ctx context.Context, force bool) (*Store, error)

// Cache builds a Store at most once per process until invalidated.
// Concurrent callers of Get wait for the first build and share its result.
// Failed builds are not memoized.
type Cache struct {
	load Loader

	mu     sync.Mutex
	store  *Store
	builds int
}

// NewCache returns a Cache around load.
func NewCache(load Loader) *Cache {
	return &Cache{load: load}
}

// Get returns the memoized store, loading it on first use.
func (c *Cache) Get(ctx context.Context) (*Store, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store != nil {
		return c.store, nil
	}
	return c.loadLocked(ctx, false)
}

// Invalidate drops the memoized store; the next Get loads again.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.store = nil
	c.mu.Unlock()
}

// Rebuild forces a fresh load and memoizes the result.
func (c *Cache) Rebuild(ctx context.Context) (*Store, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = nil
	return c.loadLocked(ctx, true)
}

// Builds reports how many loads have succeeded.
func (c *Cache) Builds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.builds
}

func (c *Cache) loadLocked(ctx context.Context, force bool) (*Store, error) {
	s, err := c.load(ctx, force)
	if err != nil {
		return nil, err
	}
	c.store = s
	c.builds++
	return s, nil
}

// StoreLoader returns a Loader that opens the index described by opts and
// converts it to a Store whose sources resolve against opts.CatalogDir.
func StoreLoader(prov embeddings.Provider, opts BuildOptions) Loader {
	return func(ctx context.Context, force bool) (*Store, error) {
		o := opts
		o.Force = o.Force || force
		idx, _, err := Open(ctx, prov, o)
		if err != nil {
			return nil, err
		}
		return idx.Store(opts.CatalogDir)
	}
}
