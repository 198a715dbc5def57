package assets

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache holds loaded bundles for the process lifetime, keyed by dealer.
// Loads are expensive, so concurrent first requests for the same dealer
// are collapsed into a single load; after that, reads are lock-free on
// the happy path and the bundle is treated as immutable.
type Cache struct {
	loader Loader

	mu      sync.RWMutex
	bundles map[string]*Bundle
	group   singleflight.Group
}

func NewCache(loader Loader) *Cache {
	return &Cache{
		loader:  loader,
		bundles: make(map[string]*Bundle),
	}
}

// Get returns the dealer's bundle, loading it on first access. Failed
// loads are not cached; the next request retries.
func (c *Cache) Get(ctx context.Context, dealer string) (*Bundle, error) {
	dealer = strings.TrimSpace(dealer)

	c.mu.RLock()
	bundle, ok := c.bundles[dealer]
	c.mu.RUnlock()
	if ok {
		return bundle, nil
	}

	v, err, _ := c.group.Do(dealer, func() (any, error) {
		// Re-check under the group: another flight may have stored it
		// between the read above and this call.
		c.mu.RLock()
		cached, ok := c.bundles[dealer]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}

		loaded, err := c.loader.Load(ctx, dealer)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.bundles[dealer] = loaded
		c.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Bundle), nil
}

// Len reports how many dealer bundles are resident.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.bundles)
}
