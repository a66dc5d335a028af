package jwks

import (
	"context"
	"crypto/rsa"
	"sync"
	"time"

	errorsx "github.com/grubsnap/identity/internal/errors"
	"golang.org/x/sync/singleflight"
)

// entry is one provider's cached key set.
type entry struct {
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

// Cache holds per-provider key sets with rotation-on-miss: a lookup for an
// unknown key id triggers exactly one fetch per provider regardless of how
// many callers miss concurrently, then retries the lookup once.
type Cache struct {
	fetcher   Fetcher
	endpoints map[string]string // provider -> JWKS URL, fixed at construction

	mu      sync.RWMutex
	entries map[string]*entry

	group singleflight.Group
}

// NewCache creates a Cache over fixed provider endpoints. Endpoints are
// configured here, never taken from tokens, so an attacker cannot point the
// verifier at their own key source.
func NewCache(fetcher Fetcher, endpoints map[string]string) *Cache {
	eps := make(map[string]string, len(endpoints))
	for p, u := range endpoints {
		eps[p] = u
	}
	return &Cache{
		fetcher:   fetcher,
		endpoints: eps,
		entries:   make(map[string]*entry),
	}
}

// Key resolves a provider's public key by key id. On a miss it refetches the
// provider's key set (deduplicated across concurrent callers) and retries
// once; a key still missing after a fresh fetch fails with
// errors.ErrUnknownSigningKey.
func (c *Cache) Key(ctx context.Context, provider, keyID string) (*rsa.PublicKey, error) {
	url, ok := c.endpoints[provider]
	if !ok {
		return nil, errorsx.Wrapf(errorsx.ErrUnknownProvider, "provider %q", provider)
	}

	if key, ok := c.lookup(provider, keyID); ok {
		return key, nil
	}

	// One outstanding fetch per provider; followers wait on its result.
	_, err, _ := c.group.Do(provider, func() (interface{}, error) {
		// A fetch that completed while this caller queued may already
		// hold the key; skip the network round trip then.
		if _, ok := c.lookup(provider, keyID); ok {
			return nil, nil
		}

		keys, err := c.fetcher.Fetch(ctx, url)
		if err != nil {
			// The cache keeps its previous entry; a failed fetch
			// never poisons it with a partial result.
			return nil, err
		}

		c.mu.Lock()
		c.entries[provider] = &entry{keys: keys, fetchedAt: time.Now()}
		c.mu.Unlock()
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	if key, ok := c.lookup(provider, keyID); ok {
		return key, nil
	}
	return nil, errorsx.Wrapf(errorsx.ErrUnknownSigningKey, "provider %q kid %q", provider, keyID)
}

// Clear drops a provider's cached keys, forcing a refetch on next use.
func (c *Cache) Clear(provider string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, provider)
}

func (c *Cache) lookup(provider, keyID string) (*rsa.PublicKey, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[provider]
	if !ok {
		return nil, false
	}
	key, ok := e.keys[keyID]
	return key, ok
}
