/*
cache.go - Read-through LRU cache for the code registry

PURPOSE:
  Code lookups are the hot read on the redemption path and codes are
  immutable after creation, so a small LRU in front of the store
  removes a query per scan without any invalidation concern.

  Misses are NOT cached: an unknown token today may be a code minted
  tomorrow, and negative caching would make a freshly printed batch
  invisible until eviction.
*/
package redeem

import (
	"context"

	lru "github.com/hashicorp/golang-lru"
)

const defaultCacheSize = 4096

// CodeCache is a read-through cache over a CodeLookup, keyed by
// canonical token.
type CodeCache struct {
	next  CodeLookup
	cache *lru.Cache
}

// NewCodeCache wraps next with an LRU of the given size. size <= 0
// uses a default.
func NewCodeCache(next CodeLookup, size int) *CodeCache {
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, _ := lru.New(size)
	return &CodeCache{next: next, cache: cache}
}

func (c *CodeCache) CodeByToken(ctx context.Context, token string) (*Code, error) {
	if v, ok := c.cache.Get(token); ok {
		code := v.(Code)
		return &code, nil
	}
	code, err := c.next.CodeByToken(ctx, token)
	if err != nil || code == nil {
		return code, err
	}
	c.cache.Add(token, *code)
	return code, nil
}

// Len returns the number of cached codes.
func (c *CodeCache) Len() int { return c.cache.Len() }

var _ CodeLookup = (*CodeCache)(nil)
