package augment

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ProgramCache stores compiled expression programs keyed by expression.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// WithProgramCache shares cache between the default formula evaluators.
// Programs bind the resolver's custom functions, so share a cache only between
// resolvers registering the same functions.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *resolverConfig) {
		cfg.programCache = cache
	}
}

// LRUProgramCache is a size bounded ProgramCache.
type LRUProgramCache struct {
	cache *lru.Cache[string, any]
}

// NewLRUProgramCache keeps at most size compiled programs.
func NewLRUProgramCache(size int) (*LRUProgramCache, error) {
	cache, err := lru.New[string, any](size)
	if err != nil {
		return nil, fmt.Errorf("augment: program cache: %w", err)
	}
	return &LRUProgramCache{cache: cache}, nil
}

func (c *LRUProgramCache) Get(key string) (any, bool) {
	return c.cache.Get(key)
}

func (c *LRUProgramCache) Set(key string, value any) {
	c.cache.Add(key, value)
}

// Len reports the number of cached programs.
func (c *LRUProgramCache) Len() int {
	return c.cache.Len()
}

// programKey namespaces cache entries so engines sharing a cache never read
// each other's programs.
func programKey(engine, expr string) string {
	return engine + "\x00" + expr
}
