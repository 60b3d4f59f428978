package server

import (
	"sync"

	"github.com/golang/groupcache/lru"

	"github.com/sparqlpad/sparqlpad/pkg/sparql/parser"
)

// queryCache keeps parsed queries keyed by their text. Parsed queries are
// never mutated after parsing, so one value can serve concurrent requests.
type queryCache struct {
	mu    sync.Mutex
	cache *lru.Cache
}

// newQueryCache returns a cache of the given size; size 0 disables caching
func newQueryCache(size int) *queryCache {
	if size <= 0 {
		return &queryCache{}
	}
	return &queryCache{cache: lru.New(size)}
}

// parse returns the cached parse of text or parses it. hit reports whether
// the cache answered.
func (c *queryCache) parse(text string) (query *parser.Query, hit bool, err error) {
	if c.cache == nil {
		query, err = parser.NewParser(text).Parse()
		return query, false, err
	}

	key := lru.Key(text)
	c.mu.Lock()
	cached, ok := c.cache.Get(key)
	c.mu.Unlock()
	if ok {
		return cached.(*parser.Query), true, nil
	}

	query, err = parser.NewParser(text).Parse()
	if err != nil {
		return nil, false, err
	}

	c.mu.Lock()
	c.cache.Add(key, query)
	c.mu.Unlock()
	return query, false, nil
}

func (c *queryCache) len() int {
	if c.cache == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}
