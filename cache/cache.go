// Package cache keeps objects that are expensive to load and safe to share
// between goroutines once loaded: evaluator weight files and ONNX models.
// Keys look like "weights:<path>" or "onnx:<path>".
package cache

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/domino14/tetrizz/config"
)

// LoadFunc builds the object for key on a miss.
type LoadFunc func(cfg *config.Config, key string) (any, error)

// ObjectCache memoizes LoadFunc results per key. A load runs under the
// cache lock, so concurrent callers of one key load it once.
type ObjectCache struct {
	mu      sync.Mutex
	objects map[string]any
	hits    int
	misses  int
}

func New() *ObjectCache {
	return &ObjectCache{objects: make(map[string]any)}
}

// Load returns the object for key, calling loadFunc the first time the key
// is seen. Failed loads are not cached.
func (c *ObjectCache) Load(cfg *config.Config, key string, loadFunc LoadFunc) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if obj, ok := c.objects[key]; ok {
		c.hits++
		log.Debug().Str("key", key).Msg("getting obj from cache")
		return obj, nil
	}
	c.misses++
	log.Debug().Str("key", key).Msg("loading into cache")
	obj, err := loadFunc(cfg, key)
	if err != nil {
		return nil, err
	}
	c.objects[key] = obj
	return obj, nil
}

// Forget drops key so that the next Load reads it again.
func (c *ObjectCache) Forget(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.objects, key)
}

// Stats returns the hit and miss counts so far.
func (c *ObjectCache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// GlobalObjectCache is the process-wide cache used by Load.
var GlobalObjectCache = New()

// Load goes through GlobalObjectCache.
func Load(cfg *config.Config, key string, loadFunc LoadFunc) (any, error) {
	return GlobalObjectCache.Load(cfg, key, loadFunc)
}

// LoadAs is Load followed by a type assertion to T.
func LoadAs[T any](cfg *config.Config, key string, loadFunc LoadFunc) (T, error) {
	var zero T
	obj, err := Load(cfg, key, loadFunc)
	if err != nil {
		return zero, err
	}
	t, ok := obj.(T)
	if !ok {
		return zero, fmt.Errorf("cache key %s holds %T, not %T", key, obj, zero)
	}
	return t, nil
}
