package security

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
)

// Cache is a small in-process TTL cache. The geocoder keeps reverse lookups
// here so settlement retries don't pay for the same coordinates twice.
type Cache struct {
	c *cache.Cache
}

func NewCache(ttl, cleanup time.Duration) *Cache {
	return &Cache{c: cache.New(ttl, cleanup)}
}

func (cm *Cache) Insert(k string, x interface{}) {
	cm.c.Set(k, x, cache.DefaultExpiration)
}

func (cm *Cache) Get(key string) (interface{}, error) {
	val, found := cm.c.Get(key)
	if found {
		return val, nil
	}

	return nil, fmt.Errorf("value not found")
}

func (cm *Cache) Count() int {
	return cm.c.ItemCount()
}

func (cm *Cache) Stop() error {
	cm.c.Flush()
	return nil
}
