package cache

import (
	"sync"
	"time"

	"moodplay/pkg/models"
)

// CacheItem represents a cached item with expiration
type CacheItem struct {
	Value      interface{}
	Expiration int64
}

// IsExpired checks if the cache item has expired
func (item *CacheItem) IsExpired() bool {
	if item.Expiration == 0 {
		return false
	}
	return time.Now().UnixNano() > item.Expiration
}

// MemoryCache provides a thread-safe in-memory cache with TTL support
type MemoryCache struct {
	items   map[string]*CacheItem
	mutex   sync.RWMutex
	janitor *janitor
}

// janitor cleans up expired items periodically
type janitor struct {
	interval time.Duration
	stop     chan bool
}

// NewMemoryCache creates a new memory cache with cleanup interval
func NewMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	cache := &MemoryCache{
		items: make(map[string]*CacheItem),
	}

	if cleanupInterval > 0 {
		cache.janitor = &janitor{
			interval: cleanupInterval,
			stop:     make(chan bool),
		}
		go cache.janitor.run(cache)
	}

	return cache
}

// Set stores an item in the cache with the given TTL. A TTL of zero means
// the item never expires.
func (c *MemoryCache) Set(key string, value interface{}, ttl time.Duration) {
	var expiration int64
	if ttl > 0 {
		expiration = time.Now().Add(ttl).UnixNano()
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items[key] = &CacheItem{
		Value:      value,
		Expiration: expiration,
	}
}

// Get retrieves an item from the cache
func (c *MemoryCache) Get(key string) (interface{}, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, found := c.items[key]
	if !found || item.IsExpired() {
		return nil, false
	}

	return item.Value, true
}

// Delete removes an item from the cache
func (c *MemoryCache) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.items, key)
}

// Clear removes all items from the cache
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.items = make(map[string]*CacheItem)
}

// ItemCount returns the number of items in the cache (including expired)
func (c *MemoryCache) ItemCount() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.items)
}

// deleteExpired removes all expired items from the cache
func (c *MemoryCache) deleteExpired() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for key, item := range c.items {
		if item.IsExpired() {
			delete(c.items, key)
		}
	}
}

// Stop stops the cleanup goroutine
func (c *MemoryCache) Stop() {
	if c.janitor != nil {
		c.janitor.stop <- true
	}
}

// run starts the cleanup process
func (j *janitor) run(cache *MemoryCache) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cache.deleteExpired()
		case <-j.stop:
			return
		}
	}
}

// TrackListCache is a specialized cache for catalog track lists keyed by
// request (mood, search query, genre). Upstream catalog calls are slow, so
// responses are kept for a configurable TTL.
type TrackListCache struct {
	cache *MemoryCache
	ttl   time.Duration
}

// NewTrackListCache creates a cache for catalog responses with the given TTL.
func NewTrackListCache(ttl time.Duration) *TrackListCache {
	return &TrackListCache{
		cache: NewMemoryCache(5 * time.Minute),
		ttl:   ttl,
	}
}

// GetTracks retrieves a cached track list by key.
func (tc *TrackListCache) GetTracks(key string) ([]models.Track, bool) {
	value, found := tc.cache.Get(key)
	if !found {
		return nil, false
	}

	tracks, ok := value.([]models.Track)
	return tracks, ok
}

// SetTracks caches a track list under the given key.
func (tc *TrackListCache) SetTracks(key string, tracks []models.Track) {
	tc.cache.Set(key, tracks, tc.ttl)
}

// Clear removes all cached track lists.
func (tc *TrackListCache) Clear() {
	tc.cache.Clear()
}

// Stop stops the underlying cache cleanup goroutine.
func (tc *TrackListCache) Stop() {
	tc.cache.Stop()
}
