/*
Package cache provides response caching for the SmartEdu backend client.

List endpoints (materi pokok, prompt models) change rarely and are read on
every screen, so their response bodies are cached with a TTL and invalidated
whenever the client mutates the same resource.
*/
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/Nexora-Open-Source/smartedu/monitoring"
	"github.com/sirupsen/logrus"
)

// CacheItem represents a cached item with expiration
type CacheItem struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired checks if the cache item has expired
func (c *CacheItem) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

// Cache interface defines caching operations
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, data []byte, ttl time.Duration) error
	Delete(key string) error
	DeletePrefix(prefix string) (int, error)
	Clear() error
}

// InMemoryCache implements an in-memory cache with TTL support
type InMemoryCache struct {
	items map[string]*CacheItem
	mutex sync.RWMutex
	ttl   time.Duration
	quit  chan struct{}
	once  sync.Once
}

// NewInMemoryCache creates a new in-memory cache
func NewInMemoryCache(defaultTTL time.Duration) *InMemoryCache {
	cache := &InMemoryCache{
		items: make(map[string]*CacheItem),
		ttl:   defaultTTL,
		quit:  make(chan struct{}),
	}

	go cache.startCleanup()

	return cache
}

// Get retrieves a value from cache
func (c *InMemoryCache) Get(key string) ([]byte, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.items[key]
	if !exists || item.IsExpired() {
		return nil, false
	}

	return item.Data, true
}

// Set stores a value in cache
func (c *InMemoryCache) Set(key string, data []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items[key] = &CacheItem{
		Data:      data,
		ExpiresAt: time.Now().Add(ttl),
	}

	return nil
}

// Delete removes an item from cache
func (c *InMemoryCache) Delete(key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.items, key)
	return nil
}

// DeletePrefix removes every key starting with prefix
func (c *InMemoryCache) DeletePrefix(prefix string) (int, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	removed := 0
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
			removed++
		}
	}
	return removed, nil
}

// Clear removes all items from cache
func (c *InMemoryCache) Clear() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items = make(map[string]*CacheItem)
	return nil
}

// Close stops the cleanup goroutine
func (c *InMemoryCache) Close() {
	c.once.Do(func() { close(c.quit) })
}

func (c *InMemoryCache) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.quit:
			return
		}
	}
}

func (c *InMemoryCache) cleanup() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for key, item := range c.items {
		if item.IsExpired() {
			delete(c.items, key)
		}
	}
}

// CacheManager manages cached backend responses keyed by request path
type CacheManager struct {
	cache  Cache
	logger *logrus.Logger
	ttl    time.Duration
}

// NewCacheManager creates a new cache manager
func NewCacheManager(cache Cache, logger *logrus.Logger, ttl time.Duration) *CacheManager {
	return &CacheManager{
		cache:  cache,
		logger: logger,
		ttl:    ttl,
	}
}

// GetResponse retrieves a cached response body for path
func (cm *CacheManager) GetResponse(path string) ([]byte, bool) {
	body, found := cm.cache.Get(responseKey(path))

	if found {
		monitoring.RecordCacheHit("get_response")
		cm.logger.WithFields(logrus.Fields{
			"path":  path,
			"bytes": len(body),
		}).Debug("Cache hit for backend response")
	} else {
		monitoring.RecordCacheMiss("get_response")
		cm.logger.WithField("path", path).Debug("Cache miss for backend response")
	}

	return body, found
}

// SetResponse caches a response body for path
func (cm *CacheManager) SetResponse(path string, body []byte) error {
	if err := cm.cache.Set(responseKey(path), body, cm.ttl); err != nil {
		cm.logger.WithFields(logrus.Fields{
			"path":  path,
			"error": err.Error(),
		}).Error("Failed to cache backend response")
		return err
	}
	return nil
}

// InvalidateResource drops every cached response under the resource path
// prefix, e.g. "/materi-pokok".
func (cm *CacheManager) InvalidateResource(resource string) error {
	removed, err := cm.cache.DeletePrefix(responseKey(resource))
	if err != nil {
		cm.logger.WithFields(logrus.Fields{
			"resource": resource,
			"error":    err.Error(),
		}).Error("Failed to invalidate cached responses")
		return err
	}

	cm.logger.WithFields(logrus.Fields{
		"resource": resource,
		"removed":  removed,
	}).Debug("Invalidated cached responses")
	return nil
}

// ClearAll clears all cached data
func (cm *CacheManager) ClearAll() error {
	if err := cm.cache.Clear(); err != nil {
		cm.logger.WithError(err).Error("Failed to clear cache")
		return err
	}

	cm.logger.Info("Cache cleared successfully")
	return nil
}

func responseKey(path string) string {
	return "resp:" + path
}
