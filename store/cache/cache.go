// Package cache provides an in-memory TTL cache with bounded size.
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Config holds cache settings.
type Config struct {
	// DefaultTTL is applied to entries set without an explicit TTL.
	DefaultTTL time.Duration
	// CleanupInterval is how often the janitor removes expired entries.
	// Zero disables the janitor; expired entries are then dropped lazily.
	CleanupInterval time.Duration
	// MaxItems bounds the cache size; the least recently used entry is
	// evicted when the bound is exceeded. Zero means unbounded.
	MaxItems int
	// OnEviction, when set, is called for every evicted or expired entry.
	OnEviction func(key string, value any)
}

type item struct {
	key       string
	value     any
	expiresAt time.Time
	elem      *list.Element
}

// Cache is an in-memory key-value cache with TTL expiry and LRU eviction.
type Cache struct {
	config Config

	mu    sync.Mutex
	items map[string]*item
	order *list.List // LRU order, front = most recent

	stopJanitor chan struct{}
	closeOnce   sync.Once
}

// New creates a cache from config and starts its janitor when a cleanup
// interval is configured.
func New(config Config) *Cache {
	c := &Cache{
		config:      config,
		items:       make(map[string]*item),
		order:       list.New(),
		stopJanitor: make(chan struct{}),
	}
	if config.CleanupInterval > 0 {
		go c.janitor()
	}
	return c
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	c.SetWithTTL(ctx, key, value, c.config.DefaultTTL)
}

// SetWithTTL stores value under key with an explicit TTL. A non-positive TTL
// stores the entry without expiry.
func (c *Cache) SetWithTTL(_ context.Context, key string, value any, ttl time.Duration) {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.items[key]; ok {
		existing.value = value
		existing.expiresAt = expiresAt
		c.order.MoveToFront(existing.elem)
		return
	}

	it := &item{key: key, value: value, expiresAt: expiresAt}
	it.elem = c.order.PushFront(it)
	c.items[key] = it

	if c.config.MaxItems > 0 && len(c.items) > c.config.MaxItems {
		c.evictOldest()
	}
}

// Get returns the value for key. Expired entries are dropped on access.
func (c *Cache) Get(_ context.Context, key string) (any, bool) {
	c.mu.Lock()
	it, ok := c.items[key]
	if !ok {
		c.mu.Unlock()
		return nil, false
	}
	if !it.expiresAt.IsZero() && time.Now().After(it.expiresAt) {
		c.removeLocked(it)
		c.mu.Unlock()
		return nil, false
	}
	c.order.MoveToFront(it.elem)
	value := it.value
	c.mu.Unlock()
	return value, true
}

// Delete removes key from the cache.
func (c *Cache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	if it, ok := c.items[key]; ok {
		c.removeLocked(it)
	}
	c.mu.Unlock()
}

// Clear removes all entries.
func (c *Cache) Clear(_ context.Context) {
	c.mu.Lock()
	for _, it := range c.items {
		c.removeLocked(it)
	}
	c.mu.Unlock()
}

// Len returns the number of entries, including not-yet-collected expired ones.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Close stops the janitor goroutine.
func (c *Cache) Close() {
	c.closeOnce.Do(func() {
		close(c.stopJanitor)
	})
}

func (c *Cache) evictOldest() {
	back := c.order.Back()
	if back == nil {
		return
	}
	c.removeLocked(back.Value.(*item))
}

// removeLocked must be called with c.mu held.
func (c *Cache) removeLocked(it *item) {
	delete(c.items, it.key)
	c.order.Remove(it.elem)
	if c.config.OnEviction != nil {
		c.config.OnEviction(it.key, it.value)
	}
}

func (c *Cache) janitor() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopJanitor:
			return
		case <-ticker.C:
			c.collectExpired()
		}
	}
}

func (c *Cache) collectExpired() {
	now := time.Now()
	c.mu.Lock()
	for _, it := range c.items {
		if !it.expiresAt.IsZero() && now.After(it.expiresAt) {
			c.removeLocked(it)
		}
	}
	c.mu.Unlock()
}
