package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheSetGet(t *testing.T) {
	c := New(Config{DefaultTTL: time.Minute})
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "k1", "v1")
	got, ok := c.Get(ctx, "k1")
	assert.True(t, ok)
	assert.Equal(t, "v1", got)

	_, ok = c.Get(ctx, "missing")
	assert.False(t, ok)

	c.Delete(ctx, "k1")
	_, ok = c.Get(ctx, "k1")
	assert.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	c := New(Config{})
	defer c.Close()
	ctx := context.Background()

	c.SetWithTTL(ctx, "short", "v", time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	_, ok := c.Get(ctx, "short")
	assert.False(t, ok)

	// Non-positive TTL means no expiry.
	c.SetWithTTL(ctx, "forever", "v", 0)
	_, ok = c.Get(ctx, "forever")
	assert.True(t, ok)
}

func TestCacheMaxItems(t *testing.T) {
	evicted := []string{}
	c := New(Config{
		MaxItems: 2,
		OnEviction: func(key string, _ any) {
			evicted = append(evicted, key)
		},
	})
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)
	// Touch "a" so "b" becomes oldest.
	c.Get(ctx, "a")
	c.Set(ctx, "c", 3)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"b"}, evicted)

	_, ok := c.Get(ctx, "a")
	assert.True(t, ok)
	_, ok = c.Get(ctx, "c")
	assert.True(t, ok)
}

func TestCacheClear(t *testing.T) {
	c := New(Config{})
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)
	c.Clear(ctx)
	assert.Equal(t, 0, c.Len())
}
