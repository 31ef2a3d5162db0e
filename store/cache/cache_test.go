package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache(t *testing.T) {
	c := New(Config{DefaultTTL: 50 * time.Millisecond, CleanupInterval: time.Hour, MaxItems: 2})
	defer c.Close()

	t.Run("set and get", func(t *testing.T) {
		c.Set("a", 1)
		got, ok := c.Get("a")
		assert.True(t, ok)
		assert.Equal(t, 1, got)
	})

	t.Run("expired entries are misses", func(t *testing.T) {
		c.Set("b", 2)
		time.Sleep(60 * time.Millisecond)
		_, ok := c.Get("b")
		assert.False(t, ok)
	})

	t.Run("delete removes entry", func(t *testing.T) {
		c.Set("c", 3)
		c.Delete("c")
		_, ok := c.Get("c")
		assert.False(t, ok)
	})

	t.Run("full cache drops new keys but updates existing", func(t *testing.T) {
		full := New(Config{DefaultTTL: time.Minute, CleanupInterval: time.Hour, MaxItems: 1})
		defer full.Close()

		full.Set("x", 1)
		full.Set("y", 2)
		_, ok := full.Get("y")
		assert.False(t, ok)

		full.Set("x", 9)
		got, _ := full.Get("x")
		assert.Equal(t, 9, got)
	})
}
