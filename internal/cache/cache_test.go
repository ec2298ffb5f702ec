package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheSetGet(t *testing.T) {
	c := New(true)
	defer c.Close()

	_, _, ok := c.Get("stations")
	assert.False(t, ok)

	etag := c.Set("stations", []byte(`[]`), time.Minute)
	data, got, ok := c.Get("stations")
	assert.True(t, ok)
	assert.Equal(t, etag, got)
	assert.Equal(t, []byte(`[]`), data)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats["hits"])
	assert.Equal(t, int64(1), stats["misses"])
}

func TestCacheExpiryAndEvict(t *testing.T) {
	c := New(true)
	defer c.Close()

	c.Set("old", []byte("x"), -time.Second)
	_, _, ok := c.Get("old")
	assert.False(t, ok)

	c.evict(time.Now())
	assert.Equal(t, 0, c.Stats()["total_keys"])
}

func TestCacheDisabled(t *testing.T) {
	c := New(false)

	etag := c.Set("k", []byte("v"), time.Minute)
	assert.NotEmpty(t, etag)
	_, _, ok := c.Get("k")
	assert.False(t, ok)
}

func TestMatchesETag(t *testing.T) {
	etag := ComputeETag([]byte("body"))
	assert.True(t, MatchesETag(etag, etag))
	assert.True(t, MatchesETag("*", etag))
	assert.False(t, MatchesETag("", etag))
	assert.False(t, MatchesETag(`W/"other"`, etag))
}
