package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/horizon/internal/common"
)

type payload struct {
	Ticker string  `json:"ticker"`
	Close  float64 `json:"close"`
}

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewRedisCache(mr.Addr(), "", 0, common.NewSilentLogger())
	require.NotNil(t, c.client)
	return c, mr
}

func TestRedisCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	defer c.Close()

	ctx := context.Background()
	key := Key("bars", "AAPL", "1d")

	err := c.Set(ctx, key, payload{Ticker: "AAPL", Close: 231.5}, time.Minute)
	require.NoError(t, err)

	var got payload
	hit, err := c.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "AAPL", got.Ticker)
	assert.Equal(t, 231.5, got.Close)
}

func TestRedisCacheMiss(t *testing.T) {
	c, _ := newTestCache(t)
	defer c.Close()

	var got payload
	hit, err := c.Get(context.Background(), Key("bars", "MSFT", "1d"), &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisCacheExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	defer c.Close()

	ctx := context.Background()
	key := Key("bars", "NVDA", "1h")
	require.NoError(t, c.Set(ctx, key, payload{Ticker: "NVDA"}, time.Second))

	mr.FastForward(2 * time.Second)

	var got payload
	hit, err := c.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisCacheDisabledBackend(t *testing.T) {
	// Point at a closed address: constructor must return a disabled cache.
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	c := NewRedisCache(addr, "", 0, common.NewSilentLogger())
	require.NotNil(t, c)
	assert.Nil(t, c.client)

	ctx := context.Background()
	assert.NoError(t, c.Set(ctx, Key("x"), payload{}, time.Minute))

	var got payload
	hit, err := c.Get(ctx, Key("x"), &got)
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, c.Close())
}

func TestKeyVersionPrefix(t *testing.T) {
	assert.Equal(t, "horizon:"+CacheVersion+":bars:AAPL:1d", Key("bars", "AAPL", "1d"))
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, Key("ctx", "AAPL"), payload{Ticker: "AAPL", Close: 1}, time.Minute))

	var got payload
	hit, err := c.Get(ctx, Key("ctx", "AAPL"), &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "AAPL", got.Ticker)

	require.NoError(t, c.Set(ctx, Key("ctx", "OLD"), payload{}, -time.Second))
	hit, err = c.Get(ctx, Key("ctx", "OLD"), &got)
	require.NoError(t, err)
	assert.False(t, hit)
}
