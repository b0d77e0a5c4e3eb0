package tokencache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetGetDelete(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), "", time.Minute)
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "abc", 42))
	id, ok, err := c.Get(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(42), id)
	assert.True(t, mr.Exists(keyPrefix+"abc"))

	require.NoError(t, c.Delete(ctx, "abc"))
	_, ok, err = c.Get(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_Expires(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), "", time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "abc", 1))
	mr.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_CorruptValue(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), "", time.Minute)
	require.NoError(t, mr.Set(keyPrefix+"abc", "not-a-number"))

	_, ok, err := c.Get(context.Background(), "abc")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestCache_NilIsNoop(t *testing.T) {
	c := New("", "", time.Minute)
	require.Nil(t, c)
	ctx := context.Background()

	assert.NoError(t, c.Set(ctx, "abc", 1))
	_, ok, err := c.Get(ctx, "abc")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Delete(ctx, "abc"))
	assert.NoError(t, c.Ping(ctx))
	assert.NoError(t, c.Close())
}

func TestCache_RedisDownFailsFast(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), "", time.Minute)
	t.Cleanup(func() { _ = c.Close() })
	mr.Close()
	ctx := context.Background()

	start := time.Now()
	_, ok, err := c.Get(ctx, "abc")
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Error(t, c.Set(ctx, "abc", 1))
	assert.Less(t, time.Since(start), time.Second, "get and set must not wait out retries")
}
