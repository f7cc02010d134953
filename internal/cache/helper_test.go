package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheAside(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := NewClient(mr.Addr())
	require.NoError(t, err)
	defer rdb.Close()

	ctx := context.Background()
	calls := 0
	fetch := func(dest *int) func() error {
		return func() error {
			calls++
			*dest = 7
			return nil
		}
	}

	var first int
	require.NoError(t, CacheAside(ctx, rdb, UnreadCountKey(1), &first, time.Minute, fetch(&first)))
	assert.Equal(t, 7, first)

	var second int
	require.NoError(t, CacheAside(ctx, rdb, UnreadCountKey(1), &second, time.Minute, fetch(&second)))
	assert.Equal(t, 7, second)
	assert.Equal(t, 1, calls)

	Invalidate(ctx, rdb, UnreadCountKey(1))
	assert.False(t, mr.Exists(UnreadCountKey(1)))

	var third int
	require.NoError(t, CacheAside(ctx, rdb, UnreadCountKey(1), &third, time.Minute, fetch(&third)))
	assert.Equal(t, 2, calls)
}

func TestCacheAside_NilClientAlwaysFetches(t *testing.T) {
	var v int
	calls := 0
	for i := 0; i < 2; i++ {
		err := CacheAside(context.Background(), nil, "k", &v, time.Minute, func() error {
			calls++
			return nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
}

func TestCacheAside_FetchErrorPropagates(t *testing.T) {
	var v int
	boom := errors.New("boom")
	err := CacheAside(context.Background(), nil, "k", &v, time.Minute, func() error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestNewClient_URL(t *testing.T) {
	c, err := NewClient("redis://localhost:6379/2")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Options().DB)
	_ = c.Close()

	_, err = NewClient("redis://%zz")
	assert.Error(t, err)
}

func TestInitRedis_UnreachableLeavesNilClient(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	InitRedis(addr)
	assert.Nil(t, GetClient())
}
