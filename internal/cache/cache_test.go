package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(Config{MaxEntries: 100, TTL: time.Minute})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestGetOrLoad_CachesValue(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	var loads int32
	load := func(context.Context) ([]string, error) {
		atomic.AddInt32(&loads, 1)
		return []string{"a", "b"}, nil
	}

	got, err := GetOrLoad(ctx, c, KindNotes, "user-1", load)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, int32(1), atomic.LoadInt32(&loads))

	// Ristretto applies writes asynchronously.
	c.store.Wait()

	got, err = GetOrLoad(ctx, c, KindNotes, "user-1", load)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, int32(1), atomic.LoadInt32(&loads), "second read should hit the cache")
}

func TestGetOrLoad_ErrorsAreNotCached(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	var loads int32
	failing := func(context.Context) (string, error) {
		atomic.AddInt32(&loads, 1)
		return "", errors.New("db down")
	}

	_, err := GetOrLoad(ctx, c, KindTags, "user-1", failing)
	assert.Error(t, err)

	working := func(context.Context) (string, error) {
		atomic.AddInt32(&loads, 1)
		return "ok", nil
	}
	got, err := GetOrLoad(ctx, c, KindTags, "user-1", working)
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, int32(2), atomic.LoadInt32(&loads))
}

func TestGetOrLoad_KeysAreScopedByUserAndKind(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	for _, tc := range []struct {
		kind, user, value string
	}{
		{KindNotes, "user-1", "u1-notes"},
		{KindNotes, "user-2", "u2-notes"},
		{KindTags, "user-1", "u1-tags"},
	} {
		v := tc.value
		got, err := GetOrLoad(ctx, c, tc.kind, tc.user, func(context.Context) (string, error) {
			return v, nil
		})
		require.NoError(t, err)
		assert.Equal(t, tc.value, got)
	}
	c.store.Wait()

	// Each key kept its own value.
	got, err := GetOrLoad(ctx, c, KindNotes, "user-2", func(context.Context) (string, error) {
		return "reloaded", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "u2-notes", got)
}

func TestInvalidate_ForcesReload(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	var loads int32
	load := func(context.Context) (int, error) {
		return int(atomic.AddInt32(&loads, 1)), nil
	}

	first, err := GetOrLoad(ctx, c, KindNotes, "user-1", load)
	require.NoError(t, err)
	assert.Equal(t, 1, first)
	c.store.Wait()

	c.Invalidate(KindNotes, "user-1")

	second, err := GetOrLoad(ctx, c, KindNotes, "user-1", load)
	require.NoError(t, err)
	assert.Equal(t, 2, second, "invalidation should force a fresh load")
}

func TestInvalidateUser_DropsAllKinds(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	var loads int32
	load := func(context.Context) (string, error) {
		atomic.AddInt32(&loads, 1)
		return "v", nil
	}

	for _, kind := range []string{KindNotes, KindTags, KindDashboard} {
		_, err := GetOrLoad(ctx, c, kind, "user-1", load)
		require.NoError(t, err)
	}
	c.store.Wait()

	c.InvalidateUser("user-1")

	for _, kind := range []string{KindNotes, KindTags, KindDashboard} {
		_, err := GetOrLoad(ctx, c, kind, "user-1", load)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(6), atomic.LoadInt32(&loads))
}

func TestGetOrLoad_CollapsesConcurrentLoads(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	var loads int32
	slowLoad := func(context.Context) (string, error) {
		atomic.AddInt32(&loads, 1)
		time.Sleep(50 * time.Millisecond)
		return "shared", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := GetOrLoad(ctx, c, KindNotes, "user-1", slowLoad)
			assert.NoError(t, err)
			assert.Equal(t, "shared", got)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&loads), "concurrent misses should share one load")
}
