package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ikkim/bizdir-backend/internal/app/directory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListingCache_Snapshot(t *testing.T) {
	store := newMemStore()
	cache := NewListingCache(store, time.Minute)
	ctx := context.Background()

	loads := 0
	load := func() ([]directory.Listing, error) {
		loads++
		return []directory.Listing{{ID: uint(loads), Name: "Shop"}}, nil
	}

	first, err := cache.Snapshot(ctx, load)
	require.NoError(t, err)
	second, err := cache.Snapshot(ctx, load)
	require.NoError(t, err)

	assert.Equal(t, 1, loads)
	assert.Equal(t, first, second)

	cache.Invalidate(ctx)
	third, err := cache.Snapshot(ctx, load)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
	assert.Equal(t, uint(2), third[0].ID)
}

func TestListingCache_FeedKeyedByFilter(t *testing.T) {
	cache := NewListingCache(newMemStore(), time.Minute)
	ctx := context.Background()

	builds := 0
	build := func() (*HomeFeed, error) {
		builds++
		return &HomeFeed{Total: builds}, nil
	}

	_, err := cache.Feed(ctx, directory.Filter{City: "Kochi"}, build)
	require.NoError(t, err)
	feed, err := cache.Feed(ctx, directory.Filter{City: "Kochi"}, build)
	require.NoError(t, err)
	assert.Equal(t, 1, feed.Total)

	feed, err = cache.Feed(ctx, directory.Filter{City: "Mysore"}, build)
	require.NoError(t, err)
	assert.Equal(t, 2, feed.Total)
}

func TestListingCache_Disabled(t *testing.T) {
	var cache *ListingCache
	ctx := context.Background()
	assert.False(t, cache.Enabled())

	loads := 0
	for i := 0; i < 2; i++ {
		_, err := cache.Snapshot(ctx, func() ([]directory.Listing, error) {
			loads++
			return nil, nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, loads)
	cache.Invalidate(ctx)

	assert.False(t, NewListingCache(nil, 0).Enabled())
}

func TestListingCache_StoreFailureFallsBackToLoad(t *testing.T) {
	store := newMemStore()
	store.failed = true
	cache := NewListingCache(store, time.Minute)

	got, err := cache.Snapshot(context.Background(), func() ([]directory.Listing, error) {
		return []directory.Listing{{Name: "Direct"}}, nil
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Direct", got[0].Name)
}

func TestListingCache_LoadErrorIsReturned(t *testing.T) {
	cache := NewListingCache(newMemStore(), time.Minute)
	boom := errors.New("db down")

	_, err := cache.Snapshot(context.Background(), func() ([]directory.Listing, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestFilterKey(t *testing.T) {
	a := FilterKey(directory.Filter{Keyword: "ab", Category: "c"})
	b := FilterKey(directory.Filter{Keyword: "a", Category: "bc"})
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, FilterKey(directory.Filter{Keyword: "ab", Category: "c"}))
}
