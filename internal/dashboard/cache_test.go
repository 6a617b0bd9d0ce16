package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheSetGet(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache()

	_, ok := cache.Get(ctx, "summary")
	assert.False(t, ok)

	cache.Set(ctx, "summary", []byte(`{"totalCredits":100}`), time.Minute)

	value, ok := cache.Get(ctx, "summary")
	require.True(t, ok)
	assert.Equal(t, []byte(`{"totalCredits":100}`), value)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache()

	cache.Set(ctx, "summary", []byte("stale"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	_, ok := cache.Get(ctx, "summary")
	assert.False(t, ok)
}

func TestMemoryCacheOverwrite(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache()

	cache.Set(ctx, "summary", []byte("old"), time.Minute)
	cache.Set(ctx, "summary", []byte("new"), time.Minute)

	value, ok := cache.Get(ctx, "summary")
	require.True(t, ok)
	assert.Equal(t, []byte("new"), value)
}
