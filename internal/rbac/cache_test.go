package rbac

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	_ "github.com/fixflow/fixflow/testing"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, 5*time.Minute)
}

func TestCacheRoundTrip(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	_, ok, err := cache.GetUser(ctx, 42)
	require.NoError(t, err)
	require.False(t, ok)

	perms := []string{"bookings.read", "devices.read"}
	require.NoError(t, cache.SetUser(ctx, 42, perms))

	got, ok, err := cache.GetUser(ctx, 42)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, perms, got)
}

func TestCacheBumpInvalidatesEveryEntry(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetUser(ctx, 1, []string{"bookings.read"}))
	require.NoError(t, cache.SetUser(ctx, 2, []string{"devices.read"}))

	require.NoError(t, cache.Bump(ctx))

	_, ok, err := cache.GetUser(ctx, 1)
	require.NoError(t, err)
	require.False(t, ok)
	_, ok, err = cache.GetUser(ctx, 2)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCacheNilPassThrough(t *testing.T) {
	ctx := context.Background()
	var cache *Cache

	_, ok, err := cache.GetUser(ctx, 1)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, cache.SetUser(ctx, 1, []string{"bookings.read"}))
	require.NoError(t, cache.Bump(ctx))

	disabled := NewCache(nil, time.Minute)
	_, ok, err = disabled.GetUser(ctx, 1)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, disabled.Bump(ctx))
}

func TestServiceUsesCache(t *testing.T) {
	store := NewMemoryStore()
	cache := newTestCache(t)
	svc := NewService(DefaultCatalog(), store, cache, nil)
	ctx := context.Background()
	require.NoError(t, Seed(ctx, store, svc.Catalog()))

	_, err := svc.Assign(ctx, 5, "CUSTOMER", nil)
	require.NoError(t, err)

	first, err := svc.EffectivePermissions(ctx, 5)
	require.NoError(t, err)
	require.Contains(t, first, "bookings.create")

	cached, ok, err := cache.GetUser(ctx, 5)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, first, cached)

	// A revoke bumps the version, so the next read resolves fresh.
	_, err = svc.Revoke(ctx, 5, "CUSTOMER")
	require.NoError(t, err)

	_, ok, err = cache.GetUser(ctx, 5)
	require.NoError(t, err)
	require.False(t, ok)

	after, err := svc.EffectivePermissions(ctx, 5)
	require.NoError(t, err)
	require.Empty(t, after)
}
