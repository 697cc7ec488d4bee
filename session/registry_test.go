// session/registry_test.go
package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegis-admin/aegis/session"
)

func newRegistryTest(t *testing.T) (*session.Registry, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return session.NewRegistry(client), mr
}

func TestRegistryPutGet(t *testing.T) {
	registry, _ := newRegistryTest(t)
	ctx := context.Background()

	require.NoError(t, registry.Put(ctx, "aegis:token:1:abc", "signed-token", time.Hour))

	val, ok, err := registry.Get(ctx, "aegis:token:1:abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "signed-token", val)
}

func TestRegistryGetMissingIsNotAnError(t *testing.T) {
	registry, _ := newRegistryTest(t)

	val, ok, err := registry.Get(context.Background(), "aegis:token:1:missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, val)
}

func TestRegistryPutHonorsTTL(t *testing.T) {
	registry, mr := newRegistryTest(t)
	ctx := context.Background()

	require.NoError(t, registry.Put(ctx, "aegis:token:1:abc", "signed-token", time.Minute))

	mr.FastForward(2 * time.Minute)

	_, ok, err := registry.Get(ctx, "aegis:token:1:abc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegistryDeleteExact(t *testing.T) {
	registry, _ := newRegistryTest(t)
	ctx := context.Background()

	require.NoError(t, registry.Put(ctx, "aegis:token:1:abc", "v", time.Hour))
	require.NoError(t, registry.DeleteExact(ctx, "aegis:token:1:abc"))

	_, ok, err := registry.Get(ctx, "aegis:token:1:abc")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting a missing key is a no-op
	assert.NoError(t, registry.DeleteExact(ctx, "aegis:token:1:abc"))
}

func TestRegistryDeleteByPrefix(t *testing.T) {
	registry, _ := newRegistryTest(t)
	ctx := context.Background()

	require.NoError(t, registry.Put(ctx, "aegis:token:1:s1", "a", time.Hour))
	require.NoError(t, registry.Put(ctx, "aegis:token:1:s2", "b", time.Hour))
	require.NoError(t, registry.Put(ctx, "aegis:token:2:s1", "c", time.Hour))

	require.NoError(t, registry.DeleteByPrefix(ctx, "aegis:token:1:", ""))

	_, ok, _ := registry.Get(ctx, "aegis:token:1:s1")
	assert.False(t, ok)
	_, ok, _ = registry.Get(ctx, "aegis:token:1:s2")
	assert.False(t, ok)

	// A different user's session survives the sweep
	_, ok, _ = registry.Get(ctx, "aegis:token:2:s1")
	assert.True(t, ok)
}

func TestRegistryDeleteByPrefixSparesException(t *testing.T) {
	registry, _ := newRegistryTest(t)
	ctx := context.Background()

	require.NoError(t, registry.Put(ctx, "aegis:token:1:s1", "a", time.Hour))
	require.NoError(t, registry.Put(ctx, "aegis:token:1:s2", "b", time.Hour))

	require.NoError(t, registry.DeleteByPrefix(ctx, "aegis:token:1:", "aegis:token:1:s2"))

	_, ok, _ := registry.Get(ctx, "aegis:token:1:s1")
	assert.False(t, ok)
	_, ok, _ = registry.Get(ctx, "aegis:token:1:s2")
	assert.True(t, ok)
}

func TestRegistryOnlineSet(t *testing.T) {
	registry, mr := newRegistryTest(t)
	ctx := context.Background()

	require.NoError(t, registry.AddOnline(ctx, "aegis:online", "s1"))
	require.NoError(t, registry.AddOnline(ctx, "aegis:online", "s2"))

	members, err := mr.SMembers("aegis:online")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"s1", "s2"}, members)

	require.NoError(t, registry.RemoveOnline(ctx, "aegis:online", "s1"))

	members, err = mr.SMembers("aegis:online")
	require.NoError(t, err)
	assert.Equal(t, []string{"s2"}, members)
}
