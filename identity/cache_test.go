// identity/cache_test.go
package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegis-admin/aegis/config"
	aegis_errors "github.com/aegis-admin/aegis/errors"
	"github.com/aegis-admin/aegis/identity"
	"github.com/aegis-admin/aegis/model"
	"github.com/aegis-admin/aegis/security"
	"github.com/aegis-admin/aegis/session"
)

// fakeLoader serves users from a map and counts loads so tests can observe
// cache hits and misses.
type fakeLoader struct {
	users map[int64]*model.User
	loads int
}

func (f *fakeLoader) GetUserWithRelations(_ context.Context, userID int64) (*model.User, error) {
	f.loads++
	return f.users[userID], nil
}

func cacheTestConfig() config.TokenConfiguration {
	return config.TokenConfiguration{
		SecretKey:       "test-secret-key",
		Expire:          time.Hour,
		RefreshExpire:   24 * time.Hour,
		RedisPrefix:     "aegis:token",
		RefreshPrefix:   "aegis:refresh_token",
		ExtraInfoPrefix: "aegis:token_extra",
		UserCachePrefix: "aegis:user",
		UserCacheTTL:    time.Hour,
	}
}

func enabledUser(id int64) *model.User {
	return &model.User{
		ID:       id,
		UUID:     "uuid-1",
		Username: "alice",
		Status:   model.StatusEnabled,
		Roles: []model.Role{
			{ID: 1, Name: "ops", Status: model.StatusEnabled},
		},
	}
}

func newCacheTest(t *testing.T, loader *fakeLoader) (*identity.Cache, *security.TokenIssuer, *session.Registry) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := cacheTestConfig()
	registry := session.NewRegistry(client)
	issuer := security.NewTokenIssuer(cfg, registry)
	return identity.NewCache(cfg, issuer, registry, loader), issuer, registry
}

func TestResolveReturnsSnapshotWithSessionID(t *testing.T) {
	loader := &fakeLoader{users: map[int64]*model.User{1: enabledUser(1)}}
	cache, issuer, _ := newCacheTest(t, loader)
	ctx := context.Background()

	access, err := issuer.IssueAccessToken(ctx, 1, true, nil)
	require.NoError(t, err)

	snap, err := cache.Resolve(ctx, access.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.ID)
	assert.Equal(t, "alice", snap.Username)
	assert.Equal(t, access.SessionID, snap.SessionID)
}

func TestResolveUsesCachedSnapshot(t *testing.T) {
	loader := &fakeLoader{users: map[int64]*model.User{1: enabledUser(1)}}
	cache, issuer, _ := newCacheTest(t, loader)
	ctx := context.Background()

	access, err := issuer.IssueAccessToken(ctx, 1, true, nil)
	require.NoError(t, err)

	_, err = cache.Resolve(ctx, access.Token)
	require.NoError(t, err)
	_, err = cache.Resolve(ctx, access.Token)
	require.NoError(t, err)

	assert.Equal(t, 1, loader.loads, "second resolve must hit the snapshot cache")
}

func TestResolveRejectsRevokedToken(t *testing.T) {
	loader := &fakeLoader{users: map[int64]*model.User{1: enabledUser(1)}}
	cache, issuer, _ := newCacheTest(t, loader)
	ctx := context.Background()

	access, err := issuer.IssueAccessToken(ctx, 1, true, nil)
	require.NoError(t, err)
	require.NoError(t, issuer.Revoke(ctx, 1, access.SessionID))

	// The signature still verifies; the registry says no
	_, err = cache.Resolve(ctx, access.Token)
	assert.ErrorIs(t, err, aegis_errors.ErrTokenExpired)
}

func TestResolveRejectsReplacedToken(t *testing.T) {
	loader := &fakeLoader{users: map[int64]*model.User{1: enabledUser(1)}}
	cache, issuer, _ := newCacheTest(t, loader)
	ctx := context.Background()

	// Single-session policy: the second issuance sweeps the first session,
	// so the first token's registry entry is gone entirely.
	first, err := issuer.IssueAccessToken(ctx, 1, false, nil)
	require.NoError(t, err)
	_, err = issuer.IssueAccessToken(ctx, 1, false, nil)
	require.NoError(t, err)

	_, err = cache.Resolve(ctx, first.Token)
	assert.ErrorIs(t, err, aegis_errors.ErrTokenExpired)
}

func TestResolveRejectsMismatchedRegistryValue(t *testing.T) {
	loader := &fakeLoader{users: map[int64]*model.User{1: enabledUser(1)}}
	cache, issuer, registry := newCacheTest(t, loader)
	ctx := context.Background()

	access, err := issuer.IssueAccessToken(ctx, 1, true, nil)
	require.NoError(t, err)

	// The registry entry exists but holds a different value than the
	// presented token; that is an invalid token, not an expired session.
	key := issuer.AccessKey(1, access.SessionID)
	require.NoError(t, registry.Put(ctx, key, "another-signed-token", time.Hour))

	_, err = cache.Resolve(ctx, access.Token)
	assert.ErrorIs(t, err, aegis_errors.ErrTokenInvalid)
	assert.NotErrorIs(t, err, aegis_errors.ErrTokenExpired)
}

func TestResolveRejectsUnknownUser(t *testing.T) {
	loader := &fakeLoader{users: map[int64]*model.User{}}
	cache, issuer, _ := newCacheTest(t, loader)
	ctx := context.Background()

	access, err := issuer.IssueAccessToken(ctx, 99, true, nil)
	require.NoError(t, err)

	_, err = cache.Resolve(ctx, access.Token)
	assert.ErrorIs(t, err, aegis_errors.ErrTokenInvalid)
}

func TestResolveAccountGates(t *testing.T) {
	disabledDept := &model.Dept{ID: 2, Name: "ops", Status: model.StatusDisabled}
	deletedDept := &model.Dept{ID: 3, Name: "old", Status: model.StatusEnabled, DelFlag: true}
	deptID2, deptID3 := int64(2), int64(3)

	cases := []struct {
		name string
		user *model.User
	}{
		{
			name: "disabled user",
			user: &model.User{ID: 1, Status: model.StatusDisabled},
		},
		{
			name: "disabled department",
			user: &model.User{ID: 1, Status: model.StatusEnabled, DeptID: &deptID2, Dept: disabledDept},
		},
		{
			name: "soft-deleted department",
			user: &model.User{ID: 1, Status: model.StatusEnabled, DeptID: &deptID3, Dept: deletedDept},
		},
		{
			name: "all roles disabled",
			user: &model.User{
				ID:     1,
				Status: model.StatusEnabled,
				Roles:  []model.Role{{ID: 1, Status: model.StatusDisabled}},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			loader := &fakeLoader{users: map[int64]*model.User{1: tc.user}}
			cache, issuer, _ := newCacheTest(t, loader)
			ctx := context.Background()

			access, err := issuer.IssueAccessToken(ctx, 1, true, nil)
			require.NoError(t, err)

			_, err = cache.Resolve(ctx, access.Token)
			assert.ErrorIs(t, err, aegis_errors.ErrAuthorizationDenied)
		})
	}
}

func TestResolveAllowsUserWithNoRoles(t *testing.T) {
	// The role gate only applies when roles are assigned; RBAC rejects the
	// user later, identity resolution does not.
	user := &model.User{ID: 1, Status: model.StatusEnabled}
	loader := &fakeLoader{users: map[int64]*model.User{1: user}}
	cache, issuer, _ := newCacheTest(t, loader)
	ctx := context.Background()

	access, err := issuer.IssueAccessToken(ctx, 1, true, nil)
	require.NoError(t, err)

	snap, err := cache.Resolve(ctx, access.Token)
	require.NoError(t, err)
	assert.Empty(t, snap.Roles)
}

func TestInvalidateForcesReload(t *testing.T) {
	user := enabledUser(1)
	loader := &fakeLoader{users: map[int64]*model.User{1: user}}
	cache, issuer, _ := newCacheTest(t, loader)
	ctx := context.Background()

	access, err := issuer.IssueAccessToken(ctx, 1, true, nil)
	require.NoError(t, err)

	snap, err := cache.Resolve(ctx, access.Token)
	require.NoError(t, err)
	assert.False(t, snap.IsSuperuser)

	user.IsSuperuser = true
	require.NoError(t, cache.Invalidate(ctx, 1))

	snap, err = cache.Resolve(ctx, access.Token)
	require.NoError(t, err)
	assert.True(t, snap.IsSuperuser, "invalidation must surface the write immediately")
	assert.Equal(t, 2, loader.loads)
}
