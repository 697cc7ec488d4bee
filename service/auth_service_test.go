// service/auth_service_test.go
package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/aegis-admin/aegis/config"
	"github.com/aegis-admin/aegis/dao"
	"github.com/aegis-admin/aegis/db"
	aegis_errors "github.com/aegis-admin/aegis/errors"
	"github.com/aegis-admin/aegis/identity"
	"github.com/aegis-admin/aegis/model"
	"github.com/aegis-admin/aegis/security"
	"github.com/aegis-admin/aegis/service"
	"github.com/aegis-admin/aegis/session"
)

// recordingAudit captures log entries in memory so tests can assert on what
// was recorded without a real sink.
type recordingAudit struct {
	mu     sync.Mutex
	logins []*model.LoginLog
	operas []*model.OperaLog
}

func (r *recordingAudit) RecordLogin(entry *model.LoginLog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logins = append(r.logins, entry)
}

func (r *recordingAudit) RecordOpera(entry *model.OperaLog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.operas = append(r.operas, entry)
}

func (r *recordingAudit) Close() {}

func (r *recordingAudit) loginStatuses() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	statuses := make([]int, len(r.logins))
	for i, entry := range r.logins {
		statuses[i] = entry.Status
	}
	return statuses
}

type authFixture struct {
	svc      *service.AuthService
	issuer   *security.TokenIssuer
	registry *session.Registry
	userDAO  *dao.UserDAO
	audit    *recordingAudit
	redis    *miniredis.Miniredis
}

func authTestConfig() config.TokenConfiguration {
	return config.TokenConfiguration{
		SecretKey:         "test-secret-key",
		Expire:            time.Hour,
		RefreshExpire:     24 * time.Hour,
		RedisPrefix:       "aegis:token",
		RefreshPrefix:     "aegis:refresh_token",
		ExtraInfoPrefix:   "aegis:token_extra",
		UserCachePrefix:   "aegis:user",
		UserCacheTTL:      time.Hour,
		OnlineSessionsKey: "aegis:online",
	}
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:auth_%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := authTestConfig()
	registry := session.NewRegistry(client)
	issuer := security.NewTokenIssuer(cfg, registry)
	userDAO := dao.NewUserDAO(gdb)
	auditSink := &recordingAudit{}

	return &authFixture{
		svc:      service.NewAuthService(cfg, userDAO, issuer, registry, auditSink),
		issuer:   issuer,
		registry: registry,
		userDAO:  userDAO,
		audit:    auditSink,
		redis:    mr,
	}
}

func (f *authFixture) seedAccount(t *testing.T, username, password string, mutate func(*model.User)) *model.User {
	t.Helper()
	hashed, err := security.HashPassword(password)
	require.NoError(t, err)
	user := &model.User{
		UUID:     "uuid-" + username,
		Username: username,
		Nickname: "nick-" + username,
		Email:    username + "@example.com",
		Password: hashed,
		Status:   model.StatusEnabled,
	}
	if mutate != nil {
		mutate(user)
	}
	require.NoError(t, f.userDAO.Create(context.Background(), user))
	return user
}

func testClient() service.ClientInfo {
	return service.ClientInfo{IP: "10.0.0.1", UserAgent: "test-agent", OS: "Linux", Browser: "Firefox", Device: "PC"}
}

func identitySnapshotFor(result *service.LoginResult) identity.Snapshot {
	return identity.Snapshot{
		ID:           result.User.ID,
		UUID:         result.User.UUID,
		Username:     result.User.Username,
		IsMultiLogin: result.User.IsMultiLogin,
		SessionID:    result.AccessToken.SessionID,
	}
}

func TestLoginIssuesTokenPair(t *testing.T) {
	f := newAuthFixture(t)
	f.seedAccount(t, "alice", "s3cret-pass", nil)
	ctx := context.Background()

	result, err := f.svc.Login(ctx, "alice", "s3cret-pass", testClient())
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken.Token)
	assert.NotEmpty(t, result.RefreshToken.Token)
	assert.NotNil(t, result.User.LastLoginTime)

	// The session lands in the online set and the registry
	online, err := f.redis.SMembers("aegis:online")
	require.NoError(t, err)
	assert.Contains(t, online, result.AccessToken.SessionID)

	extra, err := f.issuer.ExtraInfo(ctx, result.AccessToken.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "alice", extra["username"])
	assert.Equal(t, "10.0.0.1", extra["ip"])

	assert.Equal(t, []int{model.LoginLogSuccess}, f.audit.loginStatuses())
}

func TestLoginFailuresAreUniform(t *testing.T) {
	f := newAuthFixture(t)
	f.seedAccount(t, "alice", "s3cret-pass", nil)
	ctx := context.Background()

	// Unknown username and wrong password come back indistinguishable
	_, unknownErr := f.svc.Login(ctx, "nobody", "whatever", testClient())
	assert.ErrorIs(t, unknownErr, aegis_errors.ErrAuthentication)

	_, badPassErr := f.svc.Login(ctx, "alice", "wrong-pass", testClient())
	assert.ErrorIs(t, badPassErr, aegis_errors.ErrAuthentication)
	assert.Equal(t, unknownErr.Error(), badPassErr.Error())

	assert.Equal(t, []int{model.LoginLogFail, model.LoginLogFail}, f.audit.loginStatuses())
}

func TestLoginRejectsLockedAccount(t *testing.T) {
	f := newAuthFixture(t)
	f.seedAccount(t, "alice", "s3cret-pass", func(u *model.User) { u.Status = model.StatusDisabled })

	_, err := f.svc.Login(context.Background(), "alice", "s3cret-pass", testClient())
	assert.ErrorIs(t, err, aegis_errors.ErrAuthorizationDenied)
	assert.Equal(t, []int{model.LoginLogFail}, f.audit.loginStatuses())
}

func TestLoginSingleSessionSweepsPriorLogin(t *testing.T) {
	f := newAuthFixture(t)
	f.seedAccount(t, "alice", "s3cret-pass", nil)
	ctx := context.Background()

	first, err := f.svc.Login(ctx, "alice", "s3cret-pass", testClient())
	require.NoError(t, err)
	second, err := f.svc.Login(ctx, "alice", "s3cret-pass", testClient())
	require.NoError(t, err)

	_, ok, err := f.registry.Get(ctx, f.issuer.AccessKey(first.User.ID, first.AccessToken.SessionID))
	require.NoError(t, err)
	assert.False(t, ok, "the earlier session must be revoked")

	_, ok, err = f.registry.Get(ctx, f.issuer.AccessKey(second.User.ID, second.AccessToken.SessionID))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRefreshRotatesAccessToken(t *testing.T) {
	f := newAuthFixture(t)
	user := f.seedAccount(t, "alice", "s3cret-pass", func(u *model.User) { u.IsMultiLogin = true })
	ctx := context.Background()

	result, err := f.svc.Login(ctx, "alice", "s3cret-pass", testClient())
	require.NoError(t, err)

	access, err := f.svc.Refresh(ctx, result.RefreshToken.Token, testClient())
	require.NoError(t, err)
	payload, err := f.issuer.Decode(access.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, payload.UserID)
}

func TestRefreshRejectsAccessTokenAsRefresh(t *testing.T) {
	f := newAuthFixture(t)
	f.seedAccount(t, "alice", "s3cret-pass", nil)
	ctx := context.Background()

	result, err := f.svc.Login(ctx, "alice", "s3cret-pass", testClient())
	require.NoError(t, err)

	// Decodes fine, but no refresh entry exists under its value
	_, err = f.svc.Refresh(ctx, result.AccessToken.Token, testClient())
	assert.ErrorIs(t, err, aegis_errors.ErrTokenExpired)
}

func TestRefreshRejectsLockedAccount(t *testing.T) {
	f := newAuthFixture(t)
	user := f.seedAccount(t, "alice", "s3cret-pass", nil)
	ctx := context.Background()

	result, err := f.svc.Login(ctx, "alice", "s3cret-pass", testClient())
	require.NoError(t, err)

	require.NoError(t, f.userDAO.SetStatus(ctx, user.ID, model.StatusDisabled))

	_, err = f.svc.Refresh(ctx, result.RefreshToken.Token, testClient())
	assert.ErrorIs(t, err, aegis_errors.ErrAuthorizationDenied)
}

func TestLogoutMultiLoginDropsOnlyCurrentSession(t *testing.T) {
	f := newAuthFixture(t)
	f.seedAccount(t, "alice", "s3cret-pass", func(u *model.User) { u.IsMultiLogin = true })
	ctx := context.Background()

	first, err := f.svc.Login(ctx, "alice", "s3cret-pass", testClient())
	require.NoError(t, err)
	second, err := f.svc.Login(ctx, "alice", "s3cret-pass", testClient())
	require.NoError(t, err)

	ident := identitySnapshotFor(first)
	err = f.svc.Logout(ctx, &ident, first.RefreshToken.Token)
	require.NoError(t, err)

	_, ok, err := f.registry.Get(ctx, f.issuer.AccessKey(first.User.ID, first.AccessToken.SessionID))
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = f.registry.Get(ctx, f.issuer.AccessKey(second.User.ID, second.AccessToken.SessionID))
	require.NoError(t, err)
	assert.True(t, ok, "the other session survives a multi-login logout")

	// The presented refresh token is gone too
	_, err = f.svc.Refresh(ctx, first.RefreshToken.Token, testClient())
	assert.ErrorIs(t, err, aegis_errors.ErrTokenExpired)
}

func TestLogoutSingleLoginDropsEverything(t *testing.T) {
	f := newAuthFixture(t)
	f.seedAccount(t, "alice", "s3cret-pass", nil)
	ctx := context.Background()

	result, err := f.svc.Login(ctx, "alice", "s3cret-pass", testClient())
	require.NoError(t, err)

	ident := identitySnapshotFor(result)
	ident.IsMultiLogin = false
	err = f.svc.Logout(ctx, &ident, result.RefreshToken.Token)
	require.NoError(t, err)

	_, ok, err := f.registry.Get(ctx, f.issuer.AccessKey(result.User.ID, result.AccessToken.SessionID))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.svc.Refresh(ctx, result.RefreshToken.Token, testClient())
	assert.ErrorIs(t, err, aegis_errors.ErrTokenExpired)

	online, err := f.redis.SMembers("aegis:online")
	require.NoError(t, err)
	assert.NotContains(t, online, result.AccessToken.SessionID)
}
