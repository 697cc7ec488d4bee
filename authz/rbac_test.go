// authz/rbac_test.go
package authz_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aegis-admin/aegis/authz"
	"github.com/aegis-admin/aegis/config"
	aegis_errors "github.com/aegis-admin/aegis/errors"
	"github.com/aegis-admin/aegis/identity"
	"github.com/aegis-admin/aegis/model"
)

type fakePolicy struct {
	allowed bool
	err     error
}

func (f *fakePolicy) Enforce(_ context.Context, _ *identity.Snapshot, _, _ string) (bool, error) {
	return f.allowed, f.err
}

func menuPermEngine(exclude ...string) *authz.Engine {
	cfg := config.RBACConfiguration{Mode: authz.ModeMenuPerm, PermExclude: exclude}
	return authz.NewEngine(cfg, authz.NewModelRegistry(nil), nil)
}

func identWithPerms(perms ...string) *identity.Snapshot {
	menus := make([]identity.MenuView, 0, len(perms))
	for i, perm := range perms {
		menus = append(menus, identity.MenuView{ID: int64(i + 1), Perms: perm, Status: model.StatusEnabled})
	}
	return &identity.Snapshot{
		ID:      1,
		IsStaff: true,
		Status:  model.StatusEnabled,
		Roles: []identity.RoleView{
			{ID: 1, Name: "ops", Status: model.StatusEnabled, Menus: menus},
		},
	}
}

func TestAuthorizeSuperuserBypassesEverything(t *testing.T) {
	engine := menuPermEngine()
	ident := &identity.Snapshot{ID: 1, IsSuperuser: true}

	// No roles, no menus, not staff: the bypass comes first
	err := engine.Authorize(context.Background(), ident, "sys:user:del", "/api/v1/sys/users/1", http.MethodDelete)
	assert.NoError(t, err)
}

func TestAuthorizeRequiresEnabledRole(t *testing.T) {
	engine := menuPermEngine()

	noRoles := &identity.Snapshot{ID: 1, IsStaff: true}
	err := engine.Authorize(context.Background(), noRoles, "sys:user:list", "/x", http.MethodGet)
	assert.ErrorIs(t, err, aegis_errors.ErrAuthorizationDenied)

	disabledRole := &identity.Snapshot{
		ID:      1,
		IsStaff: true,
		Roles:   []identity.RoleView{{ID: 1, Status: model.StatusDisabled, Menus: []identity.MenuView{{ID: 1}}}},
	}
	err = engine.Authorize(context.Background(), disabledRole, "sys:user:list", "/x", http.MethodGet)
	assert.ErrorIs(t, err, aegis_errors.ErrAuthorizationDenied)
}

func TestAuthorizeRequiresMenus(t *testing.T) {
	engine := menuPermEngine()
	ident := &identity.Snapshot{
		ID:      1,
		IsStaff: true,
		Roles:   []identity.RoleView{{ID: 1, Status: model.StatusEnabled}},
	}

	err := engine.Authorize(context.Background(), ident, "sys:user:list", "/x", http.MethodGet)
	assert.ErrorIs(t, err, aegis_errors.ErrAuthorizationDenied)
}

func TestAuthorizeStaffGateOnMutatingMethods(t *testing.T) {
	engine := menuPermEngine()
	ident := identWithPerms("sys:user:list,sys:user:add")
	ident.IsStaff = false

	// Reads pass without staff
	err := engine.Authorize(context.Background(), ident, "sys:user:list", "/x", http.MethodGet)
	assert.NoError(t, err)

	// Writes require staff even with the permission granted
	err = engine.Authorize(context.Background(), ident, "sys:user:add", "/x", http.MethodPost)
	assert.ErrorIs(t, err, aegis_errors.ErrAuthorizationDenied)
}

func TestMenuPermGrantsByUnionOfEnabledMenus(t *testing.T) {
	engine := menuPermEngine()
	ident := identWithPerms("sys:user:list,sys:user:get", "sys:role:list")

	assert.NoError(t, engine.Authorize(context.Background(), ident, "sys:user:get", "/x", http.MethodGet))
	assert.NoError(t, engine.Authorize(context.Background(), ident, "sys:role:list", "/x", http.MethodGet))

	err := engine.Authorize(context.Background(), ident, "sys:user:del", "/x", http.MethodGet)
	assert.ErrorIs(t, err, aegis_errors.ErrAuthorizationDenied)
}

func TestMenuPermSkipsDisabledMenus(t *testing.T) {
	engine := menuPermEngine()
	ident := &identity.Snapshot{
		ID:      1,
		IsStaff: true,
		Roles: []identity.RoleView{{
			ID: 1, Status: model.StatusEnabled,
			Menus: []identity.MenuView{
				{ID: 1, Perms: "sys:user:list", Status: model.StatusDisabled},
			},
		}},
	}

	err := engine.Authorize(context.Background(), ident, "sys:user:list", "/x", http.MethodGet)
	assert.ErrorIs(t, err, aegis_errors.ErrAuthorizationDenied)
}

func TestMenuPermEmptyIdentifierPasses(t *testing.T) {
	engine := menuPermEngine()
	ident := identWithPerms("sys:user:list")

	assert.NoError(t, engine.Authorize(context.Background(), ident, "", "/x", http.MethodGet))
}

func TestMenuPermExcludeListPasses(t *testing.T) {
	engine := menuPermEngine("sys:monitor:redis")
	ident := identWithPerms("sys:user:list")

	assert.NoError(t, engine.Authorize(context.Background(), ident, "sys:monitor:redis", "/x", http.MethodGet))
}

func TestCasbinModeDeniesOnPolicyVerdict(t *testing.T) {
	cfg := config.RBACConfiguration{Mode: authz.ModeCasbin}
	engine := authz.NewEngine(cfg, authz.NewModelRegistry(nil), &fakePolicy{allowed: false})
	ident := identWithPerms("anything")

	err := engine.Authorize(context.Background(), ident, "", "/api/v1/sys/users", http.MethodGet)
	assert.ErrorIs(t, err, aegis_errors.ErrAuthorizationDenied)
}

func TestCasbinModeAllowsOnPolicyVerdict(t *testing.T) {
	cfg := config.RBACConfiguration{Mode: authz.ModeCasbin}
	engine := authz.NewEngine(cfg, authz.NewModelRegistry(nil), &fakePolicy{allowed: true})
	ident := identWithPerms("anything")

	assert.NoError(t, engine.Authorize(context.Background(), ident, "", "/api/v1/sys/users", http.MethodGet))
}

func TestCasbinModeFailsClosed(t *testing.T) {
	cfg := config.RBACConfiguration{Mode: authz.ModeCasbin}
	ident := identWithPerms("anything")

	// Evaluator error is a server error, never a silent allow
	engine := authz.NewEngine(cfg, authz.NewModelRegistry(nil), &fakePolicy{err: errors.New("enforcer down")})
	err := engine.Authorize(context.Background(), ident, "", "/x", http.MethodGet)
	assert.ErrorIs(t, err, aegis_errors.ErrServerError)

	// Missing evaluator likewise
	engine = authz.NewEngine(cfg, authz.NewModelRegistry(nil), nil)
	err = engine.Authorize(context.Background(), ident, "", "/x", http.MethodGet)
	assert.ErrorIs(t, err, aegis_errors.ErrServerError)
}

func TestUnknownModeIsServerError(t *testing.T) {
	cfg := config.RBACConfiguration{Mode: "acl"}
	engine := authz.NewEngine(cfg, authz.NewModelRegistry(nil), nil)
	ident := identWithPerms("anything")

	err := engine.Authorize(context.Background(), ident, "", "/x", http.MethodGet)
	assert.ErrorIs(t, err, aegis_errors.ErrServerError)
}
