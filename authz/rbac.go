// authz/rbac.go
package authz

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/aegis-admin/aegis/config"
	aegis_errors "github.com/aegis-admin/aegis/errors"
	"github.com/aegis-admin/aegis/identity"
	"github.com/aegis-admin/aegis/model"
)

// RBAC modes
const (
	ModeMenuPerm = "menu-perm"
	ModeCasbin   = "casbin"
)

// PolicyEvaluator is the external policy engine used when the RBAC mode is
// "casbin". Unavailability is a server error, not an authorization denial.
type PolicyEvaluator interface {
	Enforce(ctx context.Context, ident *identity.Snapshot, path, method string) (bool, error)
}

// Engine is the per-request authorization gate combining the RBAC check with
// data-scope predicate compilation.
type Engine struct {
	cfg      config.RBACConfiguration
	registry *ModelRegistry
	policy   PolicyEvaluator
}

func NewEngine(cfg config.RBACConfiguration, registry *ModelRegistry, policy PolicyEvaluator) *Engine {
	return &Engine{cfg: cfg, registry: registry, policy: policy}
}

// Authorize runs the RBAC decision for one request. The order of the checks
// is significant and must not be rearranged: superuser bypass, role gate,
// menu gate, staff gate for mutating methods, then the mode-specific
// permission check.
func (e *Engine) Authorize(ctx context.Context, ident *identity.Snapshot, requiredPerm, path, method string) error {
	if ident.IsSuperuser {
		return nil
	}

	hasEnabledRole := false
	for _, role := range ident.Roles {
		if role.Status == model.StatusEnabled {
			hasEnabledRole = true
			break
		}
	}
	if !hasEnabledRole {
		return fmt.Errorf("%w: user has no assigned roles, please contact system administrator", aegis_errors.ErrAuthorizationDenied)
	}

	hasMenus := false
	for _, role := range ident.Roles {
		if len(role.Menus) > 0 {
			hasMenus = true
			break
		}
	}
	if !hasMenus {
		return fmt.Errorf("%w: user has no assigned menus, please contact system administrator", aegis_errors.ErrAuthorizationDenied)
	}

	if method != http.MethodGet && method != http.MethodOptions && !ident.IsStaff {
		return fmt.Errorf("%w: user is forbidden from backend operations, please contact system administrator", aegis_errors.ErrAuthorizationDenied)
	}

	switch e.cfg.Mode {
	case ModeMenuPerm:
		return e.checkMenuPerm(ident, requiredPerm)
	case ModeCasbin:
		if e.policy == nil {
			return fmt.Errorf("%w: permission verification failed, please contact system administrator", aegis_errors.ErrServerError)
		}
		allowed, err := e.policy.Enforce(ctx, ident, path, method)
		if err != nil {
			return fmt.Errorf("%w: permission verification failed: %v", aegis_errors.ErrServerError, err)
		}
		if !allowed {
			return aegis_errors.ErrAuthorizationDenied
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown RBAC mode %q", aegis_errors.ErrServerError, e.cfg.Mode)
	}
}

// checkMenuPerm verifies the route's permission identifier against the union
// of the identity's enabled menu permission strings. An empty identifier
// means the operation carries no permission tag and passes; identifiers on
// the configured exclude list also pass.
func (e *Engine) checkMenuPerm(ident *identity.Snapshot, requiredPerm string) error {
	if requiredPerm == "" {
		return nil
	}
	for _, excluded := range e.cfg.PermExclude {
		if requiredPerm == excluded {
			return nil
		}
	}

	allowed := make(map[string]struct{})
	for _, role := range ident.Roles {
		for _, menu := range role.Menus {
			if menu.Perms == "" || menu.Status != model.StatusEnabled {
				continue
			}
			for _, perm := range strings.Split(menu.Perms, ",") {
				allowed[strings.TrimSpace(perm)] = struct{}{}
			}
		}
	}
	if _, ok := allowed[requiredPerm]; !ok {
		return fmt.Errorf("%w: insufficient permission", aegis_errors.ErrAuthorizationDenied)
	}
	return nil
}
