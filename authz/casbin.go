// authz/casbin.go
package authz

import (
	"context"
	"fmt"

	"github.com/casbin/casbin/v2"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"github.com/aegis-admin/aegis/config"
	"github.com/aegis-admin/aegis/identity"
	"github.com/aegis-admin/aegis/model"
)

// CasbinEvaluator adapts a casbin enforcer to the PolicyEvaluator interface.
// Requests are enforced as (subject, path, method), where the subject is the
// user's UUID first and then each enabled role name, so a user passes when
// any of their enabled roles holds a matching policy.
type CasbinEvaluator struct {
	enforcer *casbin.SyncedEnforcer
}

func NewCasbinEvaluator(cfg config.RBACConfiguration) (*CasbinEvaluator, error) {
	adapter := fileadapter.NewAdapter(cfg.CasbinPolicyFile)
	enforcer, err := casbin.NewSyncedEnforcer(cfg.CasbinModelFile, adapter)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}
	return &CasbinEvaluator{enforcer: enforcer}, nil
}

func (c *CasbinEvaluator) Enforce(ctx context.Context, ident *identity.Snapshot, path, method string) (bool, error) {
	allowed, err := c.enforcer.Enforce(ident.UUID, path, method)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}
	if allowed {
		return true, nil
	}
	for _, role := range ident.Roles {
		if role.Status != model.StatusEnabled {
			continue
		}
		allowed, err := c.enforcer.Enforce(role.Name, path, method)
		if err != nil {
			return false, fmt.Errorf("enforcement failed: %w", err)
		}
		if allowed {
			return true, nil
		}
	}
	return false, nil
}

// ReloadPolicy re-reads the policy file after out-of-band edits.
func (c *CasbinEvaluator) ReloadPolicy() error {
	return c.enforcer.LoadPolicy()
}
