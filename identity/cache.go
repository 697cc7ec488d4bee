// identity/cache.go
package identity

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/aegis-admin/aegis/config"
	aegis_errors "github.com/aegis-admin/aegis/errors"
	logger "github.com/aegis-admin/aegis/logging"
	"github.com/aegis-admin/aegis/model"
	"github.com/aegis-admin/aegis/security"
	"github.com/aegis-admin/aegis/session"
)

// Loader fetches a user with every relation the authorization view needs
// (roles with menus and rules, department). A missing user is reported as
// (nil, nil), never as an error.
type Loader interface {
	GetUserWithRelations(ctx context.Context, userID int64) (*model.User, error)
}

// Cache resolves a presented access token into an identity snapshot. The
// snapshot is cached per user; every write path that mutates a user's
// authorization view must call Invalidate before acknowledging the write.
type Cache struct {
	cfg      config.TokenConfiguration
	issuer   *security.TokenIssuer
	registry *session.Registry
	loader   Loader
}

func NewCache(cfg config.TokenConfiguration, issuer *security.TokenIssuer, registry *session.Registry, loader Loader) *Cache {
	return &Cache{cfg: cfg, issuer: issuer, registry: registry, loader: loader}
}

func (c *Cache) snapshotKey(userID int64) string {
	return fmt.Sprintf("%s:%d", c.cfg.UserCachePrefix, userID)
}

// Resolve validates a token against the session registry and returns the
// owner's identity snapshot. Sequencing matters: decode, then registry
// existence check, then stored-value equality, then snapshot lookup. The
// equality check defends against a token that still decodes validly but was
// revoked and replaced; the registry is the source of truth, not the
// signature.
func (c *Cache) Resolve(ctx context.Context, token string) (*Snapshot, error) {
	payload, err := c.issuer.Decode(token)
	if err != nil {
		return nil, err
	}

	stored, ok, err := c.registry.Get(ctx, c.issuer.AccessKey(payload.UserID, payload.SessionID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, aegis_errors.ErrTokenExpired
	}
	if stored != token {
		return nil, aegis_errors.ErrTokenInvalid
	}

	snap, err := c.lookup(ctx, payload.UserID)
	if err != nil {
		return nil, err
	}
	snap.SessionID = payload.SessionID
	return snap, nil
}

func (c *Cache) lookup(ctx context.Context, userID int64) (*Snapshot, error) {
	cached, ok, err := c.registry.Get(ctx, c.snapshotKey(userID))
	if err != nil {
		return nil, err
	}
	if ok {
		var snap Snapshot
		if err := json.Unmarshal([]byte(cached), &snap); err == nil {
			return &snap, nil
		}
		// Corrupt cache entry: drop it and fall through to a fresh load
		logger.Warn("Dropping undecodable identity snapshot", zap.Int64("userID", userID))
		_ = c.registry.DeleteExact(ctx, c.snapshotKey(userID))
	}

	user, err := c.loader.GetUserWithRelations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: identity load: %v", aegis_errors.ErrServerError, err)
	}
	if user == nil {
		return nil, aegis_errors.ErrTokenInvalid
	}
	if err := checkAccountGates(user); err != nil {
		return nil, err
	}

	snap := NewSnapshot(user)
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("%w: snapshot marshal: %v", aegis_errors.ErrServerError, err)
	}
	if err := c.registry.Put(ctx, c.snapshotKey(userID), string(data), c.cfg.UserCacheTTL); err != nil {
		return nil, err
	}
	return snap, nil
}

// Invalidate deletes the cached snapshot. Callers invoke it synchronously
// inside every mutation that touches the user's authorization view, so the
// next Resolve observes the change with no stale window.
func (c *Cache) Invalidate(ctx context.Context, userID int64) error {
	return c.registry.DeleteExact(ctx, c.snapshotKey(userID))
}

// checkAccountGates applies the account-level validity checks in order:
// user status, department status and soft-delete flag, and at least one
// enabled role when any roles are assigned.
func checkAccountGates(user *model.User) error {
	if user.Status != model.StatusEnabled {
		return fmt.Errorf("%w: user is locked, please contact system administrator", aegis_errors.ErrAuthorizationDenied)
	}
	if user.DeptID != nil && user.Dept != nil {
		if user.Dept.Status != model.StatusEnabled {
			return fmt.Errorf("%w: user's department is locked, please contact system administrator", aegis_errors.ErrAuthorizationDenied)
		}
		if user.Dept.DelFlag {
			return fmt.Errorf("%w: user's department has been deleted, please contact system administrator", aegis_errors.ErrAuthorizationDenied)
		}
	}
	if len(user.Roles) > 0 {
		enabled := false
		for _, role := range user.Roles {
			if role.Status == model.StatusEnabled {
				enabled = true
				break
			}
		}
		if !enabled {
			return fmt.Errorf("%w: user's roles are locked, please contact system administrator", aegis_errors.ErrAuthorizationDenied)
		}
	}
	return nil
}
