// identity/snapshot.go
package identity

import (
	"time"

	"github.com/aegis-admin/aegis/model"
)

// Snapshot is the cached, authorization-relevant projection of a user. It is
// a point-in-time copy: staleness is bounded by write-side invalidation, not
// by TTL alone.
type Snapshot struct {
	ID            int64      `json:"id"`
	UUID          string     `json:"uuid"`
	Username      string     `json:"username"`
	Nickname      string     `json:"nickname"`
	IsSuperuser   bool       `json:"is_superuser"`
	IsStaff       bool       `json:"is_staff"`
	Status        int        `json:"status"`
	IsMultiLogin  bool       `json:"is_multi_login"`
	DeptID        *int64     `json:"dept_id"`
	LastLoginTime *time.Time `json:"last_login_time"`
	Roles         []RoleView `json:"roles"`

	// SessionID identifies the session the snapshot was resolved through.
	// It is filled per request and never cached.
	SessionID string `json:"-"`
}

// RoleView is the authorization-relevant slice of a role
type RoleView struct {
	ID     int64      `json:"id"`
	Name   string     `json:"name"`
	Status int        `json:"status"`
	Menus  []MenuView `json:"menus"`
	Rules  []RuleView `json:"rules"`
}

// MenuView carries only what the RBAC check reads
type MenuView struct {
	ID     int64  `json:"id"`
	Perms  string `json:"perms"`
	Status int    `json:"status"`
}

// RuleView is one data-scope rule as seen by the predicate compiler
type RuleView struct {
	ID         int64  `json:"id"`
	Model      string `json:"model"`
	Column     string `json:"column"`
	Operator   int    `json:"operator"`
	Expression int    `json:"expression"`
	Value      string `json:"value"`
}

// NewSnapshot projects a fully-loaded user record into a snapshot
func NewSnapshot(user *model.User) *Snapshot {
	snap := &Snapshot{
		ID:            user.ID,
		UUID:          user.UUID,
		Username:      user.Username,
		Nickname:      user.Nickname,
		IsSuperuser:   user.IsSuperuser,
		IsStaff:       user.IsStaff,
		Status:        user.Status,
		IsMultiLogin:  user.IsMultiLogin,
		DeptID:        user.DeptID,
		LastLoginTime: user.LastLoginTime,
	}
	for _, role := range user.Roles {
		rv := RoleView{ID: role.ID, Name: role.Name, Status: role.Status}
		for _, menu := range role.Menus {
			rv.Menus = append(rv.Menus, MenuView{ID: menu.ID, Perms: menu.Perms, Status: menu.Status})
		}
		for _, rule := range role.Rules {
			rv.Rules = append(rv.Rules, RuleView{
				ID:         rule.ID,
				Model:      rule.Model,
				Column:     rule.Column,
				Operator:   rule.Operator,
				Expression: rule.Expression,
				Value:      rule.Value,
			})
		}
		snap.Roles = append(snap.Roles, rv)
	}
	return snap
}
