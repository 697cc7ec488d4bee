// service/role_service.go
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/aegis-admin/aegis/dao"
	aegis_errors "github.com/aegis-admin/aegis/errors"
	"github.com/aegis-admin/aegis/identity"
	logger "github.com/aegis-admin/aegis/logging"
	"github.com/aegis-admin/aegis/model"
	"github.com/aegis-admin/aegis/util"
)

// IRoleService defines the interface for role administration
type IRoleService interface {
	CreateRole(ctx context.Context, role *model.Role) (*model.Role, error)
	GetRole(ctx context.Context, roleID int64) (*model.Role, error)
	ListRoles(ctx context.Context, name string, status *int, limit, offset int) ([]*model.Role, int64, error)
	UpdateRole(ctx context.Context, role *model.Role) (*model.Role, error)
	UpdateRoleMenus(ctx context.Context, roleID int64, menuIDs []int64) error
	UpdateRoleRules(ctx context.Context, roleID int64, ruleIDs []int64) error
	DeleteRole(ctx context.Context, roleID int64) error
}

// RoleService handles business logic for role administration. A role change
// affects every holder of the role, so mutations invalidate the identity
// snapshot of each of them before returning.
type RoleService struct {
	roleDAO       *dao.RoleDAO
	menuDAO       *dao.MenuDAO
	dataRuleDAO   *dao.DataRuleDAO
	identityCache *identity.Cache
	eventBus      *util.EventBus
}

var _ IRoleService = &RoleService{}

func NewRoleService(roleDAO *dao.RoleDAO, menuDAO *dao.MenuDAO, dataRuleDAO *dao.DataRuleDAO, identityCache *identity.Cache, eventBus *util.EventBus) *RoleService {
	return &RoleService{
		roleDAO:       roleDAO,
		menuDAO:       menuDAO,
		dataRuleDAO:   dataRuleDAO,
		identityCache: identityCache,
		eventBus:      eventBus,
	}
}

func (s *RoleService) CreateRole(ctx context.Context, role *model.Role) (*model.Role, error) {
	existing, err := s.roleDAO.GetByName(ctx, role.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, aegis_errors.ErrRoleConflict
	}

	if err := s.roleDAO.Create(ctx, role); err != nil {
		return nil, err
	}
	logger.Info("Role created", zap.Int64("roleID", role.ID), zap.String("name", role.Name))
	return role, nil
}

func (s *RoleService) GetRole(ctx context.Context, roleID int64) (*model.Role, error) {
	role, err := s.roleDAO.GetWithRelations(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, aegis_errors.ErrRoleNotFound
	}
	return role, nil
}

func (s *RoleService) ListRoles(ctx context.Context, name string, status *int, limit, offset int) ([]*model.Role, int64, error) {
	return s.roleDAO.List(ctx, name, status, limit, offset)
}

func (s *RoleService) UpdateRole(ctx context.Context, role *model.Role) (*model.Role, error) {
	existing, err := s.roleDAO.GetByID(ctx, role.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, aegis_errors.ErrRoleNotFound
	}
	if other, err := s.roleDAO.GetByName(ctx, role.Name); err != nil {
		return nil, err
	} else if other != nil && other.ID != role.ID {
		return nil, aegis_errors.ErrRoleConflict
	}

	if err := s.roleDAO.Update(ctx, role); err != nil {
		return nil, err
	}
	if err := s.invalidateHolders(ctx, role.ID); err != nil {
		return nil, err
	}
	s.eventBus.Publish(ctx, util.EventRoleUpdated, role.ID)
	return s.GetRole(ctx, role.ID)
}

// UpdateRoleMenus replaces the role's menu grants
func (s *RoleService) UpdateRoleMenus(ctx context.Context, roleID int64, menuIDs []int64) error {
	role, err := s.roleDAO.GetByID(ctx, roleID)
	if err != nil {
		return err
	}
	if role == nil {
		return aegis_errors.ErrRoleNotFound
	}

	menus := make([]model.Menu, 0, len(menuIDs))
	for _, menuID := range menuIDs {
		menu, err := s.menuDAO.GetByID(ctx, menuID)
		if err != nil {
			return err
		}
		if menu == nil {
			return fmt.Errorf("%w: menu %d", aegis_errors.ErrMenuNotFound, menuID)
		}
		menus = append(menus, *menu)
	}

	if err := s.roleDAO.UpdateMenus(ctx, role, menus); err != nil {
		return err
	}
	if err := s.invalidateHolders(ctx, roleID); err != nil {
		return err
	}
	s.eventBus.Publish(ctx, util.EventRoleUpdated, roleID)
	return nil
}

// UpdateRoleRules replaces the role's data-scope rules
func (s *RoleService) UpdateRoleRules(ctx context.Context, roleID int64, ruleIDs []int64) error {
	role, err := s.roleDAO.GetByID(ctx, roleID)
	if err != nil {
		return err
	}
	if role == nil {
		return aegis_errors.ErrRoleNotFound
	}

	rules, err := s.dataRuleDAO.GetByIDs(ctx, ruleIDs)
	if err != nil {
		return err
	}
	if len(rules) != len(ruleIDs) {
		return aegis_errors.ErrDataRuleNotFound
	}

	if err := s.roleDAO.UpdateRules(ctx, role, rules); err != nil {
		return err
	}
	if err := s.invalidateHolders(ctx, roleID); err != nil {
		return err
	}
	s.eventBus.Publish(ctx, util.EventRoleUpdated, roleID)
	return nil
}

func (s *RoleService) DeleteRole(ctx context.Context, roleID int64) error {
	// Collect holders before the join rows disappear
	userIDs, err := s.roleDAO.UserIDsOfRoles(ctx, []int64{roleID})
	if err != nil {
		return err
	}

	if err := s.roleDAO.Delete(ctx, roleID); err != nil {
		return err
	}
	for _, userID := range userIDs {
		if err := s.identityCache.Invalidate(ctx, userID); err != nil {
			return err
		}
	}
	s.eventBus.Publish(ctx, util.EventRoleUpdated, roleID)
	return nil
}

func (s *RoleService) invalidateHolders(ctx context.Context, roleIDs ...int64) error {
	userIDs, err := s.roleDAO.UserIDsOfRoles(ctx, roleIDs)
	if err != nil {
		return err
	}
	for _, userID := range userIDs {
		if err := s.identityCache.Invalidate(ctx, userID); err != nil {
			return err
		}
	}
	return nil
}
