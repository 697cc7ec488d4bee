// service/menu_service.go
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/aegis-admin/aegis/dao"
	aegis_errors "github.com/aegis-admin/aegis/errors"
	"github.com/aegis-admin/aegis/identity"
	logger "github.com/aegis-admin/aegis/logging"
	"github.com/aegis-admin/aegis/model"
	"github.com/aegis-admin/aegis/util"
	helper_util "github.com/aegis-admin/aegis/util/helper"
)

// IMenuService defines the interface for menu administration
type IMenuService interface {
	CreateMenu(ctx context.Context, menu *model.Menu) (*model.Menu, error)
	GetMenu(ctx context.Context, menuID int64) (*model.Menu, error)
	GetMenuTree(ctx context.Context) ([]*model.Menu, error)
	GetSidebar(ctx context.Context, ident *identity.Snapshot) ([]*model.Menu, error)
	UpdateMenu(ctx context.Context, menu *model.Menu) (*model.Menu, error)
	DeleteMenu(ctx context.Context, menuID int64) error
}

// MenuService handles business logic for the menu tree. Menu changes ripple
// to everyone holding a role that references the menu, so mutations fan out
// identity invalidation through the role join.
type MenuService struct {
	menuDAO       *dao.MenuDAO
	roleDAO       *dao.RoleDAO
	identityCache *identity.Cache
	eventBus      *util.EventBus
}

var _ IMenuService = &MenuService{}

func NewMenuService(menuDAO *dao.MenuDAO, roleDAO *dao.RoleDAO, identityCache *identity.Cache, eventBus *util.EventBus) *MenuService {
	return &MenuService{
		menuDAO:       menuDAO,
		roleDAO:       roleDAO,
		identityCache: identityCache,
		eventBus:      eventBus,
	}
}

func (s *MenuService) CreateMenu(ctx context.Context, menu *model.Menu) (*model.Menu, error) {
	existing, err := s.menuDAO.GetByTitle(ctx, menu.Title)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, aegis_errors.ErrMenuConflict
	}
	if menu.ParentID != nil {
		parent, err := s.menuDAO.GetByID(ctx, *menu.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, aegis_errors.ErrMenuNotFound
		}
	}

	if err := s.menuDAO.Create(ctx, menu); err != nil {
		return nil, err
	}
	logger.Info("Menu created", zap.Int64("menuID", menu.ID), zap.String("title", menu.Title))
	return menu, nil
}

func (s *MenuService) GetMenu(ctx context.Context, menuID int64) (*model.Menu, error) {
	menu, err := s.menuDAO.GetByID(ctx, menuID)
	if err != nil {
		return nil, err
	}
	if menu == nil {
		return nil, aegis_errors.ErrMenuNotFound
	}
	return menu, nil
}

// GetMenuTree returns the full menu forest for administration screens
func (s *MenuService) GetMenuTree(ctx context.Context) ([]*model.Menu, error) {
	menus, err := s.menuDAO.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return helper_util.BuildMenuTree(menus), nil
}

// GetSidebar returns the navigation forest for the caller: every enabled
// non-button menu for superusers, otherwise the union of the caller's role
// menus.
func (s *MenuService) GetSidebar(ctx context.Context, ident *identity.Snapshot) ([]*model.Menu, error) {
	menus, err := s.menuDAO.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	visible := make([]*model.Menu, 0, len(menus))
	if ident.IsSuperuser {
		for _, menu := range menus {
			if menu.Status == model.StatusEnabled && menu.Type != model.MenuTypeButton {
				visible = append(visible, menu)
			}
		}
		return helper_util.BuildMenuTree(visible), nil
	}

	granted := make(map[int64]struct{})
	for _, role := range ident.Roles {
		if role.Status != model.StatusEnabled {
			continue
		}
		for _, menu := range role.Menus {
			granted[menu.ID] = struct{}{}
		}
	}
	for _, menu := range menus {
		if _, ok := granted[menu.ID]; !ok {
			continue
		}
		if menu.Status == model.StatusEnabled && menu.Type != model.MenuTypeButton {
			visible = append(visible, menu)
		}
	}
	return helper_util.BuildMenuTree(visible), nil
}

func (s *MenuService) UpdateMenu(ctx context.Context, menu *model.Menu) (*model.Menu, error) {
	existing, err := s.menuDAO.GetByID(ctx, menu.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, aegis_errors.ErrMenuNotFound
	}
	if other, err := s.menuDAO.GetByTitle(ctx, menu.Title); err != nil {
		return nil, err
	} else if other != nil && other.ID != menu.ID {
		return nil, aegis_errors.ErrMenuConflict
	}

	if err := s.menuDAO.Update(ctx, menu); err != nil {
		return nil, err
	}
	if err := s.invalidateGrantees(ctx, menu.ID); err != nil {
		return nil, err
	}
	s.eventBus.Publish(ctx, util.EventMenuUpdated, menu.ID)
	return s.GetMenu(ctx, menu.ID)
}

// DeleteMenu removes a leaf menu. Menus with children are refused so the
// tree never orphans a subtree silently.
func (s *MenuService) DeleteMenu(ctx context.Context, menuID int64) error {
	hasChildren, err := s.menuDAO.HasChildren(ctx, menuID)
	if err != nil {
		return err
	}
	if hasChildren {
		return aegis_errors.ErrMenuHasChildren
	}

	// Collect grantees before the join rows disappear
	roleIDs, err := s.roleDAO.RoleIDsOfMenus(ctx, []int64{menuID})
	if err != nil {
		return err
	}
	userIDs, err := s.roleDAO.UserIDsOfRoles(ctx, roleIDs)
	if err != nil {
		return err
	}

	if err := s.menuDAO.Delete(ctx, menuID); err != nil {
		return err
	}
	for _, userID := range userIDs {
		if err := s.identityCache.Invalidate(ctx, userID); err != nil {
			return err
		}
	}
	s.eventBus.Publish(ctx, util.EventMenuUpdated, menuID)
	return nil
}

func (s *MenuService) invalidateGrantees(ctx context.Context, menuID int64) error {
	roleIDs, err := s.roleDAO.RoleIDsOfMenus(ctx, []int64{menuID})
	if err != nil {
		return err
	}
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
