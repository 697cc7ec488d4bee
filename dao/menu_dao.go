// dao/menu_dao.go
package dao

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	aegis_errors "github.com/aegis-admin/aegis/errors"
	logger "github.com/aegis-admin/aegis/logging"
	"github.com/aegis-admin/aegis/model"
)

type MenuDAO struct {
	DB *gorm.DB
}

func NewMenuDAO(db *gorm.DB) *MenuDAO {
	return &MenuDAO{DB: db}
}

func (dao *MenuDAO) Create(ctx context.Context, menu *model.Menu) error {
	if err := dao.DB.WithContext(ctx).Create(menu).Error; err != nil {
		logger.Error("Failed to create menu", zap.Error(err), zap.String("title", menu.Title))
		return fmt.Errorf("%w: create menu: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return nil
}

func (dao *MenuDAO) GetByID(ctx context.Context, menuID int64) (*model.Menu, error) {
	var menu model.Menu
	err := dao.DB.WithContext(ctx).First(&menu, menuID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get menu: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return &menu, nil
}

func (dao *MenuDAO) GetByTitle(ctx context.Context, title string) (*model.Menu, error) {
	var menu model.Menu
	err := dao.DB.WithContext(ctx).Where("title = ?", title).First(&menu).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get menu by title: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return &menu, nil
}

// ListAll returns every menu ordered for tree assembly
func (dao *MenuDAO) ListAll(ctx context.Context) ([]*model.Menu, error) {
	var menus []*model.Menu
	if err := dao.DB.WithContext(ctx).Order("sort, id").Find(&menus).Error; err != nil {
		logger.Error("Failed to list menus", zap.Error(err))
		return nil, fmt.Errorf("%w: list menus: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return menus, nil
}

// HasChildren reports whether any menu points at menuID as its parent
func (dao *MenuDAO) HasChildren(ctx context.Context, menuID int64) (bool, error) {
	var count int64
	err := dao.DB.WithContext(ctx).Model(&model.Menu{}).Where("parent_id = ?", menuID).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("%w: count menu children: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return count > 0, nil
}

func (dao *MenuDAO) Update(ctx context.Context, menu *model.Menu) error {
	if err := dao.DB.WithContext(ctx).Model(menu).Updates(map[string]any{
		"title":     menu.Title,
		"name":      menu.Name,
		"path":      menu.Path,
		"sort":      menu.Sort,
		"icon":      menu.Icon,
		"type":      menu.Type,
		"component": menu.Component,
		"perms":     menu.Perms,
		"status":    menu.Status,
		"display":   menu.Display,
		"remark":    menu.Remark,
		"parent_id": menu.ParentID,
	}).Error; err != nil {
		logger.Error("Failed to update menu", zap.Error(err), zap.Int64("menuID", menu.ID))
		return fmt.Errorf("%w: update menu: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return nil
}

func (dao *MenuDAO) Delete(ctx context.Context, menuID int64) error {
	result := dao.DB.WithContext(ctx).Select("Roles").Delete(&model.Menu{ID: menuID})
	if result.Error != nil {
		logger.Error("Failed to delete menu", zap.Error(result.Error), zap.Int64("menuID", menuID))
		return fmt.Errorf("%w: delete menu: %v", aegis_errors.ErrDatabaseOperation, result.Error)
	}
	if result.RowsAffected == 0 {
		return aegis_errors.ErrMenuNotFound
	}
	return nil
}
