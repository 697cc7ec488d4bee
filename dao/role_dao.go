// dao/role_dao.go
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

type RoleDAO struct {
	DB *gorm.DB
}

func NewRoleDAO(db *gorm.DB) *RoleDAO {
	return &RoleDAO{DB: db}
}

func (dao *RoleDAO) Create(ctx context.Context, role *model.Role) error {
	if err := dao.DB.WithContext(ctx).Create(role).Error; err != nil {
		logger.Error("Failed to create role", zap.Error(err), zap.String("name", role.Name))
		return fmt.Errorf("%w: create role: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return nil
}

func (dao *RoleDAO) GetByID(ctx context.Context, roleID int64) (*model.Role, error) {
	var role model.Role
	err := dao.DB.WithContext(ctx).First(&role, roleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get role: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return &role, nil
}

func (dao *RoleDAO) GetByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	err := dao.DB.WithContext(ctx).Where("name = ?", name).First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get role by name: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return &role, nil
}

func (dao *RoleDAO) GetWithRelations(ctx context.Context, roleID int64) (*model.Role, error) {
	var role model.Role
	err := dao.DB.WithContext(ctx).Preload("Menus").Preload("Rules").First(&role, roleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get role with relations: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return &role, nil
}

func (dao *RoleDAO) List(ctx context.Context, name string, status *int, limit, offset int) ([]*model.Role, int64, error) {
	query := dao.DB.WithContext(ctx).Model(&model.Role{})
	if name != "" {
		query = query.Where("name LIKE ?", "%"+name+"%")
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: count roles: %v", aegis_errors.ErrDatabaseOperation, err)
	}

	var roles []*model.Role
	if err := query.Order("id").Limit(limit).Offset(offset).Find(&roles).Error; err != nil {
		logger.Error("Failed to list roles", zap.Error(err))
		return nil, 0, fmt.Errorf("%w: list roles: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return roles, total, nil
}

func (dao *RoleDAO) Update(ctx context.Context, role *model.Role) error {
	if err := dao.DB.WithContext(ctx).Model(role).Updates(map[string]any{
		"name":   role.Name,
		"status": role.Status,
		"remark": role.Remark,
	}).Error; err != nil {
		logger.Error("Failed to update role", zap.Error(err), zap.Int64("roleID", role.ID))
		return fmt.Errorf("%w: update role: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return nil
}

// UpdateMenus replaces the role's menu set
func (dao *RoleDAO) UpdateMenus(ctx context.Context, role *model.Role, menus []model.Menu) error {
	if err := dao.DB.WithContext(ctx).Model(role).Association("Menus").Replace(menus); err != nil {
		logger.Error("Failed to update role menus", zap.Error(err), zap.Int64("roleID", role.ID))
		return fmt.Errorf("%w: update role menus: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return nil
}

// UpdateRules replaces the role's data-rule set
func (dao *RoleDAO) UpdateRules(ctx context.Context, role *model.Role, rules []model.DataRule) error {
	if err := dao.DB.WithContext(ctx).Model(role).Association("Rules").Replace(rules); err != nil {
		logger.Error("Failed to update role rules", zap.Error(err), zap.Int64("roleID", role.ID))
		return fmt.Errorf("%w: update role rules: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return nil
}

// UserIDsOfRoles returns the IDs of every user holding any of the roles.
// Write paths use it to invalidate identity snapshots after a role change.
func (dao *RoleDAO) UserIDsOfRoles(ctx context.Context, roleIDs []int64) ([]int64, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	var userIDs []int64
	err := dao.DB.WithContext(ctx).
		Table("sys_user_role").
		Distinct("user_id").
		Where("role_id IN ?", roleIDs).
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, fmt.Errorf("%w: users of roles: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return userIDs, nil
}

// RoleIDsOfMenus returns the IDs of every role referencing any of the menus
func (dao *RoleDAO) RoleIDsOfMenus(ctx context.Context, menuIDs []int64) ([]int64, error) {
	if len(menuIDs) == 0 {
		return nil, nil
	}
	var roleIDs []int64
	err := dao.DB.WithContext(ctx).
		Table("sys_role_menu").
		Distinct("role_id").
		Where("menu_id IN ?", menuIDs).
		Pluck("role_id", &roleIDs).Error
	if err != nil {
		return nil, fmt.Errorf("%w: roles of menus: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return roleIDs, nil
}

// RoleIDsOfRules returns the IDs of every role referencing any of the rules
func (dao *RoleDAO) RoleIDsOfRules(ctx context.Context, ruleIDs []int64) ([]int64, error) {
	if len(ruleIDs) == 0 {
		return nil, nil
	}
	var roleIDs []int64
	err := dao.DB.WithContext(ctx).
		Table("sys_role_data_rule").
		Distinct("role_id").
		Where("data_rule_id IN ?", ruleIDs).
		Pluck("role_id", &roleIDs).Error
	if err != nil {
		return nil, fmt.Errorf("%w: roles of rules: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return roleIDs, nil
}

func (dao *RoleDAO) Delete(ctx context.Context, roleID int64) error {
	result := dao.DB.WithContext(ctx).Select("Menus", "Rules").Delete(&model.Role{ID: roleID})
	if result.Error != nil {
		logger.Error("Failed to delete role", zap.Error(result.Error), zap.Int64("roleID", roleID))
		return fmt.Errorf("%w: delete role: %v", aegis_errors.ErrDatabaseOperation, result.Error)
	}
	if result.RowsAffected == 0 {
		return aegis_errors.ErrRoleNotFound
	}
	return nil
}
