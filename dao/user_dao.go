// dao/user_dao.go
package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aegis-admin/aegis/authz"
	aegis_errors "github.com/aegis-admin/aegis/errors"
	logger "github.com/aegis-admin/aegis/logging"
	"github.com/aegis-admin/aegis/model"
)

// UserDAO is the persistence layer for accounts. Lookup methods report a
// missing row as (nil, nil); callers decide whether absence is an error.
type UserDAO struct {
	DB *gorm.DB
}

func NewUserDAO(db *gorm.DB) *UserDAO {
	return &UserDAO{DB: db}
}

func (dao *UserDAO) Create(ctx context.Context, user *model.User) error {
	if err := dao.DB.WithContext(ctx).Create(user).Error; err != nil {
		logger.Error("Failed to create user", zap.Error(err), zap.String("username", user.Username))
		return fmt.Errorf("%w: create user: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return nil
}

func (dao *UserDAO) GetByID(ctx context.Context, userID int64) (*model.User, error) {
	var user model.User
	err := dao.DB.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get user: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return &user, nil
}

func (dao *UserDAO) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := dao.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get user by username: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return &user, nil
}

// FieldTaken reports whether another user already owns the value in the
// given unique column. Conflict checks pass the ID being updated so a user
// does not collide with itself.
func (dao *UserDAO) FieldTaken(ctx context.Context, column, value string, excludeID int64) (bool, error) {
	var count int64
	err := dao.DB.WithContext(ctx).Model(&model.User{}).
		Where(column+" = ? AND id <> ?", value, excludeID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("%w: check user %s: %v", aegis_errors.ErrDatabaseOperation, column, err)
	}
	return count > 0, nil
}

// GetUserWithRelations loads the full authorization view: department, roles,
// and each role's menus and data rules. This is the identity cache's loader.
func (dao *UserDAO) GetUserWithRelations(ctx context.Context, userID int64) (*model.User, error) {
	var user model.User
	err := dao.DB.WithContext(ctx).
		Preload("Dept").
		Preload("Roles").
		Preload("Roles.Menus").
		Preload("Roles.Rules").
		First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get user with relations: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return &user, nil
}

// List returns a page of users filtered by the caller's data-scope predicate.
func (dao *UserDAO) List(ctx context.Context, pred authz.Predicate, deptID *int64, username string, status *int, limit, offset int) ([]*model.User, int64, error) {
	query := dao.DB.WithContext(ctx).Model(&model.User{}).Where(pred.SQL, pred.Args...)
	if deptID != nil {
		query = query.Where("dept_id = ?", *deptID)
	}
	if username != "" {
		query = query.Where("username LIKE ?", "%"+username+"%")
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: count users: %v", aegis_errors.ErrDatabaseOperation, err)
	}

	var users []*model.User
	err := query.Preload("Dept").Preload("Roles").
		Order("join_time DESC").
		Limit(limit).Offset(offset).
		Find(&users).Error
	if err != nil {
		logger.Error("Failed to list users", zap.Error(err))
		return nil, 0, fmt.Errorf("%w: list users: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return users, total, nil
}

func (dao *UserDAO) Update(ctx context.Context, user *model.User) error {
	if err := dao.DB.WithContext(ctx).Model(user).Updates(map[string]any{
		"nickname": user.Nickname,
		"email":    user.Email,
		"phone":    user.Phone,
		"avatar":   user.Avatar,
		"dept_id":  user.DeptID,
	}).Error; err != nil {
		logger.Error("Failed to update user", zap.Error(err), zap.Int64("userID", user.ID))
		return fmt.Errorf("%w: update user: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return nil
}

// UpdateRoles replaces the user's role set
func (dao *UserDAO) UpdateRoles(ctx context.Context, user *model.User, roles []model.Role) error {
	if err := dao.DB.WithContext(ctx).Model(user).Association("Roles").Replace(roles); err != nil {
		logger.Error("Failed to update user roles", zap.Error(err), zap.Int64("userID", user.ID))
		return fmt.Errorf("%w: update user roles: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return nil
}

func (dao *UserDAO) UpdateLoginTime(ctx context.Context, userID int64, at time.Time) error {
	if err := dao.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).
		Update("last_login_time", at).Error; err != nil {
		return fmt.Errorf("%w: update login time: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return nil
}

func (dao *UserDAO) SetStatus(ctx context.Context, userID int64, status int) error {
	return dao.setField(ctx, userID, "status", status)
}

func (dao *UserDAO) SetSuperuser(ctx context.Context, userID int64, super bool) error {
	return dao.setField(ctx, userID, "is_superuser", super)
}

func (dao *UserDAO) SetStaff(ctx context.Context, userID int64, staff bool) error {
	return dao.setField(ctx, userID, "is_staff", staff)
}

func (dao *UserDAO) SetMultiLogin(ctx context.Context, userID int64, multi bool) error {
	return dao.setField(ctx, userID, "is_multi_login", multi)
}

func (dao *UserDAO) ResetPassword(ctx context.Context, userID int64, hashed string) error {
	return dao.setField(ctx, userID, "password", hashed)
}

func (dao *UserDAO) setField(ctx context.Context, userID int64, column string, value any) error {
	result := dao.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Update(column, value)
	if result.Error != nil {
		logger.Error("Failed to update user field", zap.Error(result.Error),
			zap.Int64("userID", userID), zap.String("column", column))
		return fmt.Errorf("%w: update user %s: %v", aegis_errors.ErrDatabaseOperation, column, result.Error)
	}
	if result.RowsAffected == 0 {
		return aegis_errors.ErrUserNotFound
	}
	return nil
}

func (dao *UserDAO) Delete(ctx context.Context, userID int64) error {
	result := dao.DB.WithContext(ctx).Select("Roles").Delete(&model.User{ID: userID})
	if result.Error != nil {
		logger.Error("Failed to delete user", zap.Error(result.Error), zap.Int64("userID", userID))
		return fmt.Errorf("%w: delete user: %v", aegis_errors.ErrDatabaseOperation, result.Error)
	}
	if result.RowsAffected == 0 {
		return aegis_errors.ErrUserNotFound
	}
	return nil
}
