// dao/dept_dao.go
package dao

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aegis-admin/aegis/authz"
	aegis_errors "github.com/aegis-admin/aegis/errors"
	logger "github.com/aegis-admin/aegis/logging"
	"github.com/aegis-admin/aegis/model"
)

type DeptDAO struct {
	DB *gorm.DB
}

func NewDeptDAO(db *gorm.DB) *DeptDAO {
	return &DeptDAO{DB: db}
}

func (dao *DeptDAO) Create(ctx context.Context, dept *model.Dept) error {
	if err := dao.DB.WithContext(ctx).Create(dept).Error; err != nil {
		logger.Error("Failed to create department", zap.Error(err), zap.String("name", dept.Name))
		return fmt.Errorf("%w: create department: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return nil
}

func (dao *DeptDAO) GetByID(ctx context.Context, deptID int64) (*model.Dept, error) {
	var dept model.Dept
	err := dao.DB.WithContext(ctx).Where("del_flag = ?", false).First(&dept, deptID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get department: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return &dept, nil
}

// ListAll returns every live department, filtered by the caller's data-scope
// predicate, ordered for tree assembly.
func (dao *DeptDAO) ListAll(ctx context.Context, pred authz.Predicate, name string, status *int) ([]*model.Dept, error) {
	query := dao.DB.WithContext(ctx).
		Where("del_flag = ?", false).
		Where(pred.SQL, pred.Args...)
	if name != "" {
		query = query.Where("name LIKE ?", "%"+name+"%")
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var depts []*model.Dept
	if err := query.Order("sort, id").Find(&depts).Error; err != nil {
		logger.Error("Failed to list departments", zap.Error(err))
		return nil, fmt.Errorf("%w: list departments: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return depts, nil
}

// UserCount counts live accounts attached to the department
func (dao *DeptDAO) UserCount(ctx context.Context, deptID int64) (int64, error) {
	var count int64
	err := dao.DB.WithContext(ctx).Model(&model.User{}).Where("dept_id = ?", deptID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("%w: count department users: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return count, nil
}

// UserIDs returns the IDs of every account attached to the department
func (dao *DeptDAO) UserIDs(ctx context.Context, deptID int64) ([]int64, error) {
	var userIDs []int64
	err := dao.DB.WithContext(ctx).Model(&model.User{}).
		Where("dept_id = ?", deptID).
		Pluck("id", &userIDs).Error
	if err != nil {
		return nil, fmt.Errorf("%w: department user ids: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return userIDs, nil
}

// HasChildren reports whether the department has live child departments
func (dao *DeptDAO) HasChildren(ctx context.Context, deptID int64) (bool, error) {
	var count int64
	err := dao.DB.WithContext(ctx).Model(&model.Dept{}).
		Where("parent_id = ? AND del_flag = ?", deptID, false).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("%w: count department children: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return count > 0, nil
}

func (dao *DeptDAO) Update(ctx context.Context, dept *model.Dept) error {
	if err := dao.DB.WithContext(ctx).Model(dept).Updates(map[string]any{
		"name":      dept.Name,
		"sort":      dept.Sort,
		"leader":    dept.Leader,
		"phone":     dept.Phone,
		"email":     dept.Email,
		"status":    dept.Status,
		"parent_id": dept.ParentID,
	}).Error; err != nil {
		logger.Error("Failed to update department", zap.Error(err), zap.Int64("deptID", dept.ID))
		return fmt.Errorf("%w: update department: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return nil
}

// Delete soft-deletes a department by raising its del_flag. Rows stay behind
// so historical user records keep a resolvable department reference.
func (dao *DeptDAO) Delete(ctx context.Context, deptID int64) error {
	result := dao.DB.WithContext(ctx).Model(&model.Dept{}).
		Where("id = ? AND del_flag = ?", deptID, false).
		Update("del_flag", true)
	if result.Error != nil {
		logger.Error("Failed to delete department", zap.Error(result.Error), zap.Int64("deptID", deptID))
		return fmt.Errorf("%w: delete department: %v", aegis_errors.ErrDatabaseOperation, result.Error)
	}
	if result.RowsAffected == 0 {
		return aegis_errors.ErrDeptNotFound
	}
	return nil
}
