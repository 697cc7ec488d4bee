// dao/log_dao.go
package dao

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	aegis_errors "github.com/aegis-admin/aegis/errors"
	logger "github.com/aegis-admin/aegis/logging"
	"github.com/aegis-admin/aegis/model"
)

// LoginLogDAO persists login attempt records
type LoginLogDAO struct {
	DB *gorm.DB
}

func NewLoginLogDAO(db *gorm.DB) *LoginLogDAO {
	return &LoginLogDAO{DB: db}
}

func (dao *LoginLogDAO) Create(ctx context.Context, entry *model.LoginLog) error {
	if err := dao.DB.WithContext(ctx).Create(entry).Error; err != nil {
		logger.Error("Failed to write login log", zap.Error(err), zap.String("username", entry.Username))
		return fmt.Errorf("%w: create login log: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return nil
}

func (dao *LoginLogDAO) List(ctx context.Context, username, ip string, status *int, limit, offset int) ([]*model.LoginLog, int64, error) {
	query := dao.DB.WithContext(ctx).Model(&model.LoginLog{})
	if username != "" {
		query = query.Where("username LIKE ?", "%"+username+"%")
	}
	if ip != "" {
		query = query.Where("ip LIKE ?", "%"+ip+"%")
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: count login logs: %v", aegis_errors.ErrDatabaseOperation, err)
	}

	var entries []*model.LoginLog
	if err := query.Order("created_time DESC").Limit(limit).Offset(offset).Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: list login logs: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return entries, total, nil
}

// DeleteAll truncates the login log table. The scheduled purge task calls it.
func (dao *LoginLogDAO) DeleteAll(ctx context.Context) (int64, error) {
	result := dao.DB.WithContext(ctx).Where("1 = 1").Delete(&model.LoginLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("%w: purge login logs: %v", aegis_errors.ErrDatabaseOperation, result.Error)
	}
	return result.RowsAffected, nil
}

// OperaLogDAO persists backend mutation records
type OperaLogDAO struct {
	DB *gorm.DB
}

func NewOperaLogDAO(db *gorm.DB) *OperaLogDAO {
	return &OperaLogDAO{DB: db}
}

func (dao *OperaLogDAO) Create(ctx context.Context, entry *model.OperaLog) error {
	if err := dao.DB.WithContext(ctx).Create(entry).Error; err != nil {
		logger.Error("Failed to write operation log", zap.Error(err), zap.String("path", entry.Path))
		return fmt.Errorf("%w: create operation log: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return nil
}

func (dao *OperaLogDAO) List(ctx context.Context, username, ip string, status *int, limit, offset int) ([]*model.OperaLog, int64, error) {
	query := dao.DB.WithContext(ctx).Model(&model.OperaLog{})
	if username != "" {
		query = query.Where("username LIKE ?", "%"+username+"%")
	}
	if ip != "" {
		query = query.Where("ip LIKE ?", "%"+ip+"%")
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: count operation logs: %v", aegis_errors.ErrDatabaseOperation, err)
	}

	var entries []*model.OperaLog
	if err := query.Order("created_time DESC").Limit(limit).Offset(offset).Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: list operation logs: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return entries, total, nil
}

// DeleteAll truncates the operation log table. The scheduled purge task calls it.
func (dao *OperaLogDAO) DeleteAll(ctx context.Context) (int64, error) {
	result := dao.DB.WithContext(ctx).Where("1 = 1").Delete(&model.OperaLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("%w: purge operation logs: %v", aegis_errors.ErrDatabaseOperation, result.Error)
	}
	return result.RowsAffected, nil
}
