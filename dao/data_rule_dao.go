// dao/data_rule_dao.go
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

type DataRuleDAO struct {
	DB *gorm.DB
}

func NewDataRuleDAO(db *gorm.DB) *DataRuleDAO {
	return &DataRuleDAO{DB: db}
}

func (dao *DataRuleDAO) Create(ctx context.Context, rule *model.DataRule) error {
	if err := dao.DB.WithContext(ctx).Create(rule).Error; err != nil {
		logger.Error("Failed to create data rule", zap.Error(err), zap.String("name", rule.Name))
		return fmt.Errorf("%w: create data rule: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return nil
}

func (dao *DataRuleDAO) GetByID(ctx context.Context, ruleID int64) (*model.DataRule, error) {
	var rule model.DataRule
	err := dao.DB.WithContext(ctx).First(&rule, ruleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get data rule: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return &rule, nil
}

func (dao *DataRuleDAO) GetByName(ctx context.Context, name string) (*model.DataRule, error) {
	var rule model.DataRule
	err := dao.DB.WithContext(ctx).Where("name = ?", name).First(&rule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get data rule by name: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return &rule, nil
}

func (dao *DataRuleDAO) GetByIDs(ctx context.Context, ruleIDs []int64) ([]model.DataRule, error) {
	if len(ruleIDs) == 0 {
		return nil, nil
	}
	var rules []model.DataRule
	if err := dao.DB.WithContext(ctx).Where("id IN ?", ruleIDs).Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("%w: get data rules: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return rules, nil
}

func (dao *DataRuleDAO) List(ctx context.Context, name string, limit, offset int) ([]*model.DataRule, int64, error) {
	query := dao.DB.WithContext(ctx).Model(&model.DataRule{})
	if name != "" {
		query = query.Where("name LIKE ?", "%"+name+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: count data rules: %v", aegis_errors.ErrDatabaseOperation, err)
	}

	var rules []*model.DataRule
	if err := query.Order("id").Limit(limit).Offset(offset).Find(&rules).Error; err != nil {
		logger.Error("Failed to list data rules", zap.Error(err))
		return nil, 0, fmt.Errorf("%w: list data rules: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return rules, total, nil
}

func (dao *DataRuleDAO) Update(ctx context.Context, rule *model.DataRule) error {
	if err := dao.DB.WithContext(ctx).Model(rule).Updates(map[string]any{
		"name":       rule.Name,
		"model":      rule.Model,
		"column":     rule.Column,
		"operator":   rule.Operator,
		"expression": rule.Expression,
		"value":      rule.Value,
	}).Error; err != nil {
		logger.Error("Failed to update data rule", zap.Error(err), zap.Int64("ruleID", rule.ID))
		return fmt.Errorf("%w: update data rule: %v", aegis_errors.ErrDatabaseOperation, err)
	}
	return nil
}

func (dao *DataRuleDAO) Delete(ctx context.Context, ruleID int64) error {
	result := dao.DB.WithContext(ctx).Select("Roles").Delete(&model.DataRule{ID: ruleID})
	if result.Error != nil {
		logger.Error("Failed to delete data rule", zap.Error(result.Error), zap.Int64("ruleID", ruleID))
		return fmt.Errorf("%w: delete data rule: %v", aegis_errors.ErrDatabaseOperation, result.Error)
	}
	if result.RowsAffected == 0 {
		return aegis_errors.ErrDataRuleNotFound
	}
	return nil
}
