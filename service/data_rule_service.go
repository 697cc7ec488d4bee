// service/data_rule_service.go
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/aegis-admin/aegis/authz"
	"github.com/aegis-admin/aegis/dao"
	aegis_errors "github.com/aegis-admin/aegis/errors"
	"github.com/aegis-admin/aegis/identity"
	logger "github.com/aegis-admin/aegis/logging"
	"github.com/aegis-admin/aegis/model"
	"github.com/aegis-admin/aegis/util"
)

// IDataRuleService defines the interface for data-scope rule administration
type IDataRuleService interface {
	CreateRule(ctx context.Context, rule *model.DataRule) (*model.DataRule, error)
	GetRule(ctx context.Context, ruleID int64) (*model.DataRule, error)
	ListRules(ctx context.Context, name string, limit, offset int) ([]*model.DataRule, int64, error)
	ListRuleModels(ctx context.Context) []string
	ListRuleColumns(ctx context.Context, modelName string) ([]string, error)
	UpdateRule(ctx context.Context, rule *model.DataRule) (*model.DataRule, error)
	DeleteRule(ctx context.Context, ruleID int64) error
}

// DataRuleService handles business logic for data-scope rules. Rules are
// validated against the model registry on write so broken rules are caught
// before they ever reach predicate compilation.
type DataRuleService struct {
	dataRuleDAO   *dao.DataRuleDAO
	roleDAO       *dao.RoleDAO
	registry      *authz.ModelRegistry
	identityCache *identity.Cache
	eventBus      *util.EventBus
}

var _ IDataRuleService = &DataRuleService{}

func NewDataRuleService(dataRuleDAO *dao.DataRuleDAO, roleDAO *dao.RoleDAO, registry *authz.ModelRegistry, identityCache *identity.Cache, eventBus *util.EventBus) *DataRuleService {
	return &DataRuleService{
		dataRuleDAO:   dataRuleDAO,
		roleDAO:       roleDAO,
		registry:      registry,
		identityCache: identityCache,
		eventBus:      eventBus,
	}
}

func (s *DataRuleService) CreateRule(ctx context.Context, rule *model.DataRule) (*model.DataRule, error) {
	if err := s.validateTarget(rule); err != nil {
		return nil, err
	}
	existing, err := s.dataRuleDAO.GetByName(ctx, rule.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, aegis_errors.ErrDataRuleConflict
	}

	if err := s.dataRuleDAO.Create(ctx, rule); err != nil {
		return nil, err
	}
	logger.Info("Data rule created", zap.Int64("ruleID", rule.ID), zap.String("name", rule.Name))
	return rule, nil
}

func (s *DataRuleService) GetRule(ctx context.Context, ruleID int64) (*model.DataRule, error) {
	rule, err := s.dataRuleDAO.GetByID(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, aegis_errors.ErrDataRuleNotFound
	}
	return rule, nil
}

func (s *DataRuleService) ListRules(ctx context.Context, name string, limit, offset int) ([]*model.DataRule, int64, error) {
	return s.dataRuleDAO.List(ctx, name, limit, offset)
}

// ListRuleModels returns the names rules may target
func (s *DataRuleService) ListRuleModels(ctx context.Context) []string {
	return s.registry.ModelNames()
}

// ListRuleColumns returns the columns rules may reference on a model
func (s *DataRuleService) ListRuleColumns(ctx context.Context, modelName string) ([]string, error) {
	desc, ok := s.registry.Lookup(modelName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", aegis_errors.ErrRuleModelNotFound, modelName)
	}
	return desc.ColumnNames(), nil
}

func (s *DataRuleService) UpdateRule(ctx context.Context, rule *model.DataRule) (*model.DataRule, error) {
	if err := s.validateTarget(rule); err != nil {
		return nil, err
	}
	existing, err := s.dataRuleDAO.GetByID(ctx, rule.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, aegis_errors.ErrDataRuleNotFound
	}
	if other, err := s.dataRuleDAO.GetByName(ctx, rule.Name); err != nil {
		return nil, err
	} else if other != nil && other.ID != rule.ID {
		return nil, aegis_errors.ErrDataRuleConflict
	}

	if err := s.dataRuleDAO.Update(ctx, rule); err != nil {
		return nil, err
	}
	if err := s.invalidateHolders(ctx, rule.ID); err != nil {
		return nil, err
	}
	s.eventBus.Publish(ctx, util.EventRuleUpdated, rule.ID)
	return s.GetRule(ctx, rule.ID)
}

func (s *DataRuleService) DeleteRule(ctx context.Context, ruleID int64) error {
	// Collect holders before the join rows disappear
	roleIDs, err := s.roleDAO.RoleIDsOfRules(ctx, []int64{ruleID})
	if err != nil {
		return err
	}
	userIDs, err := s.roleDAO.UserIDsOfRoles(ctx, roleIDs)
	if err != nil {
		return err
	}

	if err := s.dataRuleDAO.Delete(ctx, ruleID); err != nil {
		return err
	}
	for _, userID := range userIDs {
		if err := s.identityCache.Invalidate(ctx, userID); err != nil {
			return err
		}
	}
	s.eventBus.Publish(ctx, util.EventRuleUpdated, ruleID)
	return nil
}

func (s *DataRuleService) validateTarget(rule *model.DataRule) error {
	desc, ok := s.registry.Lookup(rule.Model)
	if !ok {
		return fmt.Errorf("%w: %q", aegis_errors.ErrRuleModelNotFound, rule.Model)
	}
	if !desc.HasColumn(rule.Column) {
		return fmt.Errorf("%w: %s.%s", aegis_errors.ErrRuleColumnNotFound, rule.Model, rule.Column)
	}
	return nil
}

func (s *DataRuleService) invalidateHolders(ctx context.Context, ruleID int64) error {
	roleIDs, err := s.roleDAO.RoleIDsOfRules(ctx, []int64{ruleID})
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
