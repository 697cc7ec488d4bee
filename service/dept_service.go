// service/dept_service.go
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/aegis-admin/aegis/authz"
	"github.com/aegis-admin/aegis/dao"
	aegis_errors "github.com/aegis-admin/aegis/errors"
	"github.com/aegis-admin/aegis/identity"
	logger "github.com/aegis-admin/aegis/logging"
	"github.com/aegis-admin/aegis/model"
	"github.com/aegis-admin/aegis/util"
	helper_util "github.com/aegis-admin/aegis/util/helper"
)

// IDeptService defines the interface for department administration
type IDeptService interface {
	CreateDept(ctx context.Context, dept *model.Dept) (*model.Dept, error)
	GetDept(ctx context.Context, deptID int64) (*model.Dept, error)
	GetDeptTree(ctx context.Context, caller *identity.Snapshot, name string, status *int) ([]*model.Dept, error)
	UpdateDept(ctx context.Context, dept *model.Dept) (*model.Dept, error)
	DeleteDept(ctx context.Context, deptID int64) error
}

// DeptService handles business logic for the department tree. Department
// status feeds the account gates, so status changes invalidate the identity
// snapshots of every member.
type DeptService struct {
	deptDAO       *dao.DeptDAO
	identityCache *identity.Cache
	engine        *authz.Engine
	eventBus      *util.EventBus
}

var _ IDeptService = &DeptService{}

func NewDeptService(deptDAO *dao.DeptDAO, identityCache *identity.Cache, engine *authz.Engine, eventBus *util.EventBus) *DeptService {
	return &DeptService{
		deptDAO:       deptDAO,
		identityCache: identityCache,
		engine:        engine,
		eventBus:      eventBus,
	}
}

func (s *DeptService) CreateDept(ctx context.Context, dept *model.Dept) (*model.Dept, error) {
	if dept.ParentID != nil {
		parent, err := s.deptDAO.GetByID(ctx, *dept.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, aegis_errors.ErrDeptNotFound
		}
	}

	if err := s.deptDAO.Create(ctx, dept); err != nil {
		return nil, err
	}
	logger.Info("Department created", zap.Int64("deptID", dept.ID), zap.String("name", dept.Name))
	return dept, nil
}

func (s *DeptService) GetDept(ctx context.Context, deptID int64) (*model.Dept, error) {
	dept, err := s.deptDAO.GetByID(ctx, deptID)
	if err != nil {
		return nil, err
	}
	if dept == nil {
		return nil, aegis_errors.ErrDeptNotFound
	}
	return dept, nil
}

// GetDeptTree returns the department forest visible to the caller under
// their data-scope rules for the Dept model.
func (s *DeptService) GetDeptTree(ctx context.Context, caller *identity.Snapshot, name string, status *int) ([]*model.Dept, error) {
	pred, err := s.engine.CompilePredicate(caller, "Dept")
	if err != nil {
		return nil, err
	}
	depts, err := s.deptDAO.ListAll(ctx, pred, name, status)
	if err != nil {
		return nil, err
	}
	return helper_util.BuildDeptTree(depts), nil
}

func (s *DeptService) UpdateDept(ctx context.Context, dept *model.Dept) (*model.Dept, error) {
	existing, err := s.deptDAO.GetByID(ctx, dept.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, aegis_errors.ErrDeptNotFound
	}

	if err := s.deptDAO.Update(ctx, dept); err != nil {
		return nil, err
	}
	if existing.Status != dept.Status {
		if err := s.invalidateMembers(ctx, dept.ID); err != nil {
			return nil, err
		}
	}
	s.eventBus.Publish(ctx, util.EventDeptUpdated, dept.ID)
	return s.GetDept(ctx, dept.ID)
}

// DeleteDept soft-deletes an empty leaf department. Departments with users
// or live children are refused.
func (s *DeptService) DeleteDept(ctx context.Context, deptID int64) error {
	userCount, err := s.deptDAO.UserCount(ctx, deptID)
	if err != nil {
		return err
	}
	if userCount > 0 {
		return aegis_errors.ErrDeptHasUsers
	}
	hasChildren, err := s.deptDAO.HasChildren(ctx, deptID)
	if err != nil {
		return err
	}
	if hasChildren {
		return aegis_errors.ErrDeptConflict
	}

	if err := s.deptDAO.Delete(ctx, deptID); err != nil {
		return err
	}
	s.eventBus.Publish(ctx, util.EventDeptUpdated, deptID)
	return nil
}

func (s *DeptService) invalidateMembers(ctx context.Context, deptID int64) error {
	userIDs, err := s.deptDAO.UserIDs(ctx, deptID)
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
