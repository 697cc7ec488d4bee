// service/user_service.go
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aegis-admin/aegis/authz"
	"github.com/aegis-admin/aegis/dao"
	aegis_errors "github.com/aegis-admin/aegis/errors"
	"github.com/aegis-admin/aegis/identity"
	logger "github.com/aegis-admin/aegis/logging"
	"github.com/aegis-admin/aegis/model"
	"github.com/aegis-admin/aegis/security"
	"github.com/aegis-admin/aegis/util"
)

// IUserService defines the interface for account administration
type IUserService interface {
	CreateUser(ctx context.Context, user *model.User, password string) (*model.User, error)
	GetUser(ctx context.Context, userID int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	ListUsers(ctx context.Context, caller *identity.Snapshot, deptID *int64, username string, status *int, limit, offset int) ([]*model.User, int64, error)
	UpdateUser(ctx context.Context, user *model.User) (*model.User, error)
	UpdateUserRoles(ctx context.Context, userID int64, roleIDs []int64) error
	SetStatus(ctx context.Context, caller *identity.Snapshot, userID int64, status int) error
	SetSuperuser(ctx context.Context, caller *identity.Snapshot, userID int64, super bool) error
	SetStaff(ctx context.Context, caller *identity.Snapshot, userID int64, staff bool) error
	SetMultiLogin(ctx context.Context, caller *identity.Snapshot, userID int64, multi bool) error
	ResetPassword(ctx context.Context, userID int64, newPassword string) error
	DeleteUser(ctx context.Context, caller *identity.Snapshot, userID int64) error
}

// UserService handles business logic for account administration. Every
// mutation that changes a user's authorization view invalidates the identity
// snapshot before returning, so the next request observes the change.
type UserService struct {
	userDAO       *dao.UserDAO
	roleDAO       *dao.RoleDAO
	identityCache *identity.Cache
	issuer        *security.TokenIssuer
	engine        *authz.Engine
	eventBus      *util.EventBus
}

var _ IUserService = &UserService{}

func NewUserService(userDAO *dao.UserDAO, roleDAO *dao.RoleDAO, identityCache *identity.Cache, issuer *security.TokenIssuer, engine *authz.Engine, eventBus *util.EventBus) *UserService {
	return &UserService{
		userDAO:       userDAO,
		roleDAO:       roleDAO,
		identityCache: identityCache,
		issuer:        issuer,
		engine:        engine,
		eventBus:      eventBus,
	}
}

func (s *UserService) CreateUser(ctx context.Context, user *model.User, password string) (*model.User, error) {
	if err := s.checkConflicts(ctx, user, 0); err != nil {
		return nil, err
	}

	hashed, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("%w: password hash: %v", aegis_errors.ErrServerError, err)
	}
	user.Password = hashed
	user.UUID = uuid.NewString()

	if err := s.userDAO.Create(ctx, user); err != nil {
		return nil, err
	}
	logger.Info("User created", zap.Int64("userID", user.ID), zap.String("username", user.Username))
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.userDAO.GetUserWithRelations(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, aegis_errors.ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := s.userDAO.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, aegis_errors.ErrUserNotFound
	}
	return user, nil
}

// ListUsers pages through accounts visible to the caller under their
// data-scope rules for the User model.
func (s *UserService) ListUsers(ctx context.Context, caller *identity.Snapshot, deptID *int64, username string, status *int, limit, offset int) ([]*model.User, int64, error) {
	pred, err := s.engine.CompilePredicate(caller, "User")
	if err != nil {
		return nil, 0, err
	}
	return s.userDAO.List(ctx, pred, deptID, username, status, limit, offset)
}

func (s *UserService) UpdateUser(ctx context.Context, user *model.User) (*model.User, error) {
	existing, err := s.userDAO.GetByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, aegis_errors.ErrUserNotFound
	}
	if err := s.checkConflicts(ctx, user, user.ID); err != nil {
		return nil, err
	}

	if err := s.userDAO.Update(ctx, user); err != nil {
		return nil, err
	}
	if err := s.identityCache.Invalidate(ctx, user.ID); err != nil {
		return nil, err
	}
	s.eventBus.Publish(ctx, util.EventUserUpdated, user.ID)
	return s.GetUser(ctx, user.ID)
}

// UpdateUserRoles replaces the user's role assignments and drops their
// cached identity so the new permission set takes effect immediately.
func (s *UserService) UpdateUserRoles(ctx context.Context, userID int64, roleIDs []int64) error {
	user, err := s.userDAO.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return aegis_errors.ErrUserNotFound
	}

	roles := make([]model.Role, 0, len(roleIDs))
	for _, roleID := range roleIDs {
		role, err := s.roleDAO.GetByID(ctx, roleID)
		if err != nil {
			return err
		}
		if role == nil {
			return fmt.Errorf("%w: role %d", aegis_errors.ErrRoleNotFound, roleID)
		}
		roles = append(roles, *role)
	}

	if err := s.userDAO.UpdateRoles(ctx, user, roles); err != nil {
		return err
	}
	if err := s.identityCache.Invalidate(ctx, userID); err != nil {
		return err
	}
	s.eventBus.Publish(ctx, util.EventUserUpdated, userID)
	return nil
}

func (s *UserService) SetStatus(ctx context.Context, caller *identity.Snapshot, userID int64, status int) error {
	if caller.ID == userID {
		return fmt.Errorf("%w: cannot change own status", aegis_errors.ErrForbiddenOperation)
	}
	if err := s.userDAO.SetStatus(ctx, userID, status); err != nil {
		return err
	}
	if status != model.StatusEnabled {
		// Locking an account also ends its sessions
		if err := s.issuer.RevokeAll(ctx, userID, ""); err != nil {
			return err
		}
	}
	return s.identityCache.Invalidate(ctx, userID)
}

func (s *UserService) SetSuperuser(ctx context.Context, caller *identity.Snapshot, userID int64, super bool) error {
	if caller.ID == userID {
		return fmt.Errorf("%w: cannot change own superuser flag", aegis_errors.ErrForbiddenOperation)
	}
	if err := s.userDAO.SetSuperuser(ctx, userID, super); err != nil {
		return err
	}
	return s.identityCache.Invalidate(ctx, userID)
}

func (s *UserService) SetStaff(ctx context.Context, caller *identity.Snapshot, userID int64, staff bool) error {
	if caller.ID == userID {
		return fmt.Errorf("%w: cannot change own staff flag", aegis_errors.ErrForbiddenOperation)
	}
	if err := s.userDAO.SetStaff(ctx, userID, staff); err != nil {
		return err
	}
	return s.identityCache.Invalidate(ctx, userID)
}

func (s *UserService) SetMultiLogin(ctx context.Context, caller *identity.Snapshot, userID int64, multi bool) error {
	if err := s.userDAO.SetMultiLogin(ctx, userID, multi); err != nil {
		return err
	}
	return s.identityCache.Invalidate(ctx, userID)
}

// ResetPassword rehashes the password and revokes every live session so the
// old credential cannot keep an active foothold.
func (s *UserService) ResetPassword(ctx context.Context, userID int64, newPassword string) error {
	hashed, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("%w: password hash: %v", aegis_errors.ErrServerError, err)
	}
	if err := s.userDAO.ResetPassword(ctx, userID, hashed); err != nil {
		return err
	}
	if err := s.issuer.RevokeAll(ctx, userID, ""); err != nil {
		return err
	}
	return s.identityCache.Invalidate(ctx, userID)
}

func (s *UserService) DeleteUser(ctx context.Context, caller *identity.Snapshot, userID int64) error {
	if caller.ID == userID {
		return fmt.Errorf("%w: cannot delete own account", aegis_errors.ErrForbiddenOperation)
	}
	if err := s.userDAO.Delete(ctx, userID); err != nil {
		return err
	}
	if err := s.issuer.RevokeAll(ctx, userID, ""); err != nil {
		return err
	}
	if err := s.identityCache.Invalidate(ctx, userID); err != nil {
		return err
	}
	s.eventBus.Publish(ctx, util.EventUserDeleted, userID)
	return nil
}

func (s *UserService) checkConflicts(ctx context.Context, user *model.User, selfID int64) error {
	if taken, err := s.userDAO.FieldTaken(ctx, "username", user.Username, selfID); err != nil {
		return err
	} else if taken {
		return aegis_errors.ErrUserConflict
	}
	if taken, err := s.userDAO.FieldTaken(ctx, "nickname", user.Nickname, selfID); err != nil {
		return err
	} else if taken {
		return aegis_errors.ErrNicknameConflict
	}
	if user.Email != "" {
		if taken, err := s.userDAO.FieldTaken(ctx, "email", user.Email, selfID); err != nil {
			return err
		} else if taken {
			return aegis_errors.ErrEmailConflict
		}
	}
	return nil
}
