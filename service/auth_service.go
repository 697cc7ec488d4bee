// service/auth_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aegis-admin/aegis/audit"
	"github.com/aegis-admin/aegis/config"
	"github.com/aegis-admin/aegis/dao"
	aegis_errors "github.com/aegis-admin/aegis/errors"
	"github.com/aegis-admin/aegis/identity"
	logger "github.com/aegis-admin/aegis/logging"
	"github.com/aegis-admin/aegis/model"
	"github.com/aegis-admin/aegis/security"
	"github.com/aegis-admin/aegis/session"
)

// ClientInfo carries the request metadata recorded with each login and
// stored as extra claims next to the access session.
type ClientInfo struct {
	IP        string
	UserAgent string
	OS        string
	Browser   string
	Device    string
}

// LoginResult is what a successful login hands back to the controller
type LoginResult struct {
	AccessToken  security.AccessToken
	RefreshToken security.RefreshToken
	User         *model.User
}

// IAuthService defines the interface for the token lifecycle operations
type IAuthService interface {
	Login(ctx context.Context, username, password string, client ClientInfo) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string, client ClientInfo) (security.AccessToken, error)
	Logout(ctx context.Context, ident *identity.Snapshot, refreshToken string) error
}

type AuthService struct {
	cfg          config.TokenConfiguration
	userDAO      *dao.UserDAO
	issuer       *security.TokenIssuer
	registry     *session.Registry
	auditService audit.Service
}

var _ IAuthService = &AuthService{}

func NewAuthService(cfg config.TokenConfiguration, userDAO *dao.UserDAO, issuer *security.TokenIssuer, registry *session.Registry, auditService audit.Service) *AuthService {
	return &AuthService{
		cfg:          cfg,
		userDAO:      userDAO,
		issuer:       issuer,
		registry:     registry,
		auditService: auditService,
	}
}

// Login verifies credentials, issues an access/refresh token pair and
// records the attempt. Credential failures and unknown usernames produce the
// same ErrAuthentication so the response does not reveal which part was
// wrong.
func (s *AuthService) Login(ctx context.Context, username, password string, client ClientInfo) (*LoginResult, error) {
	user, err := s.userDAO.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.recordLogin(nil, username, client, model.LoginLogFail, "username or password is incorrect")
		return nil, aegis_errors.ErrAuthentication
	}

	if !security.VerifyPassword(password, user.Password) {
		s.recordLogin(user, username, client, model.LoginLogFail, "username or password is incorrect")
		return nil, aegis_errors.ErrAuthentication
	}

	if user.Status != model.StatusEnabled {
		s.recordLogin(user, username, client, model.LoginLogFail, "user is locked")
		return nil, fmt.Errorf("%w: user is locked, please contact system administrator", aegis_errors.ErrAuthorizationDenied)
	}

	now := time.Now()
	if err := s.userDAO.UpdateLoginTime(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLoginTime = &now

	extra := map[string]string{
		"username":   user.Username,
		"nickname":   user.Nickname,
		"ip":         client.IP,
		"os":         client.OS,
		"browser":    client.Browser,
		"device":     client.Device,
		"login_time": now.Format(time.RFC3339),
	}

	accessToken, err := s.issuer.IssueAccessToken(ctx, user.ID, user.IsMultiLogin, extra)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.issuer.IssueRefreshToken(ctx, user.ID, user.IsMultiLogin)
	if err != nil {
		return nil, err
	}

	if err := s.registry.AddOnline(ctx, s.cfg.OnlineSessionsKey, accessToken.SessionID); err != nil {
		logger.Warn("Failed to add session to online set", zap.Error(err), zap.Int64("userID", user.ID))
	}

	s.recordLogin(user, username, client, model.LoginLogSuccess, "login success")
	logger.Info("User logged in",
		zap.Int64("userID", user.ID),
		zap.String("username", user.Username),
		zap.String("sessionID", accessToken.SessionID))

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh entry must exist in the registry; a decodable but unregistered
// token is treated as expired.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, client ClientInfo) (security.AccessToken, error) {
	payload, err := s.issuer.Decode(refreshToken)
	if err != nil {
		return security.AccessToken{}, err
	}

	user, err := s.userDAO.GetByID(ctx, payload.UserID)
	if err != nil {
		return security.AccessToken{}, err
	}
	if user == nil {
		return security.AccessToken{}, aegis_errors.ErrTokenInvalid
	}
	if user.Status != model.StatusEnabled {
		return security.AccessToken{}, fmt.Errorf("%w: user is locked, please contact system administrator", aegis_errors.ErrAuthorizationDenied)
	}

	extra := map[string]string{
		"username": user.Username,
		"nickname": user.Nickname,
		"ip":       client.IP,
		"os":       client.OS,
		"browser":  client.Browser,
		"device":   client.Device,
	}
	return s.issuer.RotateToken(ctx, user.ID, refreshToken, user.IsMultiLogin, extra)
}

// Logout ends the caller's session. A multi-login account drops only the
// current session and the presented refresh token; a single-login account
// drops every session it owns.
func (s *AuthService) Logout(ctx context.Context, ident *identity.Snapshot, refreshToken string) error {
	if err := s.registry.RemoveOnline(ctx, s.cfg.OnlineSessionsKey, ident.SessionID); err != nil {
		logger.Warn("Failed to remove session from online set", zap.Error(err), zap.Int64("userID", ident.ID))
	}

	if ident.IsMultiLogin {
		if err := s.issuer.Revoke(ctx, ident.ID, ident.SessionID); err != nil {
			return err
		}
		if refreshToken != "" {
			if err := s.issuer.RevokeRefresh(ctx, ident.ID, refreshToken); err != nil {
				return err
			}
		}
		return nil
	}
	return s.issuer.RevokeAll(ctx, ident.ID, "")
}

func (s *AuthService) recordLogin(user *model.User, username string, client ClientInfo, status int, msg string) {
	entry := &model.LoginLog{
		Username:  username,
		Status:    status,
		IP:        client.IP,
		UserAgent: client.UserAgent,
		OS:        client.OS,
		Browser:   client.Browser,
		Device:    client.Device,
		Msg:       msg,
		LoginTime: time.Now(),
	}
	if user != nil {
		entry.UserUUID = user.UUID
	}
	s.auditService.RecordLogin(entry)
}
