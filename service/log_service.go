// service/log_service.go
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/aegis-admin/aegis/dao"
	logger "github.com/aegis-admin/aegis/logging"
	"github.com/aegis-admin/aegis/model"
)

// ILogService defines the interface for audit log queries and purges
type ILogService interface {
	ListLoginLogs(ctx context.Context, username, ip string, status *int, limit, offset int) ([]*model.LoginLog, int64, error)
	ListOperaLogs(ctx context.Context, username, ip string, status *int, limit, offset int) ([]*model.OperaLog, int64, error)
	PurgeLoginLogs(ctx context.Context) (int64, error)
	PurgeOperaLogs(ctx context.Context) (int64, error)
}

type LogService struct {
	loginLogDAO *dao.LoginLogDAO
	operaLogDAO *dao.OperaLogDAO
}

var _ ILogService = &LogService{}

func NewLogService(loginLogDAO *dao.LoginLogDAO, operaLogDAO *dao.OperaLogDAO) *LogService {
	return &LogService{loginLogDAO: loginLogDAO, operaLogDAO: operaLogDAO}
}

func (s *LogService) ListLoginLogs(ctx context.Context, username, ip string, status *int, limit, offset int) ([]*model.LoginLog, int64, error) {
	return s.loginLogDAO.List(ctx, username, ip, status, limit, offset)
}

func (s *LogService) ListOperaLogs(ctx context.Context, username, ip string, status *int, limit, offset int) ([]*model.OperaLog, int64, error) {
	return s.operaLogDAO.List(ctx, username, ip, status, limit, offset)
}

func (s *LogService) PurgeLoginLogs(ctx context.Context) (int64, error) {
	deleted, err := s.loginLogDAO.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	logger.Info("Login logs purged", zap.Int64("deleted", deleted))
	return deleted, nil
}

func (s *LogService) PurgeOperaLogs(ctx context.Context) (int64, error) {
	deleted, err := s.operaLogDAO.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	logger.Info("Operation logs purged", zap.Int64("deleted", deleted))
	return deleted, nil
}
