// audit/repository.go
package audit

import (
	"context"

	"github.com/aegis-admin/aegis/dao"
	"github.com/aegis-admin/aegis/model"
)

// Repository is the audit sink. Two implementations exist: the relational
// one backed by the log tables, and an Elasticsearch one for deployments
// that ship audit trails to a search cluster. The backend is chosen by
// configuration at startup.
type Repository interface {
	RecordLogin(ctx context.Context, entry *model.LoginLog) error
	RecordOpera(ctx context.Context, entry *model.OperaLog) error
}

// DatabaseRepository writes audit entries to the sys_login_log and
// sys_opera_log tables.
type DatabaseRepository struct {
	loginLogDAO *dao.LoginLogDAO
	operaLogDAO *dao.OperaLogDAO
}

func NewDatabaseRepository(loginLogDAO *dao.LoginLogDAO, operaLogDAO *dao.OperaLogDAO) *DatabaseRepository {
	return &DatabaseRepository{loginLogDAO: loginLogDAO, operaLogDAO: operaLogDAO}
}

func (r *DatabaseRepository) RecordLogin(ctx context.Context, entry *model.LoginLog) error {
	return r.loginLogDAO.Create(ctx, entry)
}

func (r *DatabaseRepository) RecordOpera(ctx context.Context, entry *model.OperaLog) error {
	return r.operaLogDAO.Create(ctx, entry)
}
