// service/services.go
package service

import (
	"gorm.io/gorm"

	"github.com/aegis-admin/aegis/audit"
	"github.com/aegis-admin/aegis/authz"
	"github.com/aegis-admin/aegis/config"
	"github.com/aegis-admin/aegis/dao"
	"github.com/aegis-admin/aegis/identity"
	"github.com/aegis-admin/aegis/security"
	"github.com/aegis-admin/aegis/session"
	"github.com/aegis-admin/aegis/util"
)

type Services struct {
	Auth     IAuthService
	User     IUserService
	Role     IRoleService
	Menu     IMenuService
	Dept     IDeptService
	DataRule IDataRuleService
	Log      ILogService
}

func InitializeServices(
	db *gorm.DB,
	cfg *config.Configuration,
	registry *session.Registry,
	issuer *security.TokenIssuer,
	identityCache *identity.Cache,
	engine *authz.Engine,
	modelRegistry *authz.ModelRegistry,
	auditService audit.Service,
	eventBus *util.EventBus,
) (*Services, error) {
	userDAO := dao.NewUserDAO(db)
	roleDAO := dao.NewRoleDAO(db)
	menuDAO := dao.NewMenuDAO(db)
	deptDAO := dao.NewDeptDAO(db)
	dataRuleDAO := dao.NewDataRuleDAO(db)
	loginLogDAO := dao.NewLoginLogDAO(db)
	operaLogDAO := dao.NewOperaLogDAO(db)

	services := &Services{
		Auth:     NewAuthService(cfg.Token, userDAO, issuer, registry, auditService),
		User:     NewUserService(userDAO, roleDAO, identityCache, issuer, engine, eventBus),
		Role:     NewRoleService(roleDAO, menuDAO, dataRuleDAO, identityCache, eventBus),
		Menu:     NewMenuService(menuDAO, roleDAO, identityCache, eventBus),
		Dept:     NewDeptService(deptDAO, identityCache, engine, eventBus),
		DataRule: NewDataRuleService(dataRuleDAO, roleDAO, modelRegistry, identityCache, eventBus),
		Log:      NewLogService(loginLogDAO, operaLogDAO),
	}
	return services, nil
}
