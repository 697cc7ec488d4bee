// controller/controllers.go
package controller

import (
	"github.com/aegis-admin/aegis/service"
	"github.com/aegis-admin/aegis/task"
)

type Controllers struct {
	Auth     *AuthController
	User     *UserController
	Role     *RoleController
	Menu     *MenuController
	Dept     *DeptController
	DataRule *DataRuleController
	Log      *LogController
	Task     *TaskController
}

func InitializeControllers(services *service.Services, dispatcher *task.Dispatcher) *Controllers {
	return &Controllers{
		Auth:     NewAuthController(services.Auth),
		User:     NewUserController(services.User),
		Role:     NewRoleController(services.Role),
		Menu:     NewMenuController(services.Menu),
		Dept:     NewDeptController(services.Dept),
		DataRule: NewDataRuleController(services.DataRule),
		Log:      NewLogController(services.Log),
		Task:     NewTaskController(dispatcher),
	}
}
