// router/router.go

package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aegis-admin/aegis/authz"
	"github.com/aegis-admin/aegis/controller"
	"github.com/aegis-admin/aegis/identity"
	"github.com/aegis-admin/aegis/middleware"
	"github.com/aegis-admin/aegis/notify"
)

func SetupRouter(
	controllers *controller.Controllers,
	identityCache *identity.Cache,
	engine *authz.Engine,
	hub *notify.Hub,
	operaLog gin.HandlerFunc,
	rateLimitRequests int,
	rateLimitDuration time.Duration,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.RateLimiter(rateLimitRequests, rateLimitDuration))

	api := router.Group("/api/v1")

	// Credential endpoints stay outside the authenticated group
	auth := api.Group("/auth")
	{
		auth.POST("/login", controllers.Auth.Login)
		auth.POST("/refresh", controllers.Auth.Refresh)
	}

	// Websocket auth happens inside the handler (token query parameter)
	api.GET("/ws", hub.ServeWS)

	authed := api.Group("")
	authed.Use(middleware.Authenticate(identityCache))
	authed.Use(operaLog)

	authed.POST("/auth/logout", controllers.Auth.Logout)
	authed.GET("/auth/me", controllers.Auth.Me)
	authed.GET("/sys/menus/sidebar", controllers.Menu.GetSidebar)

	sys := authed.Group("/sys")
	{
		users := sys.Group("/users")
		{
			users.POST("", middleware.Authorize(engine, "sys:user:add"), controllers.User.CreateUser)
			users.GET("", middleware.Authorize(engine, "sys:user:list"), controllers.User.ListUsers)
			users.GET("/:id", middleware.Authorize(engine, "sys:user:get"), controllers.User.GetUser)
			users.PUT("/:id", middleware.Authorize(engine, "sys:user:edit"), controllers.User.UpdateUser)
			users.PUT("/:id/roles", middleware.Authorize(engine, "sys:user:role:edit"), controllers.User.UpdateUserRoles)
			users.PUT("/:id/status", middleware.Authorize(engine, "sys:user:edit"), controllers.User.SetStatus)
			users.PUT("/:id/super", middleware.Authorize(engine, "sys:user:super"), controllers.User.SetSuperuser)
			users.PUT("/:id/staff", middleware.Authorize(engine, "sys:user:staff"), controllers.User.SetStaff)
			users.PUT("/:id/multi", middleware.Authorize(engine, "sys:user:multi"), controllers.User.SetMultiLogin)
			users.PUT("/:id/password", middleware.Authorize(engine, "sys:user:password"), controllers.User.ResetPassword)
			users.DELETE("/:id", middleware.Authorize(engine, "sys:user:del"), controllers.User.DeleteUser)
		}

		roles := sys.Group("/roles")
		{
			roles.POST("", middleware.Authorize(engine, "sys:role:add"), controllers.Role.CreateRole)
			roles.GET("", middleware.Authorize(engine, "sys:role:list"), controllers.Role.ListRoles)
			roles.GET("/:id", middleware.Authorize(engine, "sys:role:get"), controllers.Role.GetRole)
			roles.PUT("/:id", middleware.Authorize(engine, "sys:role:edit"), controllers.Role.UpdateRole)
			roles.PUT("/:id/menus", middleware.Authorize(engine, "sys:role:menu:edit"), controllers.Role.UpdateRoleMenus)
			roles.PUT("/:id/rules", middleware.Authorize(engine, "sys:role:rule:edit"), controllers.Role.UpdateRoleRules)
			roles.DELETE("/:id", middleware.Authorize(engine, "sys:role:del"), controllers.Role.DeleteRole)
		}

		menus := sys.Group("/menus")
		{
			menus.POST("", middleware.Authorize(engine, "sys:menu:add"), controllers.Menu.CreateMenu)
			menus.GET("", middleware.Authorize(engine, "sys:menu:list"), controllers.Menu.GetMenuTree)
			menus.GET("/:id", middleware.Authorize(engine, "sys:menu:get"), controllers.Menu.GetMenu)
			menus.PUT("/:id", middleware.Authorize(engine, "sys:menu:edit"), controllers.Menu.UpdateMenu)
			menus.DELETE("/:id", middleware.Authorize(engine, "sys:menu:del"), controllers.Menu.DeleteMenu)
		}

		depts := sys.Group("/depts")
		{
			depts.POST("", middleware.Authorize(engine, "sys:dept:add"), controllers.Dept.CreateDept)
			depts.GET("", middleware.Authorize(engine, "sys:dept:list"), controllers.Dept.GetDeptTree)
			depts.GET("/:id", middleware.Authorize(engine, "sys:dept:get"), controllers.Dept.GetDept)
			depts.PUT("/:id", middleware.Authorize(engine, "sys:dept:edit"), controllers.Dept.UpdateDept)
			depts.DELETE("/:id", middleware.Authorize(engine, "sys:dept:del"), controllers.Dept.DeleteDept)
		}

		rules := sys.Group("/data-rules")
		{
			rules.POST("", middleware.Authorize(engine, "sys:data:rule:add"), controllers.DataRule.CreateRule)
			rules.GET("", middleware.Authorize(engine, "sys:data:rule:list"), controllers.DataRule.ListRules)
			rules.GET("/models", middleware.Authorize(engine, "sys:data:rule:list"), controllers.DataRule.ListRuleModels)
			rules.GET("/models/:model/columns", middleware.Authorize(engine, "sys:data:rule:list"), controllers.DataRule.ListRuleColumns)
			rules.GET("/:id", middleware.Authorize(engine, "sys:data:rule:get"), controllers.DataRule.GetRule)
			rules.PUT("/:id", middleware.Authorize(engine, "sys:data:rule:edit"), controllers.DataRule.UpdateRule)
			rules.DELETE("/:id", middleware.Authorize(engine, "sys:data:rule:del"), controllers.DataRule.DeleteRule)
		}

		logs := sys.Group("/logs")
		{
			logs.GET("/login", middleware.Authorize(engine, "sys:log:login:list"), controllers.Log.ListLoginLogs)
			logs.GET("/opera", middleware.Authorize(engine, "sys:log:opera:list"), controllers.Log.ListOperaLogs)
			logs.DELETE("/login", middleware.Authorize(engine, "sys:log:login:del"), controllers.Log.PurgeLoginLogs)
			logs.DELETE("/opera", middleware.Authorize(engine, "sys:log:opera:del"), controllers.Log.PurgeOperaLogs)
		}

		tasks := sys.Group("/tasks")
		{
			tasks.GET("", middleware.Authorize(engine, "sys:task:list"), controllers.Task.ListTasks)
			tasks.GET("/runs", middleware.Authorize(engine, "sys:task:list"), controllers.Task.ListRuns)
			tasks.GET("/runs/:id", middleware.Authorize(engine, "sys:task:get"), controllers.Task.GetRun)
			tasks.POST("/:name/submit", middleware.Authorize(engine, "sys:task:run"), controllers.Task.SubmitTask)
			tasks.DELETE("/runs/:id", middleware.Authorize(engine, "sys:task:revoke"), controllers.Task.RevokeRun)
		}
	}

	return router
}
