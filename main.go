package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aegis-admin/aegis/audit"
	"github.com/aegis-admin/aegis/authz"
	"github.com/aegis-admin/aegis/config"
	"github.com/aegis-admin/aegis/controller"
	"github.com/aegis-admin/aegis/dao"
	"github.com/aegis-admin/aegis/db"
	"github.com/aegis-admin/aegis/identity"
	logger "github.com/aegis-admin/aegis/logging"
	"github.com/aegis-admin/aegis/middleware"
	"github.com/aegis-admin/aegis/notify"
	"github.com/aegis-admin/aegis/router"
	"github.com/aegis-admin/aegis/security"
	"github.com/aegis-admin/aegis/service"
	"github.com/aegis-admin/aegis/session"
	"github.com/aegis-admin/aegis/task"
	"github.com/aegis-admin/aegis/util"
)

// withLock wraps a task so only one execution runs at a time, cluster-wide.
// A contended lock fails the run rather than waiting; the operator resubmits.
func withLock(resource string, fn task.Func) task.Func {
	return func(ctx context.Context) error {
		locked, err := db.LockResource(ctx, resource, 10*time.Minute)
		if err != nil {
			return err
		}
		if !locked {
			return fmt.Errorf("%s is already running", resource)
		}
		defer func() {
			if err := db.UnlockResource(context.Background(), resource); err != nil {
				logger.Warn("Failed to release task lock", zap.Error(err), zap.String("resource", resource))
			}
		}()
		return fn(ctx)
	}
}

func main() {
	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}
	cfg := config.GetConfig()

	// Initialize logger
	logger.InitLogger(config.GetString("log.dir"))
	defer logger.Sync()

	if cfg.Token.SecretKey == "" {
		logger.Fatal("token.secretKey must be set")
	}

	// Initialize Postgres
	if err := db.InitDB(); err != nil {
		logger.Fatal("Failed to initialize Postgres", zap.Error(err))
	}
	defer db.CloseDB()

	// Initialize Redis
	if err := db.InitRedis(); err != nil {
		logger.Fatal("Failed to initialize Redis", zap.Error(err))
	}
	defer db.CloseRedis()

	// Initialize EventBus
	eventBus := util.NewEventBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eventBus.Start(ctx)

	// Token lifecycle: the session registry is authoritative over signed
	// expiry, so every token component shares the same registry instance.
	registry := session.NewRegistry(db.RedisClient)
	issuer := security.NewTokenIssuer(cfg.Token, registry)
	identityCache := identity.NewCache(cfg.Token, issuer, registry, dao.NewUserDAO(db.DB))

	// Data-scope rule targets. Only registered models accept rules; columns
	// from dataperm.columnExclude are filtered at registration.
	modelRegistry := authz.NewModelRegistry(cfg.DataPerm.ColumnExclude)
	modelRegistry.Register("User", "sys_user", []string{
		"id", "uuid", "username", "nickname", "email", "phone", "status",
		"is_superuser", "is_staff", "is_multi_login", "dept_id",
		"join_time", "last_login_time",
	})
	modelRegistry.Register("Dept", "sys_dept", []string{
		"id", "name", "sort", "leader", "phone", "email", "status",
		"del_flag", "parent_id",
	})

	var policy authz.PolicyEvaluator
	if cfg.RBAC.Mode == authz.ModeCasbin {
		evaluator, err := authz.NewCasbinEvaluator(cfg.RBAC)
		if err != nil {
			logger.Fatal("Failed to initialize casbin", zap.Error(err))
		}
		policy = evaluator
	}
	engine := authz.NewEngine(cfg.RBAC, modelRegistry, policy)

	// Audit sink: database by default, Elasticsearch when configured
	var auditRepository audit.Repository
	switch cfg.Audit.Backend {
	case "elasticsearch":
		repo, err := audit.NewElasticsearchRepository(cfg.Elasticsearch.URL)
		if err != nil {
			logger.Fatal("Failed to initialize Elasticsearch", zap.Error(err))
		}
		auditRepository = repo
	default:
		auditRepository = audit.NewDatabaseRepository(dao.NewLoginLogDAO(db.DB), dao.NewOperaLogDAO(db.DB))
	}
	auditService := audit.NewService(auditRepository)
	defer auditService.Close()

	// Initialize services
	services, err := service.InitializeServices(
		db.DB, cfg, registry, issuer, identityCache, engine, modelRegistry, auditService, eventBus,
	)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}

	// Background tasks. Each purge holds a redis lock so two operators
	// cannot run the same purge concurrently.
	dispatcher := task.NewDispatcher(eventBus)
	dispatcher.Register("purge-login-logs", withLock("purge-login-logs", func(ctx context.Context) error {
		deleted, err := services.Log.PurgeLoginLogs(ctx)
		if err != nil {
			return err
		}
		logger.Info("Purged login logs", zap.Int64("deleted", deleted))
		return nil
	}))
	dispatcher.Register("purge-opera-logs", withLock("purge-opera-logs", func(ctx context.Context) error {
		deleted, err := services.Log.PurgeOperaLogs(ctx)
		if err != nil {
			return err
		}
		logger.Info("Purged operation logs", zap.Int64("deleted", deleted))
		return nil
	}))
	defer dispatcher.Stop()

	// Websocket notifications
	hub := notify.NewHub(identityCache, eventBus)
	defer hub.Close()

	// Initialize controllers
	controllers := controller.InitializeControllers(services, dispatcher)

	// Set up Gin
	gin.SetMode(gin.ReleaseMode)
	engineHTTP := router.SetupRouter(
		controllers,
		identityCache,
		engine,
		hub,
		middleware.OperaLog(auditService),
		100, time.Minute, // 100 requests per minute
	)

	// Set up the server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: engineHTTP,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}
