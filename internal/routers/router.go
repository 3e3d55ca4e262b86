package routers

import (
	"time"

	"github.com/haierkeys/block-journal-sync-service/internal/app"
	"github.com/haierkeys/block-journal-sync-service/internal/middleware"
	"github.com/haierkeys/block-journal-sync-service/internal/routers/api_router"
	"github.com/haierkeys/block-journal-sync-service/pkg/limiter"

	"github.com/gin-gonic/gin"
)

var methodLimiters = limiter.NewMethodLimiter().AddBuckets(
	limiter.BucketRule{
		Key:          "/api/user/login",
		FillInterval: time.Second,
		Capacity:     10,
		Quantum:      10,
	},
	limiter.BucketRule{
		Key:          "/api/user/register",
		FillInterval: time.Second,
		Capacity:     10,
		Quantum:      10,
	},
)

// NewRouter 创建主路由（注入 App Container）
func NewRouter(appContainer *app.App) *gin.Engine {

	// 获取配置
	cfg := appContainer.Config()

	r := gin.New()

	api := r.Group("/api")
	{
		api.Use(middleware.AppInfoWithConfig(app.Name, appContainer.Version().Version))
		api.Use(gin.Logger())
		api.Use(middleware.TraceMiddlewareWithConfig(cfg.Tracer.Enabled, cfg.Tracer.Header)) // Trace ID 中间件
		api.Use(middleware.RateLimiter(methodLimiters))
		api.Use(middleware.ContextTimeout(time.Duration(cfg.App.DefaultContextTimeout) * time.Second))
		api.Use(middleware.Cors())
		api.Use(middleware.AccessLogWithLogger(appContainer.Logger()))
		api.Use(middleware.RecoveryWithLogger(appContainer.Logger()))

		// 创建 Handlers（注入 App Container）
		userHandler := api_router.NewUserHandler(appContainer)
		entryHandler := api_router.NewEntryHandler(appContainer)
		healthHandler := api_router.NewHealthHandler(appContainer)

		api.POST("/user/register", userHandler.Register)
		api.POST("/user/login", userHandler.Login)

		// 健康检查与版本接口（无需认证）
		api.GET("/health", healthHandler.Check)

		auth := api.Group("")
		auth.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey))

		auth.POST("/user/change_password", userHandler.ChangePassword)
		auth.GET("/user/info", userHandler.Info)

		auth.GET("/entry", entryHandler.Get)
		auth.POST("/entry", entryHandler.Create)
		auth.PUT("/entry", entryHandler.Update)
		auth.DELETE("/entry", entryHandler.Delete)
		auth.GET("/entries", entryHandler.List)
	}

	r.Use(middleware.Cors())
	r.NoRoute(middleware.NoFound())

	return r
}
