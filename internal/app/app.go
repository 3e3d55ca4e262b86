// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/haierkeys/block-journal-sync-service/internal/dao"
	"github.com/haierkeys/block-journal-sync-service/internal/domain"
	"github.com/haierkeys/block-journal-sync-service/internal/service"
	pkgapp "github.com/haierkeys/block-journal-sync-service/pkg/app"
	"github.com/haierkeys/block-journal-sync-service/pkg/workerpool"
	"github.com/haierkeys/block-journal-sync-service/pkg/writequeue"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App 应用容器，封装所有依赖和服务
type App struct {
	// 基础设施（注入的依赖）
	config *AppConfig
	logger *zap.Logger
	DB     *gorm.DB
	Dao    *dao.Dao

	// 并发控制组件
	workerPool    *workerpool.Pool
	writeQueueMgr *writequeue.Manager

	// Repository 层
	EntryRepo domain.EntryRepository
	UserRepo  domain.UserRepository

	// Service 层
	EntryService service.EntryService
	UserService  service.UserService

	// 基础设施组件
	TokenManager pkgapp.TokenManager

	// StartTime 容器启动时间
	StartTime time.Time

	// 关闭控制
	shutdownOnce sync.Once
}

// NewApp 创建应用容器实例
// 初始化所有依赖并进行依赖注入
func NewApp(cfg *AppConfig, logger *zap.Logger, db *gorm.DB) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	a := &App{
		config:    cfg,
		logger:    logger,
		DB:        db,
		StartTime: time.Now(),
	}

	// 初始化 Worker Pool
	wpConfig := cfg.GetWorkerPoolConfig()
	a.workerPool = workerpool.New(&wpConfig, logger)

	// 初始化 Write Queue Manager
	wqConfig := cfg.GetWriteQueueConfig()
	a.writeQueueMgr = writequeue.New(&wqConfig, logger)

	// 初始化 DAO
	a.Dao = dao.New(db, dao.WithLogger(logger))

	// 初始化 TokenManager
	tokenConfig := pkgapp.TokenConfig{
		SecretKey: cfg.Security.AuthTokenKey,
		Issuer:    "block-journal-sync-service",
		Expiry:    cfg.GetTokenExpiry(),
	}
	a.TokenManager = pkgapp.NewTokenManager(tokenConfig)

	// 初始化 Repository 层
	a.EntryRepo = dao.NewEntryRepository(a.Dao)
	a.UserRepo = dao.NewUserRepository(a.Dao)

	// 创建 ServiceConfig（从 AppConfig 提取 Service 层需要的配置）
	svcConfig := &service.ServiceConfig{
		User: service.UserServiceConfig{
			RegisterIsEnable: cfg.User.RegisterIsEnable,
		},
		App: service.AppServiceConfig{
			SoftDeleteRetentionTime: cfg.App.SoftDeleteRetentionTime,
			DefaultListLimit:        cfg.App.DefaultListLimit,
		},
	}

	// 初始化 Service 层（依赖注入）
	a.EntryService = service.NewEntryService(a.EntryRepo, a.writeQueueMgr, logger, &svcConfig.App)
	a.UserService = service.NewUserService(a.UserRepo, a.TokenManager, logger, &svcConfig.User)

	logger.Info("App container initialized successfully",
		zap.Int("workerPoolMaxWorkers", wpConfig.MaxWorkers),
		zap.Int("writeQueueCapacity", wqConfig.QueueCapacity))

	return a, nil
}

// Config 获取应用配置
func (a *App) Config() *AppConfig {
	return a.config
}

// Logger 获取日志器
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// WorkerPool 获取 Worker Pool
func (a *App) WorkerPool() *workerpool.Pool {
	return a.workerPool
}

// WriteQueue 获取 Write Queue Manager
func (a *App) WriteQueue() *writequeue.Manager {
	return a.writeQueueMgr
}

// Version 获取版本信息
func (a *App) Version() pkgapp.VersionInfo {
	return pkgapp.VersionInfo{
		Version:   Version,
		GitTag:    GitTag,
		BuildTime: BuildTime,
	}
}

// Shutdown 优雅关闭应用容器
// 先排空并发组件，再关闭数据库连接
func (a *App) Shutdown(ctx context.Context) error {
	var err error
	a.shutdownOnce.Do(func() {
		if a.writeQueueMgr != nil {
			if e := a.writeQueueMgr.Shutdown(ctx); e != nil {
				a.logger.Error("write queue shutdown error", zap.Error(e))
				err = e
			}
		}
		if a.workerPool != nil {
			if e := a.workerPool.Shutdown(ctx); e != nil {
				a.logger.Error("worker pool shutdown error", zap.Error(e))
				err = e
			}
		}
		if a.DB != nil {
			sqlDB, e := a.DB.DB()
			if e != nil {
				err = fmt.Errorf("failed to get sql.DB: %w", e)
				return
			}
			if e := sqlDB.Close(); e != nil {
				err = fmt.Errorf("failed to close database: %w", e)
				return
			}
			a.logger.Info("Database connection closed")
		}
	})
	return err
}
