// Package service 实现业务逻辑层
package service

// ServiceConfig Service 层配置
type ServiceConfig struct {
	User UserServiceConfig
	App  AppServiceConfig
}

// UserServiceConfig 用户服务配置
type UserServiceConfig struct {
	// RegisterIsEnable 注册是否启用
	RegisterIsEnable bool
}

// AppServiceConfig 应用服务配置
type AppServiceConfig struct {
	// SoftDeleteRetentionTime 软删除条目保留时间，如 7d
	SoftDeleteRetentionTime string
	// DefaultListLimit 列表默认返回条数上限
	DefaultListLimit int
}
