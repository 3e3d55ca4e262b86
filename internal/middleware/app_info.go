package middleware

import (
	"github.com/haierkeys/block-journal-sync-service/pkg/app"

	"github.com/gin-gonic/gin"
)

// AppInfoWithConfig 应用信息中间件（使用注入的配置）
func AppInfoWithConfig(name string, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("app_name", name)
		c.Set("app_version", version)
		c.Set("access_host", app.GetAccessHost(c))

		c.Next()
	}
}
