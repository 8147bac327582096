package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/luoxiv/enervision/pkg/context"
	"github.com/luoxiv/enervision/pkg/internal/storage"
)

// StorageMiddleware 将存储管理器注入请求 context，供下游 service 获取.
func StorageMiddleware(manager *storage.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.WithStorageManager(c.Request.Context(), manager)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
