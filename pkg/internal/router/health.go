package router

import (
	"github.com/gin-gonic/gin"

	"github.com/luoxiv/enervision/pkg/internal/handle"
)

// RegisterHealthRoutes 绑定健康检查路由.
func RegisterHealthRoutes(group *gin.RouterGroup) {
	group.GET("/", handle.Healthz)
	group.GET("/db", handle.HealthDB)
	group.GET("/blob", handle.HealthBlob)
	group.GET("/mq", handle.HealthMQ)
}
