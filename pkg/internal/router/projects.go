package router

import (
	"github.com/gin-gonic/gin"

	"github.com/luoxiv/enervision/pkg/internal/handle"
)

// RegisterProjectRoutes 绑定项目路由（资产流水线依赖的最小 CRUD）.
func RegisterProjectRoutes(group *gin.RouterGroup) {
	group.POST("/", handle.CreateProject)
	group.GET("/", handle.ListProjects)
	group.GET("/:project_id", handle.GetProject)
	group.DELETE("/:project_id", handle.DeleteProject)
}
