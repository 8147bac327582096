// Package router 管理路由配置，将路径与处理器绑定到 gin 引擎.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/luoxiv/enervision/pkg/configs"
)

// Setup 注册全部路由.
func Setup(engine *gin.Engine, cfg *configs.AppConfig) {
	RegisterAssetRoutes(engine.Group("/assets"), cfg.Server)
	RegisterProjectRoutes(engine.Group("/projects"))
	RegisterHealthRoutes(engine.Group("/health"))
}
