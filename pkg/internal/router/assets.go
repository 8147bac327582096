package router

import (
	"github.com/gin-gonic/gin"

	"github.com/luoxiv/enervision/pkg/configs"
	"github.com/luoxiv/enervision/pkg/internal/handle"
	"github.com/luoxiv/enervision/pkg/middleware"
)

// RegisterAssetRoutes 绑定资产流水线路由:
//
//	POST /assets/upload_image_with_note        上传图片与备注（可选同请求路由）
//	POST /assets/:asset_id/route_image         路由既有图片资产
//	POST /assets/:asset_id/parse_image         仅执行 OCR 阶段
//	POST /assets/:asset_id/scene_issue_report  人工挂接场景问题报告
//	GET  /assets/                              条件列表
//	GET  /assets/:asset_id                     资产 + 全部负载
//	GET  /assets/:asset_id/payloads            各模式最新负载视图
func RegisterAssetRoutes(group *gin.RouterGroup, serverCfg configs.ServerConfig) {
	group.POST("/upload_image_with_note",
		middleware.UploadRateLimitMiddleware(serverCfg),
		handle.UploadImageWithNote,
	)

	group.POST("/:asset_id/route_image", handle.RouteImage)
	group.POST("/:asset_id/parse_image", handle.ParseImage)
	group.POST("/:asset_id/scene_issue_report", handle.AttachSceneIssueReport)

	group.GET("/", handle.ListAssets)
	group.GET("/:asset_id", handle.GetAsset)
	group.GET("/:asset_id/payloads", handle.ListLatestPayloads)
}
