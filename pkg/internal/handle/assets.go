package handle

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/luoxiv/enervision/pkg/internal/schema"
	"github.com/luoxiv/enervision/pkg/internal/service"
	"github.com/luoxiv/enervision/pkg/log"
)

// UploadImageWithNote 图片 + 备注上传.
//
// 查询参数: project_id（必填）、source、content_role、auto_route；
// 表单字段: file（必填）、note、title、building_id、zone_id、system_id、device_id.
// 绑定 ID 也可放查询参数，表单优先.
func UploadImageWithNote(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open uploaded file"})
		return
	}
	defer file.Close()

	autoRoute, _ := strconv.ParseBool(queryOrForm(c, "auto_route"))

	params := service.UploadImageParams{
		ProjectID:   queryOrForm(c, "project_id"),
		Source:      queryOrForm(c, "source"),
		ContentRole: queryOrForm(c, "content_role"),
		Note:        c.PostForm("note"),
		Title:       c.PostForm("title"),
		AutoRoute:   autoRoute,
		BuildingID:  queryOrForm(c, "building_id"),
		ZoneID:      queryOrForm(c, "zone_id"),
		SystemID:    queryOrForm(c, "system_id"),
		DeviceID:    queryOrForm(c, "device_id"),
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Reader:      file,
	}

	svc := service.NewAssetService(c.Request.Context())

	asset, err := svc.UploadImageWithNote(c.Request.Context(), params)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, asset)
}

// RouteImage 对既有图片资产执行路由.
func RouteImage(c *gin.Context) {
	svc := service.NewAssetService(c.Request.Context())

	asset, err := svc.RouteImageByID(c.Request.Context(), c.Param("asset_id"))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, asset)
}

// ParseImage 只执行 OCR 阶段.
func ParseImage(c *gin.Context) {
	svc := service.NewAssetService(c.Request.Context())

	asset, err := svc.ParseImage(c.Request.Context(), c.Param("asset_id"))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, asset)
}

// AttachSceneIssueReport 人工挂接场景问题报告.
func AttachSceneIssueReport(c *gin.Context) {
	var report schema.SceneIssueReportV1
	if err := c.ShouldBindJSON(&report); err != nil {
		log.Logger().Warn().Err(err).Msg("invalid scene issue report body")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	svc := service.NewAssetService(c.Request.Context())

	asset, err := svc.AttachSceneIssueReport(c.Request.Context(), c.Param("asset_id"), &report)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, asset)
}

// GetAsset 返回资产及全部负载.
func GetAsset(c *gin.Context) {
	svc := service.NewAssetService(c.Request.Context())

	asset, err := svc.GetAsset(c.Request.Context(), c.Param("asset_id"))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, asset)
}

// ListAssets 按条件列出资产.
func ListAssets(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	filter := service.ListAssetsFilter{
		ProjectID:   c.Query("project_id"),
		Modality:    c.Query("modality"),
		ContentRole: c.Query("content_role"),
		Status:      c.Query("status"),
		Limit:       limit,
		Offset:      offset,
	}

	svc := service.NewAssetService(c.Request.Context())

	assets, err := svc.ListAssets(c.Request.Context(), filter)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"assets": assets, "count": len(assets)})
}

// ListLatestPayloads 返回资产各模式的最新负载视图.
func ListLatestPayloads(c *gin.Context) {
	svc := service.NewAssetService(c.Request.Context())

	payloads, err := svc.LatestPayloads(c.Request.Context(), c.Param("asset_id"))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payloads": payloads})
}

// queryOrForm 表单优先，查询参数兜底.
func queryOrForm(c *gin.Context, key string) string {
	if v := c.PostForm(key); v != "" {
		return v
	}

	return c.Query(key)
}
