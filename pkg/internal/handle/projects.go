package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/luoxiv/enervision/pkg/internal/service"
	"github.com/luoxiv/enervision/pkg/log"
)

// CreateProject 创建项目.
func CreateProject(c *gin.Context) {
	var params service.CreateProjectParams
	if err := c.ShouldBindJSON(&params); err != nil {
		log.Logger().Warn().Err(err).Msg("invalid create project body")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if params.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	svc := service.NewAssetService(c.Request.Context())

	project, err := svc.CreateProject(c.Request.Context(), params)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, project)
}

// GetProject 返回项目.
func GetProject(c *gin.Context) {
	svc := service.NewAssetService(c.Request.Context())

	project, err := svc.GetProject(c.Request.Context(), c.Param("project_id"))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

// ListProjects 列出全部项目.
func ListProjects(c *gin.Context) {
	svc := service.NewAssetService(c.Request.Context())

	projects, err := svc.ListProjects(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"projects": projects, "count": len(projects)})
}

// DeleteProject 软删除项目.
func DeleteProject(c *gin.Context) {
	svc := service.NewAssetService(c.Request.Context())

	if err := svc.DeleteProject(c.Request.Context(), c.Param("project_id")); err != nil {
		respondErr(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
