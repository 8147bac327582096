// Package handle 实现 HTTP 请求处理器. 处理器只做参数绑定与错误映射，业务逻辑在 service.
package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/luoxiv/enervision/pkg/internal/service"
	"github.com/luoxiv/enervision/pkg/log"
)

// respondErr 将业务错误映射为 HTTP 状态码.
//
// 映射规则：资源缺失 → 404；输入/状态不匹配 → 400；其余 → 500（不泄露内部细节）.
func respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProjectNotFound),
		errors.Is(err, service.ErrAssetNotFound),
		errors.Is(err, service.ErrBlobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, service.ErrNotImage),
		errors.Is(err, service.ErrRoleMismatch),
		errors.Is(err, service.ErrCrossProjectRef),
		errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	default:
		log.Logger().Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
