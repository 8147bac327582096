// Package middleware 提供 gin 中间件：日志、CORS、指标、追踪与上传限流.
package middleware

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/luoxiv/enervision/pkg/configs"
)

// CORSMiddleware CORS中间件.
func CORSMiddleware(cfg configs.ServerConfig) gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"}
	config.AllowFiles = true

	if cfg.Debug {
		config.AllowAllOrigins = true
		config.AllowOrigins = nil
	}

	return cors.New(config)
}

// UploadRateLimitMiddleware 上传路由限流. rps <= 0 时直通.
// 上传是用户手工触发的低频操作，这里只做全局粗粒度保护.
func UploadRateLimitMiddleware(cfg configs.ServerConfig) gin.HandlerFunc {
	if cfg.UploadRPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.UploadRPS), cfg.UploadBurst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		c.Next()
	}
}
