package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/user/moviegraph/internal/logger"
	"github.com/user/moviegraph/internal/utils"
)

// Logger 请求日志中间件，客户端 IP 只记录哈希
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		// 处理请求
		c.Next()

		// 记录日志
		latency := time.Since(start)
		status := c.Writer.Status()
		kv := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"client", utils.HashIP(c.ClientIP()),
			"status", status,
			"latency", latency,
		}
		switch {
		case status >= 500:
			log.Error("[HTTP] 请求失败", kv...)
		case status >= 400:
			log.Warn("[HTTP] 请求", kv...)
		default:
			log.Info("[HTTP] 请求", kv...)
		}
	}
}
