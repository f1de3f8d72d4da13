package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"upsc-prep/internal/pkg/logger"
)

// Logger 自定义日志中间件
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		latencyTime := time.Since(startTime)
		reqMethod := c.Request.Method
		reqUri := c.Request.RequestURI
		statusCode := c.Writer.Status()
		clientIP := c.ClientIP()
		userAgent := c.Request.UserAgent()

		// 记录请求日志
		if statusCode >= 500 {
			logger.Errorf("[%s] %s %s %d %v \"%s\" - Internal Server Error",
				clientIP, reqMethod, reqUri, statusCode, latencyTime, userAgent)
		} else if statusCode >= 400 {
			logger.Warnf("[%s] %s %s %d %v \"%s\" - Client Error",
				clientIP, reqMethod, reqUri, statusCode, latencyTime, userAgent)
		} else {
			logger.Infof("[%s] %s %s %d %v \"%s\"",
				clientIP, reqMethod, reqUri, statusCode, latencyTime, userAgent)
		}
	}
}
