package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/stepviz/log"
)

// LoggerConfig 日志中间件配置
type LoggerConfig struct {
	// HandlerEnabled 是否记录处理器名称
	HandlerEnabled bool
	// SkipPaths 跳过记录的路径前缀
	SkipPaths []string
	// Filter 自定义过滤函数，返回 true 时跳过
	Filter func(c *gin.Context) bool
	// Logger 为空时使用 log.G
	Logger *log.Logger
}

// DefaultLoggerConfig 默认日志配置
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		SkipPaths: []string{"/health", "/metrics"},
	}
}

// GinLogger 创建默认的 Gin 日志中间件
func GinLogger() gin.HandlerFunc {
	return GinLoggerWithConfig(DefaultLoggerConfig())
}

// GinLoggerWithConfig 根据配置创建 Gin 日志中间件
// 请求体可能包含密钥，从不记录
func GinLoggerWithConfig(config LoggerConfig) gin.HandlerFunc {
	logger := config.Logger
	if logger == nil {
		logger = log.G
	}

	return func(c *gin.Context) {
		if shouldSkipLogging(c, config) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		status := c.Writer.Status()
		event := logger.Info()
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		}

		event = event.
			Int("status", status).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("route", c.FullPath()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP())

		if config.HandlerEnabled {
			event = event.Str("handler", c.HandlerName())
		}

		if requestID := c.GetHeader("X-Request-Id"); requestID != "" {
			event = event.Str("request_id", requestID)
		}

		// 记录错误信息
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.ByType(gin.ErrorTypePrivate).String())
		}

		event.Send()
	}
}

// shouldSkipLogging 是否应该跳过日志记录
func shouldSkipLogging(c *gin.Context, config LoggerConfig) bool {
	if config.Filter != nil {
		return config.Filter(c)
	}
	return skippedPathPrefixes(c, config.SkipPaths...)
}
