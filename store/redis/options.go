package redis

import (
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"github.com/kochabx/stepviz/log"
)

// Option 客户端配置选项
type Option func(*clientOptions)

type clientOptions struct {
	hooks []redis.Hook

	enableTracing bool
	enableDebug   bool
	tracingOpts   []redisotel.TracingOption

	logger          *log.Logger
	slowQueryThresh time.Duration
}

// WithHooks 添加自定义 Hooks
func WithHooks(hooks ...redis.Hook) Option {
	return func(o *clientOptions) {
		o.hooks = append(o.hooks, hooks...)
	}
}

// WithTracing 启用 OpenTelemetry 分布式追踪
func WithTracing(opts ...redisotel.TracingOption) Option {
	return func(o *clientOptions) {
		o.enableTracing = true
		o.tracingOpts = opts
	}
}

// WithDebug 启用调试模式（日志记录 + 慢查询检测）
// slowQueryThreshold: 慢查询阈值，0 表示不检测慢查询
func WithDebug(slowQueryThreshold ...time.Duration) Option {
	return func(o *clientOptions) {
		o.enableDebug = true
		if len(slowQueryThreshold) > 0 {
			o.slowQueryThresh = slowQueryThreshold[0]
		}
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger *log.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

func applyOptions(opts []Option) *clientOptions {
	o := &clientOptions{logger: log.G}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}
