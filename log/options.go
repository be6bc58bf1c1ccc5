package log

import (
	"github.com/rs/zerolog"

	"github.com/kochabx/stepviz/log/redact"
)

type options struct {
	level      zerolog.Level
	caller     bool
	callerSkip int
	redactor   *redact.Redactor
}

// Option Logger 选项
type Option func(*options)

// WithLevel 设置日志级别
func WithLevel(level zerolog.Level) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithCaller 记录调用位置
func WithCaller() Option {
	return func(o *options) {
		o.caller = true
	}
}

// WithCallerSkip 记录调用位置并额外跳过 skip 帧
func WithCallerSkip(skip int) Option {
	return func(o *options) {
		o.caller = true
		o.callerSkip = skip
	}
}

// WithRedact 写出前脱敏
func WithRedact(r *redact.Redactor) Option {
	return func(o *options) {
		o.redactor = r
	}
}
