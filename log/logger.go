package log

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"

	"github.com/kochabx/stepviz/core/tag"
	"github.com/kochabx/stepviz/log/redact"
	"github.com/kochabx/stepviz/log/writer"
)

// Logger 日志记录器
type Logger struct {
	zerolog.Logger
	redactor *redact.Redactor
	closer   io.Closer
}

func init() {
	zerolog.TimeFieldFormat = time.DateTime
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
}

// Redactor 返回脱敏器，未启用时为 nil
func (l *Logger) Redactor() *redact.Redactor {
	return l.redactor
}

// Close 释放文件句柄
func (l *Logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

// newLogger 先收集选项，再按是否脱敏决定底层 writer
func newLogger(w io.Writer, opts ...Option) *Logger {
	o := &options{level: zerolog.TraceLevel}
	for _, opt := range opts {
		opt(o)
	}

	if o.redactor != nil {
		w = redact.NewWriter(w, o.redactor)
	}

	ctx := zerolog.New(w).Level(o.level).With().Timestamp()
	if o.caller {
		ctx = ctx.CallerWithSkipFrameCount(zerolog.CallerSkipFrameCount + o.callerSkip)
	}
	return &Logger{Logger: ctx.Logger(), redactor: o.redactor}
}

// New 输出到控制台
func New(opts ...Option) *Logger {
	return newLogger(writer.Console(), opts...)
}

// NewWriter 输出到任意 writer
func NewWriter(w io.Writer, opts ...Option) *Logger {
	return newLogger(w, opts...)
}

// NewFile 输出到轮转文件
func NewFile(c FileConfig, opts ...Option) (*Logger, error) {
	if err := tag.ApplyDefaults(&c); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	fw, err := writer.File(c.toWriterConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create file writer: %w", err)
	}
	logger := newLogger(fw, opts...)
	logger.closer = fw
	return logger, nil
}

// NewMulti 同时输出到文件和控制台
func NewMulti(c FileConfig, opts ...Option) (*Logger, error) {
	if err := tag.ApplyDefaults(&c); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	fw, err := writer.File(c.toWriterConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create file writer: %w", err)
	}
	logger := newLogger(zerolog.MultiLevelWriter(fw, writer.Console()), opts...)
	logger.closer = fw
	return logger, nil
}

// NewFromConfig 按配置创建
func NewFromConfig(c Config) (*Logger, error) {
	if err := tag.ApplyDefaults(&c); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}

	level, err := zerolog.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	opts := []Option{WithLevel(level)}
	if c.Caller {
		opts = append(opts, WithCaller())
	}
	if !c.DisableRedact {
		opts = append(opts, WithRedact(redact.New(redact.KeyMaterial)))
	}

	switch c.Output {
	case "file":
		return NewFile(c.File, opts...)
	case "multi":
		return NewMulti(c.File, opts...)
	}
	if c.Format == "json" {
		return NewWriter(writer.Stdout(), opts...), nil
	}
	return New(opts...), nil
}
