package writer

import (
	"fmt"
	"io"
	"path/filepath"
	"time"
)

// RotateConfig 日志轮转配置
type RotateConfig struct {
	Mode             RotateMode
	Filepath         string
	Filename         string
	FileExt          string
	TimeRotateConfig TimeRotateConfig
	SizeRotateConfig SizeRotateConfig
}

// TimeRotateConfig 按时间轮转配置
type TimeRotateConfig struct {
	MaxAge       time.Duration
	RotationTime time.Duration
}

// SizeRotateConfig 按大小轮转配置
type SizeRotateConfig struct {
	MaxSize    int // MB
	MaxBackups int
	MaxAge     time.Duration // 按天取整
	Compress   bool
}

// File 创建文件输出 writer
func File(config RotateConfig) (io.WriteCloser, error) {
	switch config.Mode {
	case RotateModeTime:
		return timeRotateWriter(config)
	case RotateModeSize:
		return sizeRotateWriter(config)
	default:
		return nil, fmt.Errorf("unsupported rotate mode: %v", config.Mode)
	}
}

func (c *RotateConfig) fileFullPath() string {
	return filepath.Join(c.Filepath, c.Filename+"."+c.FileExt)
}

func (c *RotateConfig) fileFullPathWithFormat(format string) string {
	return filepath.Join(c.Filepath, c.Filename+"."+format+"."+c.FileExt)
}
