package log

import (
	"time"

	"github.com/kochabx/stepviz/log/writer"
)

// Config 日志配置
type Config struct {
	Level  string `mapstructure:"level" json:"level" default:"info" validate:"oneof=trace debug info warn error"`
	Format string `mapstructure:"format" json:"format" default:"console" validate:"oneof=console json"`
	Output string `mapstructure:"output" json:"output" default:"stdout" validate:"oneof=stdout file multi"`
	Caller bool   `mapstructure:"caller" json:"caller"`
	// DisableRedact 关闭密钥字段脱敏
	DisableRedact bool       `mapstructure:"disable_redact" json:"disable_redact"`
	File          FileConfig `mapstructure:"file" json:"file"`
}

// FileConfig 日志文件配置
type FileConfig struct {
	Filepath   string            `mapstructure:"filepath" json:"filepath" default:"log"`
	Filename   string            `mapstructure:"filename" json:"filename" default:"stepviz"`
	FileExt    string            `mapstructure:"file_ext" json:"file_ext" default:"log"`
	RotateMode writer.RotateMode `mapstructure:"rotate_mode" json:"rotate_mode"`
	Rotatelogs RotatelogsConfig  `mapstructure:"rotatelogs" json:"rotatelogs"`
	Lumberjack LumberjackConfig  `mapstructure:"lumberjack" json:"lumberjack"`
}

// RotatelogsConfig 按时间轮转配置
type RotatelogsConfig struct {
	MaxAge       time.Duration `mapstructure:"max_age" json:"max_age" default:"24h"`
	RotationTime time.Duration `mapstructure:"rotation_time" json:"rotation_time" default:"1h"`
}

// LumberjackConfig 按大小轮转配置
type LumberjackConfig struct {
	MaxSize    int           `mapstructure:"max_size" json:"max_size" default:"100"`
	MaxBackups int           `mapstructure:"max_backups" json:"max_backups" default:"5"`
	MaxAge     time.Duration `mapstructure:"max_age" json:"max_age" default:"720h"`
	Compress   bool          `mapstructure:"compress" json:"compress"`
}

func (c *FileConfig) toWriterConfig() writer.RotateConfig {
	return writer.RotateConfig{
		Filepath: c.Filepath,
		Filename: c.Filename,
		FileExt:  c.FileExt,
		Mode:     c.RotateMode,
		TimeRotateConfig: writer.TimeRotateConfig{
			MaxAge:       c.Rotatelogs.MaxAge,
			RotationTime: c.Rotatelogs.RotationTime,
		},
		SizeRotateConfig: writer.SizeRotateConfig{
			MaxSize:    c.Lumberjack.MaxSize,
			MaxBackups: c.Lumberjack.MaxBackups,
			MaxAge:     c.Lumberjack.MaxAge,
			Compress:   c.Lumberjack.Compress,
		},
	}
}
