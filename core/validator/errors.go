package validator

import (
	"strings"

	"github.com/kochabx/stepviz/errors"
)

// FieldError 单个字段的校验错误
type FieldError struct {
	Field     string `json:"field"`
	Namespace string `json:"namespace"`
	Tag       string `json:"tag"`
	Param     string `json:"param,omitempty"`
	Message   string `json:"message"`
}

// ValidationErrors 一次校验的全部字段错误
type ValidationErrors struct {
	Fields []FieldError
}

func (ve *ValidationErrors) Error() string {
	msgs := make([]string, 0, len(ve.Fields))
	for _, f := range ve.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, "; ")
}

// ToError 转换为带字段元数据的 *errors.Error
func (ve *ValidationErrors) ToError() *errors.Error {
	metadata := make(map[string]string, len(ve.Fields))
	for _, f := range ve.Fields {
		metadata[f.Field] = f.Message
	}
	return errors.NewWithMetadata(errors.CodeInvalidInput, metadata, "validation failed")
}

// AsError 如果 err 是校验错误则转换为 *errors.Error，否则原样包装
func AsError(err error) *errors.Error {
	if err == nil {
		return nil
	}
	var ve *ValidationErrors
	if errors.As(err, &ve) {
		return ve.ToError()
	}
	return errors.FromError(err)
}
