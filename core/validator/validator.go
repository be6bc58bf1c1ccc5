// Package validator 封装 go-playground/validator，带中英文翻译和十六进制相关的自定义规则
package validator

import (
	"context"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"

	"github.com/kochabx/stepviz/core/hexstr"
	"github.com/kochabx/stepviz/errors"
)

// Validator 校验器接口
type Validator interface {
	Struct(s any) error
	StructCtx(ctx context.Context, s any) error
	// Var 校验单个值
	Var(field any, tag string) error
	Engine() *validator.Validate
}

// Validate 全局校验器
var Validate Validator = New()

type validatorImpl struct {
	validate    *validator.Validate
	translators map[string]ut.Translator
	lang        string
}

// Option 校验器选项
type Option func(*validatorImpl)

// WithTagName 设置校验标签名
func WithTagName(name string) Option {
	return func(v *validatorImpl) {
		v.validate.SetTagName(name)
	}
}

// WithLanguage 设置错误消息语言，只支持 en 和 zh
func WithLanguage(lang string) Option {
	return func(v *validatorImpl) {
		v.lang = lang
	}
}

// New 创建校验器
func New(opts ...Option) Validator {
	v := &validatorImpl{
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		translators: make(map[string]ut.Translator, 2),
		lang:        "en",
	}

	// 错误里使用 json/mapstructure 名称而不是 Go 字段名
	v.validate.RegisterTagNameFunc(fieldName)

	for _, opt := range opts {
		opt(v)
	}

	uni := ut.New(en.New(), en.New(), zh.New())
	if trans, ok := uni.GetTranslator("en"); ok {
		_ = en_translations.RegisterDefaultTranslations(v.validate, trans)
		v.translators["en"] = trans
	}
	if trans, ok := uni.GetTranslator("zh"); ok {
		_ = zh_translations.RegisterDefaultTranslations(v.validate, trans)
		v.translators["zh"] = trans
	}

	registerCustom(v.validate, v.translators)
	return v
}

func fieldName(f reflect.StructField) string {
	for _, key := range []string{"json", "mapstructure"} {
		name, _, _ := strings.Cut(f.Tag.Get(key), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

func (v *validatorImpl) Struct(s any) error {
	return v.StructCtx(context.Background(), s)
}

func (v *validatorImpl) StructCtx(ctx context.Context, s any) error {
	if s == nil {
		return errors.BadRequest("validation target cannot be nil")
	}
	return v.translate(v.validate.StructCtx(ctx, s))
}

func (v *validatorImpl) Var(field any, tag string) error {
	return v.translate(v.validate.Var(field, tag))
}

func (v *validatorImpl) Engine() *validator.Validate {
	return v.validate
}

// translate 将 validator.ValidationErrors 转换为 ValidationErrors
func (v *validatorImpl) translate(err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	trans := v.translators[v.lang]
	if trans == nil {
		trans = v.translators["en"]
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field:     fe.Field(),
			Namespace: fe.Namespace(),
			Tag:       fe.Tag(),
			Param:     fe.Param(),
			Message:   fe.Translate(trans),
		})
	}
	return &ValidationErrors{Fields: fields}
}

// registerCustom 注册自定义规则:
//
//	hexstr   字符串去掉空白后全部是十六进制字符
//	hexmask  最多 16 位十六进制，可作为 64 位掩码
func registerCustom(v *validator.Validate, translators map[string]ut.Translator) {
	_ = v.RegisterValidation("hexstr", func(fl validator.FieldLevel) bool {
		return hexstr.Valid(hexstr.Normalize(fl.Field().String()))
	})
	_ = v.RegisterValidation("hexmask", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s != "" && len(s) <= 16 && hexstr.Valid(s)
	})

	messages := map[string]map[string]string{
		"en": {
			"hexstr":  "{0} must be a hex string",
			"hexmask": "{0} must be at most 16 hex digits",
		},
		"zh": {
			"hexstr":  "{0}必须是十六进制字符串",
			"hexmask": "{0}必须是不超过16位的十六进制数",
		},
	}
	for lang, trans := range translators {
		for tag, text := range messages[lang] {
			_ = v.RegisterTranslation(tag, trans,
				func(ut ut.Translator) error {
					return ut.Add(tag, text, true)
				},
				func(ut ut.Translator, fe validator.FieldError) string {
					msg, _ := ut.T(fe.Tag(), fe.Field())
					return msg
				},
			)
		}
	}
}
