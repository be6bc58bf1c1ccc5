package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/stepviz/errors"
)

const (
	defaultSuccessMsg = "success"
	defaultErrorMsg   = "operation failed"

	successCode = http.StatusOK
)

// Response 统一响应结构
type Response[T any] struct {
	Code int    `json:"code"`           // 业务状态码
	Msg  string `json:"msg,omitempty"`  // 响应消息
	Data T      `json:"data,omitempty"` // 响应数据
}

// GinJSON 写入成功响应，HTTP 状态码与业务码均为 200
//
//	GinJSON(c, snapshot)
//	// {"code":200, "msg":"success", "data":{...}}
func GinJSON(c *gin.Context, data any) {
	if c == nil {
		return
	}
	c.JSON(http.StatusOK, Success(data))
}

// GinJSONStatus 与 GinJSON 相同，但使用指定的 HTTP 状态码，例如 201
func GinJSONStatus(c *gin.Context, status int, data any) {
	if c == nil {
		return
	}
	c.JSON(status, &Response[any]{Code: status, Msg: defaultSuccessMsg, Data: data})
}

// GinJSONE 写入带自定义业务码的响应，HTTP 状态码固定为 200
//
// data 支持：
//   - error: 提取错误消息
//   - string: 直接作为消息
//   - nil: 使用默认错误消息
//   - 其他类型: 作为 data 返回
func GinJSONE(c *gin.Context, code int, data any) {
	if c == nil {
		return
	}

	var msg string
	var respData any

	switch v := data.(type) {
	case error:
		msg = extractErrorMessage(v)
	case string:
		msg = v
	case nil:
		msg = defaultErrorMsg
	default:
		respData = v
	}

	c.JSON(http.StatusOK, &Response[any]{
		Code: code,
		Msg:  msg,
		Data: respData,
	})
}

// GinError 按错误码写入失败响应并中止后续 handler。
// HTTP 状态码由 errors.Error.HTTPStatus 决定，元数据放在 data 中。
//
//	GinError(c, errors.UnknownField("iv"))
//	// 400 {"code":4004, "msg":"unknown field", "data":{"field":"iv"}}
func GinError(c *gin.Context, err error) {
	if c == nil {
		return
	}
	e := errors.FromError(err)
	if e == nil {
		e = errors.Internal(defaultErrorMsg)
	}
	resp := &Response[map[string]string]{Code: e.Code, Msg: e.Message, Data: e.Metadata}
	if resp.Msg == "" {
		resp.Msg = defaultErrorMsg
	}
	c.AbortWithStatusJSON(e.HTTPStatus(), resp)
}

func extractErrorMessage(err error) string {
	if err == nil {
		return defaultErrorMsg
	}
	if e := errors.FromError(err); e != nil && e.Message != "" {
		return e.Message
	}
	return err.Error()
}

// Success 构造成功响应
func Success[T any](data T) *Response[T] {
	return &Response[T]{
		Code: successCode,
		Msg:  defaultSuccessMsg,
		Data: data,
	}
}

// Failure 构造失败响应
func Failure(code int, msg string) *Response[any] {
	if msg == "" {
		msg = defaultErrorMsg
	}
	return &Response[any]{
		Code: code,
		Msg:  msg,
	}
}
