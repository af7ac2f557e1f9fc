// Package errors 提供统一的错误定义
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码
const (
	// 流水线错误分类
	CodeInvalidInput      ErrorCode = "INVALID_INPUT"
	CodeNotFound          ErrorCode = "NOT_FOUND"
	CodeExecutionError    ErrorCode = "EXECUTION_ERROR"
	CodeStreamInterrupted ErrorCode = "STREAM_INTERRUPTED"

	// 通用错误
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
	CodeTokenInvalid       ErrorCode = "TOKEN_INVALID"
	CodeConflict           ErrorCode = "CONFLICT"
	CodeTooManyRequests    ErrorCode = "RATE_LIMITED"
	CodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	CodeInternalError      ErrorCode = "INTERNAL_ERROR"
)

// FieldError 单个字段校验失败
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// AppError 应用错误
type AppError struct {
	Code        ErrorCode    `json:"code"`
	Message     string       `json:"message"`
	Detail      string       `json:"detail,omitempty"`
	FieldErrors []FieldError `json:"field_errors,omitempty"`
	HTTPStatus  int          `json:"-"`
	Err         error        `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail 添加详细信息
func (e *AppError) WithDetail(detail string) *AppError {
	e.Detail = detail
	return e
}

// WithFieldErrors 附加字段错误
func (e *AppError) WithFieldErrors(fields []FieldError) *AppError {
	e.FieldErrors = fields
	return e
}

// New 创建新的应用错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap 包装错误，Detail 默认取底层错误文本
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Err:        err,
	}
	if err != nil {
		appErr.Detail = err.Error()
	}
	return appErr
}

// InvalidInput 构造输入校验错误
func InvalidInput(fields []FieldError) *AppError {
	return New(CodeInvalidInput, "Invalid input").WithFieldErrors(fields)
}

// NotFound 构造资源不存在错误
func NotFound(message, detail string) *AppError {
	return New(CodeNotFound, message).WithDetail(detail)
}

// Execution 包装执行期错误
func Execution(err error, message string) *AppError {
	return Wrap(err, CodeExecutionError, message)
}

// codeToHTTPStatus 错误码转 HTTP 状态码
func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeTokenExpired, CodeTokenInvalid:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// 预定义错误
var (
	ErrUnauthorized    = New(CodeUnauthorized, "unauthorized")
	ErrTokenExpired    = New(CodeTokenExpired, "token expired")
	ErrTokenInvalid    = New(CodeTokenInvalid, "token invalid")
	ErrTooManyRequests = New(CodeTooManyRequests, "too many requests")
	ErrInternalError   = New(CodeInternalError, "internal server error")
)

// AsAppError 将错误转换为 AppError
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, CodeInternalError, "Internal server error")
}

// IsCode 判断错误链中是否存在指定错误码
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
