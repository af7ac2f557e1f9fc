// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "seo-writer-api/pkg/errors"
	"seo-writer-api/pkg/logger"
)

// ErrorKey 成功载荷中保留的判别字段，只允许出现在失败响应里
const ErrorKey = "error"

// ErrorResponse 失败响应
// 输入校验失败时 Details 为 []apperrors.FieldError，其余情况为字符串
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// OK 返回 200，结果字段直接位于顶层
func OK(c *gin.Context, result any) {
	Respond(c, http.StatusOK, result)
}

// Created 返回 201
func Created(c *gin.Context, result any) {
	Respond(c, http.StatusCreated, result)
}

// Accepted 返回 202
func Accepted(c *gin.Context, result any) {
	Respond(c, http.StatusAccepted, result)
}

// Respond 序列化成功结果；结果不是 JSON 对象或含 error 键时改写为 500
func Respond(c *gin.Context, status int, result any) {
	body, err := json.Marshal(result)
	if err != nil {
		Fail(c, apperrors.Execution(err, "Failed to encode result"))
		return
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		Fail(c, apperrors.New(apperrors.CodeExecutionError, "Stage produced an invalid result").
			WithDetail("result must be a JSON object"))
		return
	}
	if _, ok := fields[ErrorKey]; ok {
		Fail(c, apperrors.New(apperrors.CodeExecutionError, "Stage produced an invalid result").
			WithDetail(`result must not contain an "error" key`))
		return
	}

	c.Data(status, "application/json; charset=utf-8", body)
}

// Fail 输出失败响应，状态码由错误码决定
func Fail(c *gin.Context, err error) {
	appErr := apperrors.AsAppError(err)
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "request failed", err,
			"code", string(appErr.Code),
			"path", c.Request.URL.Path,
		)
	}

	c.AbortWithStatusJSON(status, NewErrorResponse(appErr))
}

// NewErrorResponse 构造失败响应体，SSE error 事件复用同一结构
func NewErrorResponse(appErr *apperrors.AppError) ErrorResponse {
	resp := ErrorResponse{Error: appErr.Message}
	if resp.Error == "" {
		resp.Error = http.StatusText(appErr.HTTPStatus)
	}
	switch {
	case len(appErr.FieldErrors) > 0:
		resp.Details = appErr.FieldErrors
	case appErr.Detail != "":
		resp.Details = appErr.Detail
	}
	return resp
}
