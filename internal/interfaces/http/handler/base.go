// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"seo-writer-api/internal/application/pipeline"
	"seo-writer-api/internal/interfaces/http/dto"
	"seo-writer-api/internal/interfaces/http/middleware"
	apperrors "seo-writer-api/pkg/errors"
)

// defaultMaxBodyBytes 未配置请求体上限时使用
const defaultMaxBodyBytes int64 = 1 << 20

// bindJSON 读取受限大小的请求体并解析校验到 dst
func bindJSON(c *gin.Context, maxBytes int64, dst any) error {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBodyBytes
	}
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperrors.InvalidInput([]apperrors.FieldError{{
				Path:    pipeline.RootPath,
				Message: fmt.Sprintf("request body exceeds %d bytes", maxBytes),
			}})
		}
		return apperrors.InvalidInput([]apperrors.FieldError{{Path: pipeline.RootPath, Message: "failed to read request body"}})
	}
	if err := pipeline.Decode(body, dst); err != nil {
		return err
	}
	if d, ok := dst.(documentScoped); ok {
		middleware.TagSerpDoc(c, d.DocumentID())
	}
	return nil
}

// documentScoped 引用已存储 SERP 文档的请求
type documentScoped interface {
	DocumentID() string
}

// handleStage 非流式阶段的通用流程：解析校验、执行、输出信封
func handleStage[Req any, Res any](c *gin.Context, maxBytes int64, run func(ctx context.Context, req *Req) (Res, error)) {
	var req Req
	if err := bindJSON(c, maxBytes, &req); err != nil {
		dto.Fail(c, err)
		return
	}

	res, err := run(c.Request.Context(), &req)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.OK(c, res)
}
