package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"seo-writer-api/internal/application/pipeline"
	"seo-writer-api/internal/interfaces/http/dto"
	apperrors "seo-writer-api/pkg/errors"
)

const (
	// IdempotencyKeyHeader 创建运行的幂等键
	IdempotencyKeyHeader = "Idempotency-Key"

	maxIdempotencyKeyLength = 128
)

// PipelineRunHandler 服务端流水线运行处理器
type PipelineRunHandler struct {
	runs         *pipeline.RunService
	maxBodyBytes int64
}

// NewPipelineRunHandler 创建运行处理器
func NewPipelineRunHandler(runs *pipeline.RunService, maxBodyBytes int64) *PipelineRunHandler {
	return &PipelineRunHandler{runs: runs, maxBodyBytes: maxBodyBytes}
}

// Create 创建并入队一次运行
// @Summary 创建流水线运行
// @Description 相同 Idempotency-Key 重复提交返回同一运行
// @Tags PipelineRuns
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "幂等键"
// @Param body body pipeline.PipelineRunRequest true "请求体"
// @Success 202 {object} dto.PipelineRunAcceptedResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /v1/pipeline-runs [post]
func (h *PipelineRunHandler) Create(c *gin.Context) {
	key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	if len(key) > maxIdempotencyKeyLength {
		dto.Fail(c, apperrors.InvalidInput([]apperrors.FieldError{{
			Path:    IdempotencyKeyHeader,
			Message: "must be at most 128 characters",
		}}))
		return
	}

	var req pipeline.PipelineRunRequest
	if err := bindJSON(c, h.maxBodyBytes, &req); err != nil {
		dto.Fail(c, err)
		return
	}

	run, created, err := h.runs.Create(c.Request.Context(), &req, key)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	if !created {
		c.Header("Idempotent-Replayed", "true")
	}
	dto.Accepted(c, &dto.PipelineRunAcceptedResponse{RunID: run.ID, Status: run.Status})
}

// Get 查询运行状态
// @Summary 查询流水线运行
// @Tags PipelineRuns
// @Produce json
// @Param id path string true "运行 ID"
// @Success 200 {object} dto.PipelineRunResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/pipeline-runs/{id} [get]
func (h *PipelineRunHandler) Get(c *gin.Context) {
	run, err := h.runs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.OK(c, dto.ToPipelineRunResponse(run))
}
