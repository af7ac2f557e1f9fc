package handler

import (
	"github.com/gin-gonic/gin"

	"seo-writer-api/internal/application/pipeline"
)

// AnalysisHandler 非流式分析阶段
type AnalysisHandler struct {
	stages       *pipeline.Service
	maxBodyBytes int64
}

// NewAnalysisHandler 创建分析处理器
func NewAnalysisHandler(stages *pipeline.Service, maxBodyBytes int64) *AnalysisHandler {
	return &AnalysisHandler{stages: stages, maxBodyBytes: maxBodyBytes}
}

// ContentType 内容类型分析
// @Summary 内容类型分析
// @Description 按 serpDocId 加载 SERP 文档并分析排名页面的内容形式
// @Tags Analysis
// @Accept json
// @Produce json
// @Param body body pipeline.ContentTypeRequest true "请求体"
// @Success 200 {object} pipeline.ContentTypeResult
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/analysis/content-type [post]
func (h *AnalysisHandler) ContentType(c *gin.Context) {
	handleStage(c, h.maxBodyBytes, h.stages.ContentType)
}

// UserIntent 搜索意图分析
// @Summary 搜索意图分析
// @Tags Analysis
// @Accept json
// @Produce json
// @Param body body pipeline.UserIntentRequest true "请求体"
// @Success 200 {object} pipeline.UserIntentResult
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/analysis/user-intent [post]
func (h *AnalysisHandler) UserIntent(c *gin.Context) {
	handleStage(c, h.maxBodyBytes, h.stages.UserIntent)
}

// Title 标题分析
// @Summary 标题分析
// @Tags Analysis
// @Accept json
// @Produce json
// @Param body body pipeline.TitleRequest true "请求体"
// @Success 200 {object} pipeline.AnalysisResult
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/analysis/title [post]
func (h *AnalysisHandler) Title(c *gin.Context) {
	handleStage(c, h.maxBodyBytes, h.stages.Title)
}

// BetterHave 内容缺口分析
// @Summary 内容缺口分析
// @Tags Analysis
// @Accept json
// @Produce json
// @Param body body pipeline.BetterHaveRequest true "请求体"
// @Success 200 {object} pipeline.AnalysisResult
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/analysis/better-have [post]
func (h *AnalysisHandler) BetterHave(c *gin.Context) {
	handleStage(c, h.maxBodyBytes, h.stages.BetterHave)
}

// ActionPlan 行动计划
// @Summary 行动计划
// @Description 汇总前序报告生成写作行动计划，缺失的报告不影响执行
// @Tags Analysis
// @Accept json
// @Produce json
// @Param body body pipeline.ActionPlanRequest true "请求体"
// @Success 200 {object} pipeline.ActionPlanResult
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/analysis/action-plan [post]
func (h *AnalysisHandler) ActionPlan(c *gin.Context) {
	handleStage(c, h.maxBodyBytes, h.stages.ActionPlan)
}
