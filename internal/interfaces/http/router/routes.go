// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由；generationLimit 非 nil 时额外作用于流式生成接口
func RegisterV1Routes(v1 *gin.RouterGroup, h *Handlers, generationLimit gin.HandlerFunc) {
	// 分析阶段
	analysis := v1.Group("/analysis")
	{
		analysis.POST("/content-type", h.Analysis.ContentType)
		analysis.POST("/user-intent", h.Analysis.UserIntent)
		analysis.POST("/title", h.Analysis.Title)
		analysis.POST("/better-have", h.Analysis.BetterHave)
		analysis.POST("/action-plan", h.Analysis.ActionPlan)
	}

	// 流式生成
	writing := v1.Group("/writing")
	if generationLimit != nil {
		writing.Use(generationLimit)
	}
	{
		writing.POST("/article", h.Writing.Article) // SSE
		writing.POST("/persona", h.Writing.Persona) // SSE
	}

	// SERP 文档
	docs := v1.Group("/serp-documents")
	{
		docs.POST("", h.SerpDocuments.Create)
		docs.GET("", h.SerpDocuments.List)
		docs.GET("/:id", h.SerpDocuments.Get)
	}

	// 服务端流水线运行
	if h.PipelineRuns != nil {
		runs := v1.Group("/pipeline-runs")
		{
			runs.POST("", h.PipelineRuns.Create)
			runs.GET("/:id", h.PipelineRuns.Get)
		}
	}
}
