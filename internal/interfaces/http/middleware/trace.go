// Package middleware 提供 HTTP 中间件
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"seo-writer-api/internal/domain/entity"
	"seo-writer-api/pkg/logger"
)

// stageRoutes 路由模板到流水线阶段
var stageRoutes = map[string]entity.Stage{
	"/v1/analysis/content-type": entity.StageContentType,
	"/v1/analysis/user-intent":  entity.StageUserIntent,
	"/v1/analysis/title":        entity.StageTitle,
	"/v1/analysis/better-have":  entity.StageBetterHave,
	"/v1/analysis/action-plan":  entity.StageActionPlan,
	"/v1/writing/article":       entity.StageArticle,
	"/v1/writing/persona":       entity.StagePersona,
}

// StageFromRoute 返回路由模板对应的阶段，非阶段路由返回空串
func StageFromRoute(route string) string {
	return stageRoutes[route].String()
}

// Trace OpenTelemetry 追踪中间件，探活与指标路由不建 span
func Trace(serviceName string) gin.HandlerFunc {
	skip := make(map[string]bool, len(DefaultSkipPaths))
	for _, p := range DefaultSkipPaths {
		skip[p] = true
	}
	return otelgin.Middleware(serviceName, otelgin.WithFilter(func(r *http.Request) bool {
		return !skip[r.URL.Path]
	}))
}

// TraceContext 把 trace_id 与阶段名注入 logger context，并标注到当前 span
func TraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		span := trace.SpanFromContext(ctx)
		if sc := span.SpanContext(); sc.IsValid() {
			traceID := sc.TraceID().String()
			ctx = logger.WithContext(ctx, logger.TraceIDKey, traceID)
			ctx = logger.WithContext(ctx, logger.SpanIDKey, sc.SpanID().String())
			c.Header("X-Trace-ID", traceID)
		}

		if stage := StageFromRoute(c.FullPath()); stage != "" {
			ctx = logger.WithContext(ctx, logger.StageKey, stage)
			span.SetAttributes(attribute.String("seo.stage", stage))
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// TagSerpDoc 处理器解析出文档 ID 后调用，后续日志与当前 span 都带上该 ID
func TagSerpDoc(c *gin.Context, serpDocID string) {
	if serpDocID == "" {
		return
	}
	c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), logger.SerpDocIDKey, serpDocID))
	trace.SpanFromContext(c.Request.Context()).SetAttributes(attribute.String("seo.serp_doc_id", serpDocID))
}
