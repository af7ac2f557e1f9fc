// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"seo-writer-api/internal/config"
	"seo-writer-api/internal/interfaces/http/handler"
	"seo-writer-api/internal/interfaces/http/middleware"
)

// Handlers 路由依赖的处理器，PipelineRuns 为 nil 时不注册运行接口
type Handlers struct {
	Health        *handler.HealthHandler
	Analysis      *handler.AnalysisHandler
	Writing       *handler.WritingHandler
	SerpDocuments *handler.SerpDocumentHandler
	PipelineRuns  *handler.PipelineRunHandler
}

// Router HTTP 路由器
type Router struct {
	engine   *gin.Engine
	cfg      *config.Config
	handlers *Handlers
	limiter  middleware.RateLimiter
}

// New 创建新的路由器
func New(cfg *config.Config, handlers *Handlers, limiter middleware.RateLimiter) *Router {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	r := &Router{
		engine:   engine,
		cfg:      cfg,
		handlers: handlers,
		limiter:  limiter,
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// Engine 返回 Gin Engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// setupMiddleware 配置中间件
func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())

	r.engine.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: r.cfg.Security.CORS.AllowedOrigins,
		AllowedMethods: r.cfg.Security.CORS.AllowedMethods,
		AllowedHeaders: r.cfg.Security.CORS.AllowedHeaders,
	}))

	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name))
		r.engine.Use(middleware.TraceContext())
	}

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics())
	}

	r.engine.Use(middleware.AccessLog(middleware.AccessLogConfig{
		Enabled:   true,
		SkipPaths: middleware.DefaultSkipPaths,
	}))
}

// setupRoutes 配置路由
func (r *Router) setupRoutes() {
	health := r.handlers.Health
	r.engine.GET("/health", health.Health)
	r.engine.GET("/ready", health.Ready)
	r.engine.GET("/live", health.Live)

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.GET(r.cfg.Observability.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	jwt := r.cfg.Security.JWT
	v1 := r.engine.Group("/v1")
	v1.Use(middleware.Auth(middleware.AuthConfig{
		Enabled: jwt.Enabled,
		Secret:  jwt.Secret,
		Issuer:  jwt.Issuer,
	}))

	limits := r.cfg.Security.RateLimit
	var apiLimit, generationLimit gin.HandlerFunc
	if limits.Enabled {
		apiLimit = middleware.RateLimit(middleware.RateLimitConfig{Scope: "api", Limit: limits.RequestsPerMinute}, r.limiter)
		generationLimit = middleware.RateLimit(middleware.RateLimitConfig{Scope: "generation", Limit: limits.GenerationPerMinute}, r.limiter)
	}
	if apiLimit != nil {
		v1.Use(apiLimit)
	}

	RegisterV1Routes(v1, r.handlers, generationLimit)
}
