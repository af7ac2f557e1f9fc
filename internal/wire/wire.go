//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"seo-writer-api/internal/application/pipeline"
	"seo-writer-api/internal/application/usage"
	"seo-writer-api/internal/config"
	"seo-writer-api/internal/domain/repository"
	"seo-writer-api/internal/domain/service"
	"seo-writer-api/internal/infrastructure/llm"
	"seo-writer-api/internal/infrastructure/messaging"
	"seo-writer-api/internal/infrastructure/persistence/postgres"
	"seo-writer-api/internal/infrastructure/persistence/redis"
	"seo-writer-api/internal/interfaces/http/middleware"
	"seo-writer-api/internal/interfaces/http/router"
	workflowport "seo-writer-api/internal/workflow/port"
)

// InitializePostgresOnly 仅初始化 PostgreSQL 数据层（用于 bootstrap）
func InitializePostgresOnly(ctx context.Context, cfg *config.Config) (*PostgresOnlyDataLayer, func(), error) {
	wire.Build(
		RepoSet,
		usage.NewRecorder,
		wire.Struct(new(PostgresOnlyDataLayer), "*"),
	)
	return nil, nil, nil
}

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		MessagingSet,
		PipelineSet,
		RouterSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}

// InitializeWorker 初始化流水线运行消费者
func InitializeWorker(ctx context.Context, cfg *config.Config) (*Worker, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		MessagingSet,
		PipelineSet,
		ProvideConsumer,
		wire.Struct(new(Worker), "*"),
	)
	return nil, nil, nil
}

// PostgresSet PostgreSQL 提供者集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewTxManager,
	postgres.NewSerpDocumentRepository,
	postgres.NewPipelineRunRepository,
	postgres.NewLLMUsageEventRepository,
)

// RepoSet 整合了具体实现与接口绑定的集合
var RepoSet = wire.NewSet(
	PostgresSet,
	wire.Bind(new(repository.Transactor), new(*postgres.TxManager)),
	wire.Bind(new(repository.SerpDocumentRepository), new(*postgres.SerpDocumentRepository)),
	wire.Bind(new(repository.PipelineRunRepository), new(*postgres.PipelineRunRepository)),
	wire.Bind(new(repository.LLMUsageEventRepository), new(*postgres.LLMUsageEventRepository)),
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	redis.NewRateLimiter,
	ProvideDocumentStore,
	ProvidePageFetcher,
	wire.Bind(new(middleware.RateLimiter), new(*redis.RateLimiter)),
	wire.Bind(new(service.DocumentStore), new(*redis.SerpDocumentStore)),
	wire.Bind(new(service.PageFetcher), new(*redis.CachedPageFetcher)),
)

// MessagingSet 消息队列提供者集合
var MessagingSet = wire.NewSet(
	ProvideMessagingProducer,
	ProvideRunQueue,
	wire.Bind(new(pipeline.RunQueue), new(*messaging.RunQueue)),
)

// PipelineSet 阶段执行、文档与运行服务
var PipelineSet = wire.NewSet(
	llm.NewEinoFactory,
	wire.Bind(new(workflowport.ChatModelFactory), new(*llm.EinoFactory)),
	pipeline.NewService,
	pipeline.NewDocumentService,
	pipeline.NewRunService,
	usage.NewRecorder,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideHealthHandler,
	ProvideAnalysisHandler,
	ProvideWritingHandler,
	ProvideSerpDocumentHandler,
	ProvidePipelineRunHandler,
	wire.Struct(new(router.Handlers), "*"),
	router.New,
)
