package wire

import (
	"context"
	"fmt"
	"os"

	"seo-writer-api/internal/application/pipeline"
	"seo-writer-api/internal/application/usage"
	"seo-writer-api/internal/config"
	"seo-writer-api/internal/domain/repository"
	"seo-writer-api/internal/infrastructure/messaging"
	"seo-writer-api/internal/infrastructure/persistence/postgres"
	"seo-writer-api/internal/infrastructure/persistence/redis"
	"seo-writer-api/internal/infrastructure/webpage"
	"seo-writer-api/internal/interfaces/http/handler"
	"seo-writer-api/internal/interfaces/http/router"
	"seo-writer-api/pkg/logger"
)

// App API 网关依赖容器
type App struct {
	Router *router.Router
	Usage  *usage.Recorder
}

// Worker job-worker 依赖容器
type Worker struct {
	Consumer *messaging.Consumer
	Usage    *usage.Recorder
}

// PostgresOnlyDataLayer 仅包含 PostgreSQL 的数据层（用于 bootstrap）
type PostgresOnlyDataLayer struct {
	PgClient      *postgres.Client
	TxManager     *postgres.TxManager
	SerpDocRepo   *postgres.SerpDocumentRepository
	PipelineRuns  *postgres.PipelineRunRepository
	UsageRecorder *usage.Recorder
}

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideDocumentStore 带读缓存的 SERP 文档来源
func ProvideDocumentStore(cfg *config.Config, repo repository.SerpDocumentRepository, client *redis.Client) *redis.SerpDocumentStore {
	return redis.NewSerpDocumentStore(repo, redis.NewCache(client, "serp_document"), cfg.Pipeline.DocumentCacheTTL)
}

// ProvidePageFetcher 参考页面抓取，结果按 URL 缓存
func ProvidePageFetcher(cfg *config.Config, client *redis.Client) *redis.CachedPageFetcher {
	ref := cfg.Pipeline.Reference
	return redis.NewCachedPageFetcher(webpage.NewFetcher(ref), redis.NewCache(client, "reference_page"), ref.CacheTTL)
}

// ProvideMessagingProducer 提供消息生产者
func ProvideMessagingProducer(redisClient *redis.Client, cfg *config.Config) *messaging.Producer {
	return messaging.NewProducer(redisClient.Redis(), cfg.Messaging.RedisStream.MaxLen)
}

// ProvideRunQueue 流水线运行队列
func ProvideRunQueue(producer *messaging.Producer, cfg *config.Config) *messaging.RunQueue {
	return messaging.NewRunQueue(producer, cfg.Pipeline.Runs.Stream)
}

// ProvideConsumer 流水线运行消费者，已注册 pipeline.run 处理器
func ProvideConsumer(redisClient *redis.Client, cfg *config.Config, runs *pipeline.RunService) *messaging.Consumer {
	rs := cfg.Messaging.RedisStream
	consumer := messaging.NewConsumer(redisClient.Redis(), messaging.ConsumerConfig{
		Stream:        messaging.Stream(cfg.Pipeline.Runs.Stream),
		Group:         cfg.Pipeline.Runs.Group,
		ConsumerName:  consumerName(),
		BlockTimeout:  rs.BlockTimeout,
		ClaimInterval: rs.ClaimInterval,
		RetryLimit:    rs.RetryLimit,
		Backoff: messaging.BackoffConfig{
			Initial:    rs.RetryBackoff.Initial,
			Max:        rs.RetryBackoff.Max,
			Multiplier: rs.RetryBackoff.Multiplier,
		},
	})
	consumer.RegisterHandler(messaging.TypePipelineRun, messaging.PipelineRunHandler(runs.Execute))
	return consumer
}

func consumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

// ProvideHealthHandler 健康检查处理器
func ProvideHealthHandler(cfg *config.Config, pg *postgres.Client, rc *redis.Client) *handler.HealthHandler {
	return handler.NewHealthHandler(cfg.App.Version, pg, rc)
}

// ProvideAnalysisHandler 分析阶段处理器
func ProvideAnalysisHandler(cfg *config.Config, stages *pipeline.Service) *handler.AnalysisHandler {
	return handler.NewAnalysisHandler(stages, cfg.Server.HTTP.MaxBodyBytes)
}

// ProvideWritingHandler 流式写作处理器
func ProvideWritingHandler(cfg *config.Config, stages *pipeline.Service) *handler.WritingHandler {
	return handler.NewWritingHandler(stages, cfg.Server.HTTP.MaxBodyBytes)
}

// ProvideSerpDocumentHandler SERP 文档处理器
func ProvideSerpDocumentHandler(cfg *config.Config, documents *pipeline.DocumentService) *handler.SerpDocumentHandler {
	return handler.NewSerpDocumentHandler(documents, cfg.Server.HTTP.MaxBodyBytes)
}

// ProvidePipelineRunHandler 未开启服务端运行时返回 nil，路由不注册运行接口
func ProvidePipelineRunHandler(ctx context.Context, cfg *config.Config, runs *pipeline.RunService) *handler.PipelineRunHandler {
	if !cfg.Pipeline.Runs.Enabled {
		logger.Info(ctx, "pipeline runs disabled")
		return nil
	}
	return handler.NewPipelineRunHandler(runs, cfg.Server.HTTP.MaxBodyBytes)
}

var _ pipeline.RunQueue = (*messaging.RunQueue)(nil)
