// Package messaging 提供基于 Redis Stream 的消息队列实现
package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"seo-writer-api/pkg/logger"
	"seo-writer-api/pkg/tracer"
)

var msgTracer = otel.Tracer("messaging")

// Producer 消息生产者
type Producer struct {
	client *redis.Client
	maxLen int64
}

// NewProducer 创建消息生产者
func NewProducer(client *redis.Client, maxLen int64) *Producer {
	if maxLen <= 0 {
		maxLen = 100000
	}
	return &Producer{
		client: client,
		maxLen: maxLen,
	}
}

// Publish 发布消息到指定流
func (p *Producer) Publish(ctx context.Context, stream Stream, msg *Message) (string, error) {
	ctx, span := msgTracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(
			attribute.String("stream", string(stream)),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	result, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()

	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	span.SetAttributes(attribute.String("stream.message_id", result))
	return result, nil
}

// PublishPipelineRun 投递流水线运行任务，携带请求与追踪标识
func (p *Producer) PublishPipelineRun(ctx context.Context, stream Stream, runID string) (string, error) {
	msg, err := NewMessage(runID, TypePipelineRun, &PipelineRunMessage{RunID: runID})
	if err != nil {
		return "", err
	}

	if reqID, ok := ctx.Value(logger.RequestIDKey).(string); ok && reqID != "" {
		msg.SetMetadata("request_id", reqID)
	}
	if traceID := tracer.TraceID(ctx); traceID != "" {
		msg.SetMetadata("trace_id", traceID)
	}

	return p.Publish(ctx, stream, msg)
}

// RunQueue 流水线运行队列
type RunQueue struct {
	producer *Producer
	stream   Stream
}

// NewRunQueue 创建运行队列
func NewRunQueue(producer *Producer, stream string) *RunQueue {
	return &RunQueue{producer: producer, stream: Stream(stream)}
}

// Enqueue 投递运行 ID
func (q *RunQueue) Enqueue(ctx context.Context, runID string) error {
	_, err := q.producer.PublishPipelineRun(ctx, q.stream, runID)
	return err
}
