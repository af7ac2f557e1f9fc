// Package redis 提供 Redis 缓存实现
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"seo-writer-api/pkg/metrics"
)

var cacheTracer = otel.Tracer("redis.cache")

// ErrNotCached loader 返回 nil 时的哨兵，结果不写入缓存
var ErrNotCached = errors.New("value not cacheable")

// Cache 缓存服务
type Cache struct {
	client *Client
	name   string
	group  singleflight.Group
}

// NewCache 创建缓存服务，name 作为指标标签
func NewCache(client *Client, name string) *Cache {
	return &Cache{
		client: client,
		name:   name,
	}
}

// GetOrLoadSafe Read-Through 缓存，使用 singleflight 防止缓存击穿
// loader 返回 (nil, nil) 时结果为 ErrNotCached，不写入缓存
func (c *Cache) GetOrLoadSafe(ctx context.Context, key string, ttl time.Duration, loader func() (interface{}, error)) ([]byte, error) {
	ctx, span := cacheTracer.Start(ctx, "cache.GetOrLoadSafe",
		trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	val, err := c.client.rdb.Get(ctx, key).Bytes()
	if err == nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		c.observe("hit")
		return val, nil
	}

	if !IsNil(err) {
		span.RecordError(err)
		c.observe("error")
		return nil, err
	}

	span.SetAttributes(attribute.Bool("cache.hit", false))
	c.observe("miss")

	// 合并并发请求
	result, err, shared := c.group.Do(key, func() (interface{}, error) {
		// 再次检查缓存（可能已被其他请求填充）
		if val, err := c.client.rdb.Get(ctx, key).Bytes(); err == nil {
			return val, nil
		}

		data, err := loader()
		if err != nil {
			return nil, err
		}
		if data == nil {
			return nil, ErrNotCached
		}

		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal data: %w", err)
		}

		if err := c.client.rdb.Set(ctx, key, bytes, ttl).Err(); err != nil {
			// 缓存写入失败不影响返回结果
			span.RecordError(err)
		}

		return bytes, nil
	})

	span.SetAttributes(attribute.Bool("cache.shared", shared))

	if err != nil {
		if !errors.Is(err, ErrNotCached) {
			span.RecordError(err)
		}
		return nil, err
	}

	return result.([]byte), nil
}

func (c *Cache) observe(result string) {
	metrics.CacheLookupTotal.WithLabelValues(c.name, result).Inc()
}
