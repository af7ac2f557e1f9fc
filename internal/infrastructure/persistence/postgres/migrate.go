// Package postgres 提供 PostgreSQL 数据库访问层实现
package postgres

import (
	"context"
	"fmt"

	"seo-writer-api/internal/domain/entity"
)

// Models 需要迁移的全部表
func Models() []any {
	return []any{
		&entity.SerpDocument{},
		&entity.PipelineRun{},
		&entity.LLMUsageEvent{},
	}
}

// Migrate 创建扩展并同步表结构
func (c *Client) Migrate(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "postgres.Migrate")
	defer span.End()

	db := c.db.WithContext(ctx)
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create pgcrypto extension: %w", err)
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to auto migrate: %w", err)
	}
	return nil
}
