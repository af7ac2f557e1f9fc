// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"seo-writer-api/internal/domain/entity"
)

// PipelineRunRepository 流水线运行仓储接口
type PipelineRunRepository interface {
	// Create 创建运行记录
	Create(ctx context.Context, run *entity.PipelineRun) error

	// GetByID 根据 ID 获取，不存在时返回 nil, nil
	GetByID(ctx context.Context, id string) (*entity.PipelineRun, error)

	// GetByIdempotencyKey 根据幂等键获取，不存在时返回 nil, nil
	GetByIdempotencyKey(ctx context.Context, key string) (*entity.PipelineRun, error)

	// Update 保存运行状态
	Update(ctx context.Context, run *entity.PipelineRun) error
}
