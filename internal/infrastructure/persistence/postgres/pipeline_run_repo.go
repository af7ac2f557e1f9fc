// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"seo-writer-api/internal/domain/entity"
)

// PipelineRunRepository 流水线运行仓储实现
type PipelineRunRepository struct {
	client *Client
}

// NewPipelineRunRepository 创建流水线运行仓储
func NewPipelineRunRepository(client *Client) *PipelineRunRepository {
	return &PipelineRunRepository{client: client}
}

// Create 创建运行记录
func (r *PipelineRunRepository) Create(ctx context.Context, run *entity.PipelineRun) error {
	ctx, span := tracer.Start(ctx, "postgres.PipelineRunRepository.Create")
	defer span.End()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	db := getDB(ctx, r.client.db)
	if err := db.Create(run).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create pipeline run: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取
func (r *PipelineRunRepository) GetByID(ctx context.Context, id string) (*entity.PipelineRun, error) {
	ctx, span := tracer.Start(ctx, "postgres.PipelineRunRepository.GetByID")
	defer span.End()

	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	db := getDB(ctx, r.client.db)
	var run entity.PipelineRun
	if err := db.First(&run, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get pipeline run: %w", err)
	}
	return &run, nil
}

// GetByIdempotencyKey 根据幂等键获取
func (r *PipelineRunRepository) GetByIdempotencyKey(ctx context.Context, key string) (*entity.PipelineRun, error) {
	ctx, span := tracer.Start(ctx, "postgres.PipelineRunRepository.GetByIdempotencyKey")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var run entity.PipelineRun
	if err := db.First(&run, "idempotency_key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get pipeline run by idempotency key: %w", err)
	}
	return &run, nil
}

// Update 保存运行状态
func (r *PipelineRunRepository) Update(ctx context.Context, run *entity.PipelineRun) error {
	ctx, span := tracer.Start(ctx, "postgres.PipelineRunRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(run).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update pipeline run: %w", err)
	}
	return nil
}
