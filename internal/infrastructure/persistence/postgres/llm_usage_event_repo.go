// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"seo-writer-api/internal/domain/entity"
	"seo-writer-api/internal/domain/repository"
)

type LLMUsageEventRepository struct {
	client *Client
}

func NewLLMUsageEventRepository(client *Client) *LLMUsageEventRepository {
	return &LLMUsageEventRepository{client: client}
}

func (r *LLMUsageEventRepository) Create(ctx context.Context, event *entity.LLMUsageEvent) error {
	ctx, span := tracer.Start(ctx, "postgres.LLMUsageEventRepository.Create")
	defer span.End()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	db := getDB(ctx, r.client.db)
	if err := db.Create(event).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create llm usage event: %w", err)
	}
	return nil
}

func (r *LLMUsageEventRepository) SummarizeByWorkflow(ctx context.Context, startInclusive, endExclusive time.Time) ([]repository.LLMUsageSummary, error) {
	ctx, span := tracer.Start(ctx, "postgres.LLMUsageEventRepository.SummarizeByWorkflow")
	defer span.End()

	db := getDB(ctx, r.client.db)

	var rows []repository.LLMUsageSummary
	if err := db.Model(&entity.LLMUsageEvent{}).
		Select("workflow, COUNT(*) AS calls, COALESCE(SUM(tokens_prompt),0) AS tokens_prompt, COALESCE(SUM(tokens_completion),0) AS tokens_completion").
		Where("created_at >= ? AND created_at < ?", startInclusive, endExclusive).
		Group("workflow").
		Order("workflow").
		Scan(&rows).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to summarize llm usage: %w", err)
	}
	return rows, nil
}
