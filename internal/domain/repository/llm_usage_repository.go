// Package repository 定义数据访问层接口
package repository

import (
	"context"
	"time"

	"seo-writer-api/internal/domain/entity"
)

// LLMUsageSummary 按阶段聚合的用量
type LLMUsageSummary struct {
	Workflow         string `json:"workflow"`
	Calls            int64  `json:"calls"`
	TokensPrompt     int64  `json:"tokens_prompt"`
	TokensCompletion int64  `json:"tokens_completion"`
}

type LLMUsageEventRepository interface {
	Create(ctx context.Context, event *entity.LLMUsageEvent) error
	SummarizeByWorkflow(ctx context.Context, startInclusive, endExclusive time.Time) ([]LLMUsageSummary, error)
}
