// Package usage 记录 LLM 调用流水
package usage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"seo-writer-api/internal/domain/entity"
	"seo-writer-api/internal/domain/repository"
	"seo-writer-api/internal/domain/service"
)

const writeTimeout = 3 * time.Second

// Recorder 将用量写入 llm_usage_events
type Recorder struct {
	repo repository.LLMUsageEventRepository
}

var _ service.LLMUsageRecorder = (*Recorder)(nil)

func NewRecorder(repo repository.LLMUsageEventRepository) *Recorder {
	return &Recorder{repo: repo}
}

// Record 写入一条流水；请求已取消时仍会落库
func (r *Recorder) Record(ctx context.Context, in service.LLMUsageInput) error {
	if r == nil || r.repo == nil {
		return nil
	}
	if in.PromptTokens < 0 || in.CompletionTokens < 0 {
		return fmt.Errorf("invalid token usage")
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	return r.repo.Create(ctx, &entity.LLMUsageEvent{
		Workflow:         strings.TrimSpace(in.Workflow),
		Provider:         strings.TrimSpace(in.Provider),
		Model:            strings.TrimSpace(in.Model),
		RequestID:        strings.TrimSpace(in.RequestID),
		SerpDocID:        strings.TrimSpace(in.SerpDocID),
		RunID:            strings.TrimSpace(in.RunID),
		TokensPrompt:     in.PromptTokens,
		TokensCompletion: in.CompletionTokens,
		DurationMs:       in.DurationMs,
		Streamed:         in.Streamed,
	})
}

// Summary 统计 [start, end) 区间内各阶段用量
func (r *Recorder) Summary(ctx context.Context, start, end time.Time) ([]repository.LLMUsageSummary, error) {
	if !end.After(start) {
		return nil, fmt.Errorf("invalid usage window")
	}
	return r.repo.SummarizeByWorkflow(ctx, start, end)
}
