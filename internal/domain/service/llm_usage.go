package service

import "context"

// LLMUsageInput 表示一次 LLM 调用的可观测数据。
// 位于 domain/service，作为跨层的稳定契约，避免基础设施层依赖应用层实现。
type LLMUsageInput struct {
	Workflow  string
	Provider  string
	Model     string
	RequestID string
	// SerpDocID / RunID 为空表示调用不属于某个文档或服务端运行
	SerpDocID string
	RunID     string

	PromptTokens     int
	CompletionTokens int
	DurationMs       int
	Streamed         bool
}

// LLMUsageRecorder 负责记录 LLM 使用量。
// 约定：实现应尽量 best-effort，不应阻塞主业务流程。
type LLMUsageRecorder interface {
	Record(ctx context.Context, in LLMUsageInput) error
}
