// Package llmtest 提供测试用的 ChatModel 替身
package llmtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"seo-writer-api/internal/domain/service"
)

// Responder 根据输入消息生成回复
type Responder func(msgs []*schema.Message) (string, error)

// Call 记录的一次调用
type Call struct {
	System   string
	User     string
	Stream   bool
	Workflow string
	Provider string
}

// ChatModel 可编排回复的 model.BaseChatModel 实现
type ChatModel struct {
	Respond Responder
	// ChunkSize 流式输出每块的 rune 数，默认 8
	ChunkSize int
	// StreamErrAfter 大于 0 时在发送该数量的块后返回错误
	StreamErrAfter int
	// ChunkDelay 每块之间的间隔，用于模拟慢速上游
	ChunkDelay time.Duration

	mu    sync.Mutex
	calls []Call
}

var _ model.BaseChatModel = (*ChatModel)(nil)

// New 创建按 prompt 类型回复的假模型：要求 JSON 的 prompt 返回 jsonReply，其余返回 textReply
func New(jsonReply, textReply string) *ChatModel {
	return &ChatModel{
		Respond: func(msgs []*schema.Message) (string, error) {
			if strings.Contains(SystemText(msgs), "single JSON object") {
				return jsonReply, nil
			}
			return textReply, nil
		},
	}
}

func (m *ChatModel) record(ctx context.Context, msgs []*schema.Message, stream bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{
		System:   SystemText(msgs),
		User:     UserText(msgs),
		Stream:   stream,
		Workflow: service.WorkflowFromContext(ctx),
		Provider: service.ProviderFromContext(ctx),
	})
}

// Calls 返回调用记录副本
func (m *ChatModel) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.record(ctx, input, false)
	text, err := m.Respond(input)
	if err != nil {
		return nil, err
	}
	return &schema.Message{
		Role:    schema.Assistant,
		Content: text,
		ResponseMeta: &schema.ResponseMeta{
			Usage: &schema.TokenUsage{PromptTokens: 10, CompletionTokens: len(text), TotalTokens: 10 + len(text)},
		},
	}, nil
}

func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	m.record(ctx, input, true)
	text, err := m.Respond(input)
	if err != nil {
		return nil, err
	}

	size := m.ChunkSize
	if size <= 0 {
		size = 8
	}
	runes := []rune(text)
	sr, sw := schema.Pipe[*schema.Message](len(runes)/size + 2)
	go func() {
		defer sw.Close()
		sent := 0
		for start := 0; start < len(runes); start += size {
			if m.StreamErrAfter > 0 && sent == m.StreamErrAfter {
				sw.Send(nil, fmt.Errorf("upstream connection reset"))
				return
			}
			if m.ChunkDelay > 0 && sent > 0 {
				time.Sleep(m.ChunkDelay)
			}
			end := start + size
			if end > len(runes) {
				end = len(runes)
			}
			if closed := sw.Send(&schema.Message{Role: schema.Assistant, Content: string(runes[start:end])}, nil); closed {
				return
			}
			sent++
		}
	}()
	return sr, nil
}

// DefaultProvider 未指定 provider 时 Factory 解析出的名字
const DefaultProvider = "fake"

// Factory 总是返回同一个模型的 ChatModelFactory
type Factory struct {
	Model model.BaseChatModel
	Err   error
}

func (f *Factory) Resolve(_ context.Context, provider string) (model.BaseChatModel, string, error) {
	if f.Err != nil {
		return nil, "", f.Err
	}
	if strings.TrimSpace(provider) == "" {
		provider = DefaultProvider
	}
	return f.Model, provider, nil
}

// SystemText 返回第一条 system 消息内容
func SystemText(msgs []*schema.Message) string {
	for _, m := range msgs {
		if m != nil && m.Role == schema.System {
			return m.Content
		}
	}
	return ""
}

// UserText 返回最后一条 user 消息内容
func UserText(msgs []*schema.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i] != nil && msgs[i].Role == schema.User {
			return msgs[i].Content
		}
	}
	return ""
}
