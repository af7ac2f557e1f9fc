package chain

import (
	"context"
	"fmt"
	"strings"

	openaiopts "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	llmctx "seo-writer-api/internal/domain/service"
	wfmodel "seo-writer-api/internal/workflow/model"
	wfnode "seo-writer-api/internal/workflow/node"
	workflowport "seo-writer-api/internal/workflow/port"
	workflowprompt "seo-writer-api/internal/workflow/prompt"
	"seo-writer-api/pkg/logger"
)

var defaultPromptRegistry = workflowprompt.NewRegistry()

// jsonSchemaSpec 结构化输出约束，nil 表示纯文本输出
type jsonSchemaSpec struct {
	Name   string
	Schema map[string]any
}

func formatMessages(ctx context.Context, id workflowprompt.PromptID, vars map[string]any) ([]*schema.Message, error) {
	tpl, err := defaultPromptRegistry.ChatTemplate(id)
	if err != nil {
		return nil, err
	}
	return tpl.Format(ctx, vars)
}

func buildModelOptions(in wfmodel.LLMOptions, js *jsonSchemaSpec) []model.Option {
	opts := make([]model.Option, 0, 4)
	if in.Temperature != nil {
		opts = append(opts, model.WithTemperature(*in.Temperature))
	}
	if in.MaxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*in.MaxTokens))
	}
	if m := in.ModelName(); m != "" {
		opts = append(opts, model.WithModel(m))
	}

	if js != nil {
		opts = append(opts, openaiopts.WithExtraFields(map[string]any{
			"response_format": map[string]any{
				"type": "json_schema",
				"json_schema": map[string]any{
					"name":   js.Name,
					"strict": false,
					"schema": js.Schema,
				},
			},
		}))
	}
	return opts
}

// withModelRunInfo 让模型内部触发的回调带上 ChatModel 组件信息
func withModelRunInfo(ctx context.Context, workflow string, in wfmodel.LLMOptions) context.Context {
	ctx = llmctx.WithLLMTarget(ctx, workflow, in.ProviderName(), in.ModelName())
	return callbacks.ReuseHandlers(ctx, &callbacks.RunInfo{
		Name:      workflow,
		Type:      in.ProviderName(),
		Component: components.ComponentOfChatModel,
	})
}

// generate 执行一次非流式调用；provider 不支持 json_schema 时退回纯 prompt 约束
func generate(ctx context.Context, factory workflowport.ChatModelFactory, workflow string, in wfmodel.LLMOptions, msgs []*schema.Message, js *jsonSchemaSpec) (*schema.Message, error) {
	if factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}

	chatModel, provider, err := factory.Resolve(ctx, in.ProviderName())
	if err != nil {
		return nil, err
	}
	in.Provider = provider
	ctx = withModelRunInfo(ctx, workflow, in)

	outMsg, err := chatModel.Generate(ctx, msgs, buildModelOptions(in, js)...)
	if err != nil && js != nil && wfnode.IsResponseFormatUnsupportedError(err) {
		logger.Warn(ctx, "llm json_schema not supported, fallback to prompt-only",
			"workflow", workflow,
			"provider", in.ProviderName(),
			"model", in.ModelName(),
			"error", err.Error(),
		)
		outMsg, err = chatModel.Generate(ctx, msgs, buildModelOptions(in, nil)...)
	}
	if err != nil {
		return nil, err
	}
	if outMsg == nil || strings.TrimSpace(outMsg.Content) == "" {
		return nil, fmt.Errorf("empty llm response")
	}
	return outMsg, nil
}

// stream 打开流式调用，调用方负责 Close()
func stream(ctx context.Context, factory workflowport.ChatModelFactory, workflow string, in wfmodel.LLMOptions, msgs []*schema.Message) (*schema.StreamReader[*schema.Message], error) {
	if factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}

	chatModel, provider, err := factory.Resolve(ctx, in.ProviderName())
	if err != nil {
		return nil, err
	}
	in.Provider = provider
	ctx = withModelRunInfo(ctx, workflow, in)
	return chatModel.Stream(ctx, msgs, buildModelOptions(in, nil)...)
}
