package callback

import (
	"context"
	"sync"

	einocallbacks "github.com/cloudwego/eino/callbacks"
	cbtemplate "github.com/cloudwego/eino/utils/callbacks"
	"go.opentelemetry.io/otel/attribute"

	"seo-writer-api/internal/domain/service"
	"seo-writer-api/pkg/logger"
)

var initOnce sync.Once

// Init 注册进程级 Eino 回调，API 网关与 job-worker 各调用一次。
// 阶段链中的模板与 lambda 节点不产生用量，因此只挂 ChatModel 回调。
func Init(usageRecorder service.LLMUsageRecorder) {
	initOnce.Do(func() {
		einocallbacks.AppendGlobalHandlers(newGlobalHandler(usageRecorder))
	})
}

func newGlobalHandler(recorder service.LLMUsageRecorder) einocallbacks.Handler {
	return cbtemplate.NewHandlerHelper().
		ChatModel(newChatModelCallbackHandler(recorder)).
		Handler()
}

// pipelineScope 一次模型调用所属的流水线上下文，均来自请求或运行的 logger context
type pipelineScope struct {
	requestID string
	serpDocID string
	runID     string
}

func scopeFrom(ctx context.Context) pipelineScope {
	str := func(key logger.ContextKey) string {
		v, _ := ctx.Value(key).(string)
		return v
	}
	return pipelineScope{
		requestID: str(logger.RequestIDKey),
		serpDocID: str(logger.SerpDocIDKey),
		runID:     str(logger.RunIDKey),
	}
}

// attributes 仅输出非空字段
func (s pipelineScope) attributes() []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if s.serpDocID != "" {
		attrs = append(attrs, attribute.String("seo.serp_doc_id", s.serpDocID))
	}
	if s.runID != "" {
		attrs = append(attrs, attribute.String("seo.run_id", s.runID))
	}
	if s.requestID != "" {
		attrs = append(attrs, attribute.String("http.request_id", s.requestID))
	}
	return attrs
}

func (s pipelineScope) usageInput(target callTarget) service.LLMUsageInput {
	return service.LLMUsageInput{
		Workflow:  target.workflow,
		Provider:  target.provider,
		Model:     target.model,
		RequestID: s.requestID,
		SerpDocID: s.serpDocID,
		RunID:     s.runID,
	}
}
