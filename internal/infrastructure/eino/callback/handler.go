package callback

import (
	"context"
	"errors"
	"io"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	cbtemplate "github.com/cloudwego/eino/utils/callbacks"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"seo-writer-api/internal/domain/service"
	"seo-writer-api/pkg/logger"
	"seo-writer-api/pkg/metrics"
)

type startTimeKey struct{}

// callTarget 一次模型调用的标签
type callTarget struct {
	workflow string
	provider string
	model    string
}

func targetFrom(ctx context.Context, cfgModel string) callTarget {
	m := cfgModel
	if m == "" {
		m = service.ModelFromContext(ctx)
	}
	if m == "" {
		m = "unknown"
	}
	return callTarget{
		workflow: service.WorkflowFromContext(ctx),
		provider: service.ProviderFromContext(ctx),
		model:    m,
	}
}

type usageHandler struct {
	recorder service.LLMUsageRecorder
}

func newChatModelCallbackHandler(recorder service.LLMUsageRecorder) *cbtemplate.ModelCallbackHandler {
	h := &usageHandler{recorder: recorder}
	return &cbtemplate.ModelCallbackHandler{
		OnStart:               h.onStart,
		OnEnd:                 h.onEnd,
		OnEndWithStreamOutput: h.onEndWithStreamOutput,
		OnError:               h.onError,
	}
}

func (h *usageHandler) onStart(ctx context.Context, info *einocb.RunInfo, input *model.CallbackInput) context.Context {
	ctx = context.WithValue(ctx, startTimeKey{}, time.Now())

	target := targetFrom(ctx, modelNameFromInput(input))
	attrs := []attribute.KeyValue{
		attribute.String("seo.stage", target.workflow),
		attribute.String("llm.provider", target.provider),
		attribute.String("llm.model", target.model),
	}
	attrs = append(attrs, scopeFrom(ctx).attributes()...)
	if info != nil {
		attrs = append(attrs,
			attribute.String("eino.node_name", info.Name),
			attribute.String("eino.type", info.Type),
		)
	}

	ctx, _ = otel.Tracer("eino").Start(ctx, "llm.generate", trace.WithAttributes(attrs...))
	return ctx
}

func (h *usageHandler) onEnd(ctx context.Context, _ *einocb.RunInfo, output *model.CallbackOutput) context.Context {
	var usage *model.TokenUsage
	if output != nil {
		usage = output.TokenUsage
	}
	h.finish(ctx, targetFrom(ctx, modelNameFromOutput(output)), usage, false)
	return ctx
}

// onEndWithStreamOutput 在后台读完回调流副本后再记账，副本必须关闭
func (h *usageHandler) onEndWithStreamOutput(ctx context.Context, _ *einocb.RunInfo, output *schema.StreamReader[*model.CallbackOutput]) context.Context {
	go func() {
		defer output.Close()

		var (
			usage     *model.TokenUsage
			cfgModel  string
			streamErr error
		)
		for {
			chunk, err := output.Recv()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				streamErr = err
				break
			}
			if chunk == nil {
				continue
			}
			if chunk.TokenUsage != nil {
				usage = chunk.TokenUsage
			}
			if m := modelNameFromOutput(chunk); m != "" {
				cfgModel = m
			}
		}

		target := targetFrom(ctx, cfgModel)
		if streamErr != nil {
			h.fail(ctx, target, streamErr)
			return
		}
		h.finish(ctx, target, usage, true)
	}()
	return ctx
}

func (h *usageHandler) onError(ctx context.Context, _ *einocb.RunInfo, err error) context.Context {
	h.fail(ctx, targetFrom(ctx, ""), err)
	return ctx
}

func (h *usageHandler) finish(ctx context.Context, target callTarget, usage *model.TokenUsage, streamed bool) {
	metrics.LLMCallTotal.WithLabelValues(target.workflow, target.provider, target.model, "success").Inc()
	elapsed := elapsedSeconds(ctx)
	if elapsed > 0 {
		metrics.LLMCallDuration.WithLabelValues(target.workflow, target.provider, target.model).Observe(elapsed)
	}

	var promptTokens, completionTokens int
	if usage != nil {
		promptTokens = usage.PromptTokens
		completionTokens = usage.CompletionTokens
		metrics.LLMTokensUsed.WithLabelValues(target.workflow, target.provider, target.model, "prompt").Add(float64(promptTokens))
		metrics.LLMTokensUsed.WithLabelValues(target.workflow, target.provider, target.model, "completion").Add(float64(completionTokens))
	}

	if h.recorder != nil {
		in := scopeFrom(ctx).usageInput(target)
		in.PromptTokens = promptTokens
		in.CompletionTokens = completionTokens
		in.DurationMs = int(elapsed * 1000)
		in.Streamed = streamed
		if err := h.recorder.Record(ctx, in); err != nil {
			logger.Warn(ctx, "failed to record llm usage", "stage", target.workflow, "error", err.Error())
		}
	}

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.Int("llm.prompt_tokens", promptTokens),
		attribute.Int("llm.completion_tokens", completionTokens),
		attribute.Bool("llm.streamed", streamed),
	)
	span.End()
}

func (h *usageHandler) fail(ctx context.Context, target callTarget, err error) {
	metrics.LLMCallTotal.WithLabelValues(target.workflow, target.provider, target.model, "error").Inc()
	if d := elapsedSeconds(ctx); d > 0 {
		metrics.LLMCallDuration.WithLabelValues(target.workflow, target.provider, target.model).Observe(d)
	}

	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.End()
}

func elapsedSeconds(ctx context.Context) float64 {
	start, ok := ctx.Value(startTimeKey{}).(time.Time)
	if !ok || start.IsZero() {
		return 0
	}
	return time.Since(start).Seconds()
}

func modelNameFromInput(in *model.CallbackInput) string {
	if in == nil || in.Config == nil {
		return ""
	}
	return in.Config.Model
}

func modelNameFromOutput(out *model.CallbackOutput) string {
	if out == nil || out.Config == nil {
		return ""
	}
	return out.Config.Model
}
