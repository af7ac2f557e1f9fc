package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"seo-writer-api/internal/domain/entity"
	wfmodel "seo-writer-api/internal/workflow/model"
	wfnode "seo-writer-api/internal/workflow/node"
	workflowport "seo-writer-api/internal/workflow/port"
	workflowprompt "seo-writer-api/internal/workflow/prompt"
)

// analysisSpec 描述一个“结构化分析 + 建议文本”阶段
type analysisSpec struct {
	stage    entity.Stage
	label    string
	promptID workflowprompt.PromptID
	schema   jsonSchemaSpec
}

type analysisChainState struct {
	In          *wfmodel.AnalysisInput
	Messages    []*schema.Message
	RawAnalysis string
	Analysis    map[string]any
	Recommend   string
}

// AnalysisChain 两次 LLM 调用：先产出结构化分析 JSON，再据此生成给写手的建议文本。
type AnalysisChain struct {
	factory    workflowport.ChatModelFactory
	spec       analysisSpec
	maxResults int

	chainOnce sync.Once
	chain     compose.Runnable[*wfmodel.AnalysisInput, *wfmodel.AnalysisOutput]
	chainErr  error
}

// NewContentTypeChain 内容形式分析
func NewContentTypeChain(factory workflowport.ChatModelFactory, maxResults int) *AnalysisChain {
	return &AnalysisChain{
		factory:    factory,
		maxResults: maxResults,
		spec: analysisSpec{
			stage:    entity.StageContentType,
			label:    "content type analysis",
			promptID: workflowprompt.PromptContentTypeV1,
			schema:   jsonSchemaSpec{Name: "content_type_analysis", Schema: contentTypeJSONSchema()},
		},
	}
}

// NewTitleChain 标题分析
func NewTitleChain(factory workflowport.ChatModelFactory, maxResults int) *AnalysisChain {
	return &AnalysisChain{
		factory:    factory,
		maxResults: maxResults,
		spec: analysisSpec{
			stage:    entity.StageTitle,
			label:    "title analysis",
			promptID: workflowprompt.PromptTitleAnalysisV1,
			schema:   jsonSchemaSpec{Name: "title_analysis", Schema: titleJSONSchema()},
		},
	}
}

// NewBetterHaveChain 内容差距分析
func NewBetterHaveChain(factory workflowport.ChatModelFactory, maxResults int) *AnalysisChain {
	return &AnalysisChain{
		factory:    factory,
		maxResults: maxResults,
		spec: analysisSpec{
			stage:    entity.StageBetterHave,
			label:    "content gap analysis",
			promptID: workflowprompt.PromptBetterHaveV1,
			schema:   jsonSchemaSpec{Name: "better_have_analysis", Schema: betterHaveJSONSchema()},
		},
	}
}

func (c *AnalysisChain) Invoke(ctx context.Context, in *wfmodel.AnalysisInput) (*wfmodel.AnalysisOutput, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}

	chain, err := c.getChain()
	if err != nil {
		return nil, err
	}
	return chain.Invoke(ctx, in)
}

func (c *AnalysisChain) getChain() (compose.Runnable[*wfmodel.AnalysisInput, *wfmodel.AnalysisOutput], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *AnalysisChain) buildChain(ctx context.Context) (compose.Runnable[*wfmodel.AnalysisInput, *wfmodel.AnalysisOutput], error) {
	name := c.spec.stage.String()
	chain := compose.NewChain[*wfmodel.AnalysisInput, *wfmodel.AnalysisOutput]()

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, in *wfmodel.AnalysisInput) (*analysisChainState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			msgs, err := formatMessages(ctx, c.spec.promptID, serpVars(&in.Serp, c.maxResults))
			if err != nil {
				return nil, err
			}
			return &analysisChainState{In: in, Messages: msgs}, nil
		}),
		compose.WithNodeName(name+".template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *analysisChainState) (*analysisChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			outMsg, err := generate(ctx, c.factory, name, st.In.LLMOptions, st.Messages, &c.spec.schema)
			if err != nil {
				return nil, err
			}
			st.RawAnalysis = outMsg.Content
			return st, nil
		}),
		compose.WithNodeName(name+".llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *analysisChainState) (*analysisChainState, error) {
			analysis, err := wfnode.DecodeJSONMap(st.RawAnalysis)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", c.spec.label, err)
			}
			st.Analysis = analysis
			return st, nil
		}),
		compose.WithNodeName(name+".parse"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *analysisChainState) (*analysisChainState, error) {
			encoded, err := json.MarshalIndent(st.Analysis, "", "  ")
			if err != nil {
				return nil, err
			}
			msgs, err := formatMessages(ctx, workflowprompt.PromptRecommendationV1, map[string]any{
				"stage_label":   c.spec.label,
				"keyword":       strings.TrimSpace(st.In.Serp.Keyword),
				"analysis_json": string(encoded),
			})
			if err != nil {
				return nil, err
			}
			outMsg, err := generate(ctx, c.factory, name, st.In.LLMOptions, msgs, nil)
			if err != nil {
				return nil, err
			}
			st.Recommend = strings.TrimSpace(outMsg.Content)
			return st, nil
		}),
		compose.WithNodeName(name+".recommend"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *analysisChainState) (*wfmodel.AnalysisOutput, error) {
			if st == nil || st.Analysis == nil {
				return nil, fmt.Errorf("state is nil")
			}
			return &wfmodel.AnalysisOutput{
				AnalysisJSON:       st.Analysis,
				RecommendationText: st.Recommend,
			}, nil
		}),
		compose.WithNodeName(name+".finalize"),
	)

	return chain.Compile(ctx)
}

// serpVars 分析类 prompt 的公共变量
func serpVars(serp *wfmodel.SerpContext, maxResults int) map[string]any {
	aiOverview := wfnode.Deref(serp.AIOverview)
	if aiOverview == "" {
		aiOverview = "(none)"
	}
	return map[string]any{
		"keyword":         strings.TrimSpace(serp.Keyword),
		"organic_results": wfnode.BuildOrganicResultsBlock(serp.OrganicResults, maxResults),
		"people_also_ask": wfnode.BuildPeopleAlsoAskBlock(serp.PeopleAlsoAsk),
		"related_queries": wfnode.BuildRelatedQueriesBlock(serp.RelatedQueries),
		"ai_overview":     wfnode.TruncateByRunes(aiOverview, 4000),
	}
}

func stringArray() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
}

// 以下 schema 仅约束顶层字段，避免过度约束导致模型输出失败。
func contentTypeJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": true,
		"required":             []any{"dominantContentType", "contentTypes"},
		"properties": map[string]any{
			"dominantContentType": map[string]any{"type": "string"},
			"contentTypes": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": true,
					"required":             []any{"type"},
					"properties": map[string]any{
						"type":             map[string]any{"type": "string"},
						"share":            map[string]any{"type": "number"},
						"examplePositions": map[string]any{"type": "array", "items": map[string]any{"type": "integer"}},
					},
				},
			},
			"searchFormat": map[string]any{"type": "string"},
			"notes":        map[string]any{"type": "string"},
		},
	}
}

func titleJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": true,
		"required":             []any{"commonPatterns", "keywordPlacement"},
		"properties": map[string]any{
			"commonPatterns":   stringArray(),
			"keywordPlacement": map[string]any{"type": "string"},
			"averageLength":    map[string]any{"type": "number"},
			"powerWords":       stringArray(),
			"titleTypes": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": true,
					"properties": map[string]any{
						"type":  map[string]any{"type": "string"},
						"count": map[string]any{"type": "integer"},
					},
				},
			},
			"gaps": stringArray(),
		},
	}
}

func betterHaveJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": true,
		"required":             []any{"mustHaveTopics", "betterHaveTopics"},
		"properties": map[string]any{
			"mustHaveTopics":    stringArray(),
			"betterHaveTopics":  stringArray(),
			"questionsToAnswer": stringArray(),
			"differentiators":   stringArray(),
		},
	}
}
