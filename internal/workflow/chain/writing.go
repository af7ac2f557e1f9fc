package chain

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"seo-writer-api/internal/domain/entity"
	wfmodel "seo-writer-api/internal/workflow/model"
	wfnode "seo-writer-api/internal/workflow/node"
	workflowport "seo-writer-api/internal/workflow/port"
	workflowprompt "seo-writer-api/internal/workflow/prompt"
)

// ArticleChain 文章生成，按是否提供草稿/参考内容选择新写或改写 prompt
type ArticleChain struct {
	generate *TextChain
	refine   *TextChain
}

func NewArticleChain(factory workflowport.ChatModelFactory) *ArticleChain {
	workflow := entity.StageArticle.String()
	return &ArticleChain{
		generate: newTextChain(factory, workflow, workflowprompt.PromptArticleGenerateV1),
		refine:   newTextChain(factory, workflow, workflowprompt.PromptArticleRefineV1),
	}
}

// Stream 返回 Eino StreamReader；调用方负责 Close()。
func (c *ArticleChain) Stream(ctx context.Context, in *wfmodel.ArticleInput) (*schema.StreamReader[*schema.Message], error) {
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}

	vars := map[string]any{
		"keyword":         strings.TrimSpace(in.Keyword),
		"media_site_name": orNone(in.MediaSiteName),
		"action_plan":     strings.TrimSpace(in.ActionPlanText),
	}
	if !in.RefineMode() {
		return c.generate.stream(ctx, in.LLMOptions, vars)
	}

	vars["draft"] = orNone(wfnode.Deref(in.Draft))
	vars["target_url"] = orNone(wfnode.Deref(in.TargetURL))
	vars["reference_content"] = orNone(in.ReferenceContent)
	return c.refine.stream(ctx, in.LLMOptions, vars)
}

// PersonaChain 基于关键词列表生成读者画像
type PersonaChain struct {
	text *TextChain
}

func NewPersonaChain(factory workflowport.ChatModelFactory) *PersonaChain {
	return &PersonaChain{
		text: newTextChain(factory, entity.StagePersona.String(), workflowprompt.PromptPersonaGenerateV1),
	}
}

// Stream 返回 Eino StreamReader；调用方负责 Close()。
func (c *PersonaChain) Stream(ctx context.Context, in *wfmodel.PersonaInput) (*schema.StreamReader[*schema.Message], error) {
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}
	if len(in.Keywords) == 0 {
		return nil, fmt.Errorf("keywords are empty")
	}

	mainKeyword := wfnode.Deref(in.MainKeyword)
	if mainKeyword == "" {
		mainKeyword = in.Keywords[0]
	}
	return c.text.stream(ctx, in.LLMOptions, map[string]any{
		"main_keyword":    mainKeyword,
		"media_site_name": orNone(wfnode.Deref(in.MediaSiteName)),
		"keyword_count":   len(in.Keywords),
		"keywords":        wfnode.BuildKeywordList(in.Keywords),
	})
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return strings.TrimSpace(s)
}
