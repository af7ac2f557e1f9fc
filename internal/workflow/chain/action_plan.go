package chain

import (
	"context"
	"fmt"
	"strings"

	"seo-writer-api/internal/domain/entity"
	wfmodel "seo-writer-api/internal/workflow/model"
	wfnode "seo-writer-api/internal/workflow/node"
	workflowport "seo-writer-api/internal/workflow/port"
	workflowprompt "seo-writer-api/internal/workflow/prompt"
)

// ActionPlanChain 汇总前序报告生成行动计划；缺失的报告以空段落呈现
type ActionPlanChain struct {
	text *TextChain
}

func NewActionPlanChain(factory workflowport.ChatModelFactory) *ActionPlanChain {
	return &ActionPlanChain{
		text: newTextChain(factory, entity.StageActionPlan.String(), workflowprompt.PromptActionPlanV1),
	}
}

func (c *ActionPlanChain) Invoke(ctx context.Context, in *wfmodel.ActionPlanInput) (string, error) {
	if in == nil {
		return "", fmt.Errorf("input is nil")
	}
	return c.text.invoke(ctx, in.LLMOptions, actionPlanVars(in))
}

func actionPlanVars(in *wfmodel.ActionPlanInput) map[string]any {
	cluster := wfnode.Deref(in.SelectedClusterName)
	if cluster == "" {
		cluster = "(none)"
	}
	return map[string]any{
		"keyword":                    strings.TrimSpace(in.Keyword),
		"media_site_name":            strings.TrimSpace(in.MediaSiteName),
		"selected_cluster":           cluster,
		"content_type_report":        wfnode.BuildOptionalSection("Content type report", in.ContentTypeReportText),
		"user_intent_report":         wfnode.BuildOptionalSection("User intent report", in.UserIntentReportText),
		"title_recommendation":       wfnode.BuildOptionalSection("Title recommendations", in.TitleRecommendationText),
		"better_have_recommendation": wfnode.BuildOptionalSection("Content gap recommendations", in.BetterHaveRecommendationText),
		"keyword_report":             wfnode.TruncateByRunes(wfnode.BuildJSONBlock(in.KeywordReport), 8000),
	}
}
