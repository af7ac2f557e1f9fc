package chain

import (
	"context"
	"fmt"

	"seo-writer-api/internal/domain/entity"
	wfmodel "seo-writer-api/internal/workflow/model"
	workflowport "seo-writer-api/internal/workflow/port"
	workflowprompt "seo-writer-api/internal/workflow/prompt"
)

// UserIntentChain 搜索意图分析，输出自由文本
type UserIntentChain struct {
	text       *TextChain
	maxResults int
}

func NewUserIntentChain(factory workflowport.ChatModelFactory, maxResults int) *UserIntentChain {
	return &UserIntentChain{
		text:       newTextChain(factory, entity.StageUserIntent.String(), workflowprompt.PromptUserIntentV1),
		maxResults: maxResults,
	}
}

func (c *UserIntentChain) Invoke(ctx context.Context, in *wfmodel.UserIntentInput) (string, error) {
	if in == nil {
		return "", fmt.Errorf("input is nil")
	}
	return c.text.invoke(ctx, in.LLMOptions, serpVars(&in.Serp, c.maxResults))
}
