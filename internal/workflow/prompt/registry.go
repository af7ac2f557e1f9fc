package prompt

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed templates/*.txt
var templatesFS embed.FS

type PromptID string

const (
	PromptContentTypeV1     PromptID = "content_type_v1"
	PromptUserIntentV1      PromptID = "user_intent_v1"
	PromptTitleAnalysisV1   PromptID = "title_analysis_v1"
	PromptBetterHaveV1      PromptID = "better_have_v1"
	PromptRecommendationV1  PromptID = "recommendation_v1"
	PromptActionPlanV1      PromptID = "action_plan_v1"
	PromptArticleGenerateV1 PromptID = "article_generate_v1"
	PromptArticleRefineV1   PromptID = "article_refine_v1"
	PromptPersonaGenerateV1 PromptID = "persona_generate_v1"
)

// All 返回全部已注册的 prompt，用于启动期预热与测试
func All() []PromptID {
	return []PromptID{
		PromptContentTypeV1,
		PromptUserIntentV1,
		PromptTitleAnalysisV1,
		PromptBetterHaveV1,
		PromptRecommendationV1,
		PromptActionPlanV1,
		PromptArticleGenerateV1,
		PromptArticleRefineV1,
		PromptPersonaGenerateV1,
	}
}

type Registry struct {
	mu    sync.RWMutex
	cache map[PromptID]einoprompt.ChatTemplate
}

func NewRegistry() *Registry {
	return &Registry{
		cache: make(map[PromptID]einoprompt.ChatTemplate),
	}
}

func (r *Registry) ChatTemplate(id PromptID) (einoprompt.ChatTemplate, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry is nil")
	}

	r.mu.RLock()
	if tpl, ok := r.cache[id]; ok {
		r.mu.RUnlock()
		return tpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if tpl, ok := r.cache[id]; ok {
		return tpl, nil
	}

	systemPath, userPath, err := resolvePromptFiles(id)
	if err != nil {
		return nil, err
	}
	system, err := readEmbeddedText(systemPath)
	if err != nil {
		return nil, err
	}
	user, err := readEmbeddedText(userPath)
	if err != nil {
		return nil, err
	}

	tpl := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(system),
		schema.UserMessage(user),
	)
	r.cache[id] = tpl
	return tpl, nil
}

func resolvePromptFiles(id PromptID) (systemFile string, userFile string, err error) {
	for _, known := range All() {
		if known == id {
			return fmt.Sprintf("templates/%s.system.txt", id), fmt.Sprintf("templates/%s.user.txt", id), nil
		}
	}
	return "", "", fmt.Errorf("unknown prompt id: %s", id)
}

func readEmbeddedText(path string) (string, error) {
	b, err := templatesFS.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
