package model

// ArticleInput 文章生成输入
// Draft、TargetURL、ReferenceContent 任一非空即为改写模式
type ArticleInput struct {
	LLMOptions
	Keyword          string
	MediaSiteName    string
	ActionPlanText   string
	Draft            *string
	TargetURL        *string
	ReferenceContent string
}

// RefineMode 是否基于草稿或参考页面改写
func (in *ArticleInput) RefineMode() bool {
	return in.Draft != nil || in.TargetURL != nil || in.ReferenceContent != ""
}

// PersonaInput 读者画像生成输入
type PersonaInput struct {
	LLMOptions
	Keywords      []string
	MainKeyword   *string
	MediaSiteName *string
}
