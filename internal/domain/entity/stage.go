// Package entity 定义领域实体
package entity

// Stage 内容分析流水线阶段
type Stage string

const (
	StageContentType Stage = "content_type"
	StageUserIntent  Stage = "user_intent"
	StageTitle       Stage = "title"
	StageBetterHave  Stage = "better_have"
	StageActionPlan  Stage = "action_plan"
	StageArticle     Stage = "article"
	StagePersona     Stage = "persona"
)

// AnalysisStages 服务端流水线运行依次覆盖的分析阶段
var AnalysisStages = []Stage{
	StageContentType,
	StageUserIntent,
	StageTitle,
	StageBetterHave,
	StageActionPlan,
}

func (s Stage) String() string {
	return string(s)
}

// Streaming 是否为流式输出阶段
func (s Stage) Streaming() bool {
	return s == StageArticle || s == StagePersona
}
