package model

// AnalysisInput 结构化分析阶段（content-type/title/better-have）输入
type AnalysisInput struct {
	LLMOptions
	Serp SerpContext
}

// AnalysisOutput 结构化分析结果与基于该结果的建议文本
type AnalysisOutput struct {
	AnalysisJSON       map[string]any
	RecommendationText string
}

// UserIntentInput 搜索意图分析输入
type UserIntentInput struct {
	LLMOptions
	Serp SerpContext
}

// ActionPlanInput 行动计划输入，所有报告字段均可缺省
type ActionPlanInput struct {
	LLMOptions
	Keyword                      string
	MediaSiteName                string
	ContentTypeReportText        *string
	UserIntentReportText         *string
	TitleRecommendationText      *string
	BetterHaveRecommendationText *string
	KeywordReport                map[string]any
	SelectedClusterName          *string
}
