package model

import "strings"

// LLMOptions 单次调用的模型参数，零值字段沿用 provider 配置
type LLMOptions struct {
	Provider    string
	Model       string
	Temperature *float32
	MaxTokens   *int
}

// ProviderName 返回去除空白后的 provider 名
func (o LLMOptions) ProviderName() string {
	return strings.TrimSpace(o.Provider)
}

// ModelName 返回去除空白后的模型名
func (o LLMOptions) ModelName() string {
	return strings.TrimSpace(o.Model)
}

// SerpContext 分析阶段共用的搜索结果上下文，集合元素保持不透明，可以是对象或字符串
type SerpContext struct {
	SerpDocID      string
	Keyword        string
	OrganicResults []any
	RelatedQueries []any
	PeopleAlsoAsk  []any
	AIOverview     *string
}
