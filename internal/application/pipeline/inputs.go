package pipeline

import (
	"strings"

	apperrors "seo-writer-api/pkg/errors"
)

// ContentTypeRequest 内容类型分析，按 ID 自行加载 SERP 文档
type ContentTypeRequest struct {
	SerpDocID string `json:"serpDocId" validate:"notblank"`
}

// DocumentID 请求引用的 SERP 文档
func (r *ContentTypeRequest) DocumentID() string { return r.SerpDocID }

func (r *ContentTypeRequest) normalize() {
	r.SerpDocID = strings.TrimSpace(r.SerpDocID)
}

// UserIntentRequest 搜索意图分析，SERP 字段由调用方预先提供
type UserIntentRequest struct {
	SerpDocID      string `json:"serpDocId" validate:"notblank"`
	Keyword        string `json:"keyword" validate:"notblank"`
	OrganicResults []any  `json:"organicResults"`
	RelatedQueries []any  `json:"relatedQueries"`
}

func (r *UserIntentRequest) DocumentID() string { return r.SerpDocID }

func (r *UserIntentRequest) normalize() {
	r.SerpDocID = strings.TrimSpace(r.SerpDocID)
	r.Keyword = strings.TrimSpace(r.Keyword)
}

// TitleRequest 标题分析
type TitleRequest struct {
	SerpDocID      string `json:"serpDocId" validate:"notblank"`
	Keyword        string `json:"keyword" validate:"notblank"`
	OrganicResults []any  `json:"organicResults"`
}

func (r *TitleRequest) DocumentID() string { return r.SerpDocID }

func (r *TitleRequest) normalize() {
	r.SerpDocID = strings.TrimSpace(r.SerpDocID)
	r.Keyword = strings.TrimSpace(r.Keyword)
}

// BetterHaveRequest 内容缺口分析
type BetterHaveRequest struct {
	SerpDocID      string  `json:"serpDocId" validate:"notblank"`
	Keyword        string  `json:"keyword" validate:"notblank"`
	OrganicResults []any   `json:"organicResults"`
	PeopleAlsoAsk  []any   `json:"peopleAlsoAsk"`
	RelatedQueries []any   `json:"relatedQueries"`
	AIOverview     *string `json:"aiOverview"`
}

func (r *BetterHaveRequest) DocumentID() string { return r.SerpDocID }

func (r *BetterHaveRequest) normalize() {
	r.SerpDocID = strings.TrimSpace(r.SerpDocID)
	r.Keyword = strings.TrimSpace(r.Keyword)
	r.AIOverview = optional(r.AIOverview)
}

// ActionPlanRequest 行动计划，报告字段全部可缺省
type ActionPlanRequest struct {
	Keyword                      string         `json:"keyword" validate:"notblank"`
	MediaSiteName                string         `json:"mediaSiteName" validate:"notblank"`
	ContentTypeReportText        *string        `json:"contentTypeReportText"`
	UserIntentReportText         *string        `json:"userIntentReportText"`
	TitleRecommendationText      *string        `json:"titleRecommendationText"`
	BetterHaveRecommendationText *string        `json:"betterHaveRecommendationText"`
	KeywordReport                map[string]any `json:"keywordReport"`
	SelectedClusterName          *string        `json:"selectedClusterName"`
}

func (r *ActionPlanRequest) normalize() {
	r.Keyword = strings.TrimSpace(r.Keyword)
	r.MediaSiteName = strings.TrimSpace(r.MediaSiteName)
	r.ContentTypeReportText = optional(r.ContentTypeReportText)
	r.UserIntentReportText = optional(r.UserIntentReportText)
	r.TitleRecommendationText = optional(r.TitleRecommendationText)
	r.BetterHaveRecommendationText = optional(r.BetterHaveRecommendationText)
	r.SelectedClusterName = optional(r.SelectedClusterName)
	if len(r.KeywordReport) == 0 {
		r.KeywordReport = nil
	}
}

// ArticleRequest 文章生成；提供 inputText 或 targetUrl 时进入改写模式
type ArticleRequest struct {
	Keyword        string  `json:"keyword" validate:"notblank"`
	ActionPlanText string  `json:"actionPlanText" validate:"notblank"`
	MediaSiteName  *string `json:"mediaSiteName"`
	InputText      *string `json:"inputText"`
	TargetURL      *string `json:"targetUrl" validate:"omitnil,http_url"`
}

func (r *ArticleRequest) normalize() {
	r.Keyword = strings.TrimSpace(r.Keyword)
	r.ActionPlanText = strings.TrimSpace(r.ActionPlanText)
	r.MediaSiteName = optional(r.MediaSiteName)
	r.InputText = optional(r.InputText)
	r.TargetURL = optional(r.TargetURL)
}

// PersonaRequest 读者画像生成
type PersonaRequest struct {
	Keywords      []string `json:"keywords"`
	Keyword       *string  `json:"keyword"`
	MediaSiteName *string  `json:"mediaSiteName"`
}

func (r *PersonaRequest) normalize() {
	r.Keyword = optional(r.Keyword)
	r.MediaSiteName = optional(r.MediaSiteName)
}

func (r *PersonaRequest) check() []apperrors.FieldError {
	for _, k := range r.Keywords {
		if strings.TrimSpace(k) != "" {
			return nil
		}
	}
	return []apperrors.FieldError{{Path: "keywords", Message: "must contain at least one non-blank keyword"}}
}

// PipelineRunRequest 创建服务端流水线运行
type PipelineRunRequest struct {
	SerpDocID           string         `json:"serpDocId" validate:"notblank"`
	MediaSiteName       string         `json:"mediaSiteName" validate:"notblank"`
	SelectedClusterName *string        `json:"selectedClusterName"`
	KeywordReport       map[string]any `json:"keywordReport"`
}

func (r *PipelineRunRequest) DocumentID() string { return r.SerpDocID }

func (r *PipelineRunRequest) normalize() {
	r.SerpDocID = strings.TrimSpace(r.SerpDocID)
	r.MediaSiteName = strings.TrimSpace(r.MediaSiteName)
	r.SelectedClusterName = optional(r.SelectedClusterName)
	if len(r.KeywordReport) == 0 {
		r.KeywordReport = nil
	}
}

// SerpDocumentRequest 写入 SERP 文档，集合元素可以是任意 JSON 值
type SerpDocumentRequest struct {
	MainKeyword    string  `json:"mainKeyword" validate:"notblank,max=255"`
	OrganicResults []any   `json:"organicResults"`
	PeopleAlsoAsk  []any   `json:"peopleAlsoAsk"`
	RelatedQueries []any   `json:"relatedQueries"`
	AIOverview     *string `json:"aiOverview"`
	Locale         string  `json:"locale" validate:"max=16"`
}

func (r *SerpDocumentRequest) normalize() {
	r.MainKeyword = strings.TrimSpace(r.MainKeyword)
	r.Locale = strings.TrimSpace(r.Locale)
	r.AIOverview = optional(r.AIOverview)
}
