// Package entity 定义领域实体
package entity

import (
	"encoding/json"
	"strings"
	"time"
)

// SerpDocument 某个关键词的搜索结果页快照
// 集合字段按原样保存为 jsonb，元素结构对流水线不透明
type SerpDocument struct {
	ID             string          `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MainKeyword    string          `json:"mainKeyword" gorm:"type:varchar(255);index;not null"`
	OrganicResults json.RawMessage `json:"organicResults" gorm:"type:jsonb"`
	PeopleAlsoAsk  json.RawMessage `json:"peopleAlsoAsk" gorm:"type:jsonb"`
	RelatedQueries json.RawMessage `json:"relatedQueries" gorm:"type:jsonb"`
	AIOverview     *string         `json:"aiOverview" gorm:"type:text"`
	Locale         string          `json:"locale,omitempty" gorm:"type:varchar(16)"`
	CreatedAt      time.Time       `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (SerpDocument) TableName() string {
	return "serp_documents"
}

// Records 将 jsonb 集合解码为有序的不透明元素，null 或空值返回 nil
// 元素可能是对象、字符串或其他 JSON 值
func Records(raw json.RawMessage) ([]any, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	var out []any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// OrganicRecords 解码自然搜索结果
func (d *SerpDocument) OrganicRecords() ([]any, error) {
	return Records(d.OrganicResults)
}

// PeopleAlsoAskRecords 解码 "people also ask" 列表
func (d *SerpDocument) PeopleAlsoAskRecords() ([]any, error) {
	return Records(d.PeopleAlsoAsk)
}

// RelatedQueryRecords 解码相关搜索
func (d *SerpDocument) RelatedQueryRecords() ([]any, error) {
	return Records(d.RelatedQueries)
}
