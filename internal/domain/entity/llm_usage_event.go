// Package entity 定义领域实体
package entity

import "time"

// LLMUsageEvent 单次模型调用流水
type LLMUsageEvent struct {
	ID               string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Workflow         string    `json:"workflow" gorm:"type:varchar(32);index;not null"`
	Provider         string    `json:"provider" gorm:"type:varchar(32);not null"`
	Model            string    `json:"model" gorm:"type:varchar(64);not null"`
	RequestID        string    `json:"request_id,omitempty" gorm:"type:varchar(64)"`
	SerpDocID        string    `json:"serp_doc_id,omitempty" gorm:"type:varchar(64);index"`
	RunID            string    `json:"run_id,omitempty" gorm:"type:varchar(64);index"`
	TokensPrompt     int       `json:"tokens_prompt" gorm:"not null;default:0"`
	TokensCompletion int       `json:"tokens_completion" gorm:"not null;default:0"`
	DurationMs       int       `json:"duration_ms" gorm:"not null;default:0"`
	Streamed         bool      `json:"streamed" gorm:"not null;default:false"`
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (LLMUsageEvent) TableName() string {
	return "llm_usage_events"
}
