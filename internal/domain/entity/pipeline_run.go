// Package entity 定义领域实体
package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// RunStatus 流水线运行状态
type RunStatus string

const (
	RunStatusPending RunStatus = "pending"
	RunStatusRunning RunStatus = "running"
	RunStatusDone    RunStatus = "done"
	RunStatusFailed  RunStatus = "failed"
)

// PipelineRun 服务端持久化的一次流水线运行
// 状态机：pending -> running(current_stage) -> ... -> done/failed
type PipelineRun struct {
	ID                  string          `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SerpDocID           string          `json:"serpDocId" gorm:"type:uuid;index;not null"`
	Keyword             string          `json:"keyword" gorm:"type:varchar(255);not null"`
	MediaSiteName       string          `json:"mediaSiteName" gorm:"type:varchar(255);not null"`
	SelectedClusterName *string         `json:"selectedClusterName" gorm:"type:varchar(255)"`
	KeywordReport       json.RawMessage `json:"keywordReport,omitempty" gorm:"type:jsonb"`
	Status              RunStatus       `json:"status" gorm:"type:varchar(16);index;not null"`
	CurrentStage        string          `json:"currentStage,omitempty" gorm:"type:varchar(32)"`
	CompletedStages     pq.StringArray  `json:"completedStages" gorm:"type:text[]"`
	Outputs             json.RawMessage `json:"outputs,omitempty" gorm:"type:jsonb"`
	ErrorMessage        string          `json:"errorMessage,omitempty" gorm:"type:text"`
	IdempotencyKey      *string         `json:"-" gorm:"type:varchar(128);uniqueIndex"`
	Attempts            int             `json:"attempts" gorm:"not null;default:0"`
	CreatedAt           time.Time       `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt           time.Time       `json:"updatedAt" gorm:"autoUpdateTime"`
	StartedAt           *time.Time      `json:"startedAt,omitempty"`
	FinishedAt          *time.Time      `json:"finishedAt,omitempty"`
}

func (PipelineRun) TableName() string {
	return "pipeline_runs"
}

// NewPipelineRun 创建待执行的运行记录
func NewPipelineRun(serpDocID, keyword, mediaSiteName string) *PipelineRun {
	return &PipelineRun{
		SerpDocID:       serpDocID,
		Keyword:         keyword,
		MediaSiteName:   mediaSiteName,
		Status:          RunStatusPending,
		CompletedStages: pq.StringArray{},
		CreatedAt:       time.Now(),
	}
}

// Start 进入执行状态，重复投递时清空上次的阶段进度
func (r *PipelineRun) Start() {
	now := time.Now()
	r.Status = RunStatusRunning
	r.Attempts++
	r.StartedAt = &now
	r.FinishedAt = nil
	r.ErrorMessage = ""
	r.CurrentStage = ""
	r.CompletedStages = pq.StringArray{}
	r.Outputs = nil
}

// BeginStage 标记阶段开始
func (r *PipelineRun) BeginStage(stage Stage) {
	r.CurrentStage = stage.String()
}

// CompleteStage 记录阶段产出
func (r *PipelineRun) CompleteStage(stage Stage, output any) error {
	outputs := map[string]json.RawMessage{}
	if len(r.Outputs) > 0 {
		if err := json.Unmarshal(r.Outputs, &outputs); err != nil {
			return fmt.Errorf("decode run outputs: %w", err)
		}
	}
	encoded, err := json.Marshal(output)
	if err != nil {
		return fmt.Errorf("encode %s output: %w", stage, err)
	}
	outputs[stage.String()] = encoded

	merged, err := json.Marshal(outputs)
	if err != nil {
		return fmt.Errorf("encode run outputs: %w", err)
	}
	r.Outputs = merged
	if !r.HasCompleted(stage) {
		r.CompletedStages = append(r.CompletedStages, stage.String())
	}
	return nil
}

// HasCompleted 阶段是否已完成
func (r *PipelineRun) HasCompleted(stage Stage) bool {
	for _, s := range r.CompletedStages {
		if s == stage.String() {
			return true
		}
	}
	return false
}

// Output 解码指定阶段产出，未完成时返回 false
func (r *PipelineRun) Output(stage Stage, dst any) (bool, error) {
	if len(r.Outputs) == 0 {
		return false, nil
	}
	outputs := map[string]json.RawMessage{}
	if err := json.Unmarshal(r.Outputs, &outputs); err != nil {
		return false, err
	}
	raw, ok := outputs[stage.String()]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

// Finish 运行成功结束
func (r *PipelineRun) Finish() {
	now := time.Now()
	r.Status = RunStatusDone
	r.CurrentStage = ""
	r.FinishedAt = &now
}

// Fail 运行失败
func (r *PipelineRun) Fail(stage Stage, errMsg string) {
	now := time.Now()
	r.Status = RunStatusFailed
	r.CurrentStage = stage.String()
	r.ErrorMessage = errMsg
	r.FinishedAt = &now
}

// IsTerminal 是否已到终态
func (r *PipelineRun) IsTerminal() bool {
	return r.Status == RunStatusDone || r.Status == RunStatusFailed
}
