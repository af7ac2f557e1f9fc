package dto

import (
	"encoding/json"
	"time"

	"seo-writer-api/internal/domain/entity"
)

// PipelineRunAcceptedResponse 创建运行响应
type PipelineRunAcceptedResponse struct {
	RunID  string           `json:"runId"`
	Status entity.RunStatus `json:"status"`
}

// PipelineRunResponse 运行状态与阶段产出
type PipelineRunResponse struct {
	RunID           string           `json:"runId"`
	SerpDocID       string           `json:"serpDocId"`
	Keyword         string           `json:"keyword"`
	MediaSiteName   string           `json:"mediaSiteName"`
	Status          entity.RunStatus `json:"status"`
	CurrentStage    string           `json:"currentStage,omitempty"`
	CompletedStages []string         `json:"completedStages"`
	Outputs         json.RawMessage  `json:"outputs,omitempty"`
	ErrorMessage    string           `json:"errorMessage,omitempty"`
	Attempts        int              `json:"attempts"`
	CreatedAt       time.Time        `json:"createdAt"`
	StartedAt       *time.Time       `json:"startedAt,omitempty"`
	FinishedAt      *time.Time       `json:"finishedAt,omitempty"`
}

func ToPipelineRunResponse(run *entity.PipelineRun) *PipelineRunResponse {
	completed := []string(run.CompletedStages)
	if completed == nil {
		completed = []string{}
	}
	return &PipelineRunResponse{
		RunID:           run.ID,
		SerpDocID:       run.SerpDocID,
		Keyword:         run.Keyword,
		MediaSiteName:   run.MediaSiteName,
		Status:          run.Status,
		CurrentStage:    run.CurrentStage,
		CompletedStages: completed,
		Outputs:         run.Outputs,
		ErrorMessage:    run.ErrorMessage,
		Attempts:        run.Attempts,
		CreatedAt:       run.CreatedAt,
		StartedAt:       run.StartedAt,
		FinishedAt:      run.FinishedAt,
	}
}
