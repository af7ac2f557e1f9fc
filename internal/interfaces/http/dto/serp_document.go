package dto

import (
	"time"

	"seo-writer-api/internal/domain/entity"
	"seo-writer-api/internal/domain/repository"
)

// SerpDocumentCreatedResponse 创建文档响应
type SerpDocumentCreatedResponse struct {
	ID          string    `json:"id"`
	MainKeyword string    `json:"mainKeyword"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SerpDocumentSummary 列表项，不含集合字段
type SerpDocumentSummary struct {
	ID          string    `json:"id"`
	MainKeyword string    `json:"mainKeyword"`
	Locale      string    `json:"locale,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SerpDocumentListResponse 文档分页列表
type SerpDocumentListResponse struct {
	Items    []*SerpDocumentSummary `json:"items"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"pageSize"`
	Total    int64                  `json:"total"`
}

func ToSerpDocumentCreated(doc *entity.SerpDocument) *SerpDocumentCreatedResponse {
	return &SerpDocumentCreatedResponse{
		ID:          doc.ID,
		MainKeyword: doc.MainKeyword,
		CreatedAt:   doc.CreatedAt,
	}
}

func ToSerpDocumentList(result *repository.PagedResult[*entity.SerpDocument]) *SerpDocumentListResponse {
	items := make([]*SerpDocumentSummary, 0, len(result.Items))
	for _, d := range result.Items {
		items = append(items, &SerpDocumentSummary{
			ID:          d.ID,
			MainKeyword: d.MainKeyword,
			Locale:      d.Locale,
			CreatedAt:   d.CreatedAt,
		})
	}
	return &SerpDocumentListResponse{
		Items:    items,
		Page:     result.Page,
		PageSize: result.PageSize,
		Total:    result.Total,
	}
}
