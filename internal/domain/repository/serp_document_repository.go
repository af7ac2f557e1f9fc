// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"seo-writer-api/internal/domain/entity"
)

// SerpDocumentFilter SERP 文档过滤条件
type SerpDocumentFilter struct {
	// Keyword 按主关键词前缀匹配
	Keyword string
}

// SerpDocumentRepository SERP 文档仓储接口
type SerpDocumentRepository interface {
	// Create 创建文档
	Create(ctx context.Context, doc *entity.SerpDocument) error

	// GetByID 根据 ID 获取文档，不存在时返回 nil, nil
	GetByID(ctx context.Context, id string) (*entity.SerpDocument, error)

	// List 分页列出文档
	List(ctx context.Context, filter *SerpDocumentFilter, pagination Pagination) (*PagedResult[*entity.SerpDocument], error)
}
