// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"seo-writer-api/internal/domain/entity"
	"seo-writer-api/internal/domain/repository"
)

// SerpDocumentRepository SERP 文档仓储实现
type SerpDocumentRepository struct {
	client *Client
}

// NewSerpDocumentRepository 创建 SERP 文档仓储
func NewSerpDocumentRepository(client *Client) *SerpDocumentRepository {
	return &SerpDocumentRepository{client: client}
}

// Create 创建文档
func (r *SerpDocumentRepository) Create(ctx context.Context, doc *entity.SerpDocument) error {
	ctx, span := tracer.Start(ctx, "postgres.SerpDocumentRepository.Create")
	defer span.End()

	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	db := getDB(ctx, r.client.db)
	if err := db.Create(doc).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create serp document: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取文档；非 UUID 格式的 ID 视为不存在
func (r *SerpDocumentRepository) GetByID(ctx context.Context, id string) (*entity.SerpDocument, error) {
	ctx, span := tracer.Start(ctx, "postgres.SerpDocumentRepository.GetByID")
	defer span.End()

	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	db := getDB(ctx, r.client.db)
	var doc entity.SerpDocument
	if err := db.First(&doc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get serp document: %w", err)
	}
	return &doc, nil
}

// List 分页列出文档
func (r *SerpDocumentRepository) List(ctx context.Context, filter *repository.SerpDocumentFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.SerpDocument], error) {
	ctx, span := tracer.Start(ctx, "postgres.SerpDocumentRepository.List")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.SerpDocument{})
	if filter != nil && strings.TrimSpace(filter.Keyword) != "" {
		query = query.Where("main_keyword ILIKE ?", strings.TrimSpace(filter.Keyword)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count serp documents: %w", err)
	}

	var docs []*entity.SerpDocument
	if err := query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&docs).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list serp documents: %w", err)
	}

	return repository.NewPagedResult(docs, total, pagination), nil
}
