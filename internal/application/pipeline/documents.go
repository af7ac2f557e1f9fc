package pipeline

import (
	"context"
	"encoding/json"

	"seo-writer-api/internal/domain/entity"
	"seo-writer-api/internal/domain/repository"
	"seo-writer-api/internal/domain/service"
	apperrors "seo-writer-api/pkg/errors"
)

// DocumentService SERP 文档的写入与查询
type DocumentService struct {
	repo      repository.SerpDocumentRepository
	documents service.DocumentStore
}

func NewDocumentService(repo repository.SerpDocumentRepository, documents service.DocumentStore) *DocumentService {
	return &DocumentService{repo: repo, documents: documents}
}

// Create 写入文档，集合字段原样保存
func (s *DocumentService) Create(ctx context.Context, req *SerpDocumentRequest) (*entity.SerpDocument, error) {
	doc := &entity.SerpDocument{
		MainKeyword: req.MainKeyword,
		AIOverview:  req.AIOverview,
		Locale:      req.Locale,
	}
	var err error
	if doc.OrganicResults, err = encodeRecords(req.OrganicResults); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "Invalid organicResults")
	}
	if doc.PeopleAlsoAsk, err = encodeRecords(req.PeopleAlsoAsk); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "Invalid peopleAlsoAsk")
	}
	if doc.RelatedQueries, err = encodeRecords(req.RelatedQueries); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "Invalid relatedQueries")
	}

	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, apperrors.Execution(err, "Failed to create SERP document")
	}
	return doc, nil
}

// Get 经读缓存获取文档
func (s *DocumentService) Get(ctx context.Context, id string) (*entity.SerpDocument, error) {
	doc, err := s.documents.FetchByID(ctx, id)
	if err != nil {
		return nil, apperrors.Execution(err, "Failed to load SERP document")
	}
	if doc == nil {
		return nil, apperrors.NotFound("SERP document not found", "no SERP document with id "+id)
	}
	return doc, nil
}

// List 按关键词前缀分页列出
func (s *DocumentService) List(ctx context.Context, keyword string, pagination repository.Pagination) (*repository.PagedResult[*entity.SerpDocument], error) {
	result, err := s.repo.List(ctx, &repository.SerpDocumentFilter{Keyword: keyword}, pagination)
	if err != nil {
		return nil, apperrors.Execution(err, "Failed to list SERP documents")
	}
	return result, nil
}

func encodeRecords(records []any) (json.RawMessage, error) {
	if records == nil {
		return nil, nil
	}
	return json.Marshal(records)
}
