package service

import (
	"context"

	"seo-writer-api/internal/domain/entity"
)

// DocumentStore 只读的 SERP 文档来源，不存在时返回 nil, nil
type DocumentStore interface {
	FetchByID(ctx context.Context, id string) (*entity.SerpDocument, error)
}

// PageFetcher 抓取参考页面并转换为 markdown 正文
type PageFetcher interface {
	FetchMarkdown(ctx context.Context, url string) (string, error)
}
