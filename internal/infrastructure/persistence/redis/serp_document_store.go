package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"seo-writer-api/internal/domain/entity"
	"seo-writer-api/internal/domain/repository"
	"seo-writer-api/internal/domain/service"
	"seo-writer-api/pkg/logger"
)

// SerpDocumentStore 带读缓存的 SERP 文档来源
type SerpDocumentStore struct {
	repo  repository.SerpDocumentRepository
	cache *Cache
	ttl   time.Duration
}

var _ service.DocumentStore = (*SerpDocumentStore)(nil)

// NewSerpDocumentStore 创建文档来源；cache 为 nil 或 ttl 为 0 时直接读库
func NewSerpDocumentStore(repo repository.SerpDocumentRepository, cache *Cache, ttl time.Duration) *SerpDocumentStore {
	return &SerpDocumentStore{repo: repo, cache: cache, ttl: ttl}
}

func serpDocumentKey(id string) string {
	return "serp_doc:" + id
}

// FetchByID 读取文档，缓存异常时回退到数据库
func (s *SerpDocumentStore) FetchByID(ctx context.Context, id string) (*entity.SerpDocument, error) {
	if s.cache == nil || s.ttl <= 0 {
		return s.repo.GetByID(ctx, id)
	}

	raw, err := s.cache.GetOrLoadSafe(ctx, serpDocumentKey(id), s.ttl, func() (interface{}, error) {
		doc, err := s.repo.GetByID(ctx, id)
		if err != nil || doc == nil {
			return nil, err
		}
		return doc, nil
	})
	switch {
	case errors.Is(err, ErrNotCached):
		return nil, nil
	case err != nil:
		logger.Warn(ctx, "serp document cache unavailable, reading from database", "error", err.Error())
		return s.repo.GetByID(ctx, id)
	}

	var doc entity.SerpDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		logger.Warn(ctx, "discarding undecodable cached serp document", "error", err.Error())
		return s.repo.GetByID(ctx, id)
	}
	return &doc, nil
}

// CachedPageFetcher 参考页面抓取结果缓存
type CachedPageFetcher struct {
	next  service.PageFetcher
	cache *Cache
	ttl   time.Duration
}

var _ service.PageFetcher = (*CachedPageFetcher)(nil)

// NewCachedPageFetcher 包装页面抓取器
func NewCachedPageFetcher(next service.PageFetcher, cache *Cache, ttl time.Duration) *CachedPageFetcher {
	return &CachedPageFetcher{next: next, cache: cache, ttl: ttl}
}

func referencePageKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "ref_page:" + hex.EncodeToString(sum[:])
}

// FetchMarkdown 先读缓存，未命中时抓取
func (f *CachedPageFetcher) FetchMarkdown(ctx context.Context, url string) (string, error) {
	if f.cache == nil || f.ttl <= 0 {
		return f.next.FetchMarkdown(ctx, url)
	}

	raw, err := f.cache.GetOrLoadSafe(ctx, referencePageKey(url), f.ttl, func() (interface{}, error) {
		content, err := f.next.FetchMarkdown(ctx, url)
		if err != nil {
			return nil, &upstreamError{err: err}
		}
		return content, nil
	})
	if err != nil {
		var upstream *upstreamError
		if errors.As(err, &upstream) {
			return "", upstream.err
		}
		logger.Warn(ctx, "reference page cache unavailable", "error", err.Error())
		return f.next.FetchMarkdown(ctx, url)
	}

	var content string
	if err := json.Unmarshal(raw, &content); err != nil {
		return f.next.FetchMarkdown(ctx, url)
	}
	return content, nil
}

// upstreamError 区分抓取失败与缓存失败
type upstreamError struct {
	err error
}

func (e *upstreamError) Error() string { return e.err.Error() }

func (e *upstreamError) Unwrap() error { return e.err }
