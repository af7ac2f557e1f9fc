// Package webpage 抓取参考页面并转换为 markdown
package webpage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"seo-writer-api/internal/config"
	"seo-writer-api/internal/domain/service"
	"seo-writer-api/pkg/metrics"
)

var tracer = otel.Tracer("webpage")

// HTTPError 目标页面返回非 200 状态
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("fetching %s: unexpected status %d", e.URL, e.StatusCode)
}

// Fetcher 参考页面抓取器
type Fetcher struct {
	client    *http.Client
	converter *md.Converter
	maxBytes  int64
	userAgent string
}

var _ service.PageFetcher = (*Fetcher)(nil)

// NewFetcher 创建抓取器
func NewFetcher(cfg config.ReferenceConfig) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 2 << 20
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		converter: md.NewConverter("", true, nil),
		maxBytes:  maxBytes,
		userAgent: cfg.UserAgent,
	}
}

// FetchMarkdown 抓取页面正文，超出 maxBytes 的部分被丢弃
func (f *Fetcher) FetchMarkdown(ctx context.Context, rawURL string) (string, error) {
	ctx, span := tracer.Start(ctx, "webpage.FetchMarkdown",
		trace.WithAttributes(attribute.String("url", rawURL)))
	defer span.End()

	content, err := f.fetch(ctx, rawURL)
	if err != nil {
		span.RecordError(err)
		metrics.ReferenceFetchTotal.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.ReferenceFetchTotal.WithLabelValues("ok").Inc()
	return content, nil
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("unsupported reference url %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("building request for %s: %w", rawURL, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &HTTPError{StatusCode: resp.StatusCode, URL: rawURL}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}

	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain") {
		return strings.TrimSpace(string(body)), nil
	}

	markdown, err := f.converter.ConvertString(string(body))
	if err != nil {
		return "", fmt.Errorf("converting HTML to markdown: %w", err)
	}
	return strings.TrimSpace(markdown), nil
}
