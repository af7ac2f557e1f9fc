package pipeline

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"seo-writer-api/internal/config"
	"seo-writer-api/internal/domain/entity"
	"seo-writer-api/internal/domain/service"
	"seo-writer-api/internal/workflow/llmtest"
)

const (
	docID       = "5b6f0c7e-2d7e-4c1b-9d0f-2f7a9c1e8b11"
	contentJSON = `{"dominantContentType":"listicle","contentTypes":[{"type":"listicle","count":7}]}`
)

type memDocuments struct {
	mu   sync.Mutex
	docs map[string]*entity.SerpDocument
	err  error
}

func newMemDocuments(docs ...*entity.SerpDocument) *memDocuments {
	m := &memDocuments{docs: map[string]*entity.SerpDocument{}}
	for _, d := range docs {
		m.docs[d.ID] = d
	}
	return m
}

func (m *memDocuments) FetchByID(_ context.Context, id string) (*entity.SerpDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.docs[id], nil
}

type pageFetcherFunc func(ctx context.Context, url string) (string, error)

func (f pageFetcherFunc) FetchMarkdown(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

func sampleDocument() *entity.SerpDocument {
	organic, _ := json.Marshal([]map[string]any{
		{"position": 1, "title": "10 Best Running Shoes", "url": "https://a.example.com", "description": "Tested picks"},
		{"position": 2, "title": "Running Shoe Buying Guide", "url": "https://b.example.com", "description": "How to choose"},
	})
	paa, _ := json.Marshal([]map[string]any{{"question": "How long do running shoes last?"}})
	related, _ := json.Marshal([]map[string]any{{"query": "running shoes for flat feet"}})
	overview := "Running shoes should be replaced every 500 km."
	return &entity.SerpDocument{
		ID:             docID,
		MainKeyword:    "running shoes",
		OrganicResults: organic,
		PeopleAlsoAsk:  paa,
		RelatedQueries: related,
		AIOverview:     &overview,
	}
}

func testConfig() *config.Config {
	return &config.Config{
		LLM: config.LLMConfig{DefaultProvider: "fake"},
		Pipeline: config.PipelineConfig{
			MaxKeywords:    80,
			MaxSerpResults: 10,
			Reference:      config.ReferenceConfig{MaxRunes: 40},
		},
	}
}

func newTestService(fake *llmtest.ChatModel, docs *memDocuments, pages service.PageFetcher) *Service {
	return NewService(testConfig(), &llmtest.Factory{Model: fake}, docs, pages)
}

type memRuns struct {
	mu      sync.Mutex
	runs    map[string]*entity.PipelineRun
	updates []string
}

func newMemRuns() *memRuns {
	return &memRuns{runs: map[string]*entity.PipelineRun{}}
}

func (m *memRuns) Create(_ context.Context, run *entity.PipelineRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	m.runs[run.ID] = run
	return nil
}

func (m *memRuns) GetByID(_ context.Context, id string) (*entity.PipelineRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs[id], nil
}

func (m *memRuns) GetByIdempotencyKey(_ context.Context, key string) (*entity.PipelineRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.runs {
		if r.IdempotencyKey != nil && *r.IdempotencyKey == key {
			return r, nil
		}
	}
	return nil, nil
}

func (m *memRuns) Update(_ context.Context, run *entity.PipelineRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	m.updates = append(m.updates, string(run.Status)+":"+run.CurrentStage)
	return nil
}

type memQueue struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (q *memQueue) Enqueue(_ context.Context, runID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.ids = append(q.ids, runID)
	return nil
}
