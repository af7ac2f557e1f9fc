package usage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seo-writer-api/internal/domain/entity"
	"seo-writer-api/internal/domain/repository"
	"seo-writer-api/internal/domain/service"
)

type memUsageRepo struct {
	events []*entity.LLMUsageEvent
	ctxErr error
}

func (m *memUsageRepo) Create(ctx context.Context, event *entity.LLMUsageEvent) error {
	m.ctxErr = ctx.Err()
	m.events = append(m.events, event)
	return nil
}

func (m *memUsageRepo) SummarizeByWorkflow(_ context.Context, _, _ time.Time) ([]repository.LLMUsageSummary, error) {
	return []repository.LLMUsageSummary{{Workflow: "title", Calls: int64(len(m.events))}}, nil
}

func TestRecordWritesEventEvenAfterCancel(t *testing.T) {
	repo := &memUsageRepo{}
	r := NewRecorder(repo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Record(ctx, service.LLMUsageInput{
		Workflow:         " article ",
		Provider:         "openai",
		Model:            "gpt-4o-mini",
		PromptTokens:     10,
		CompletionTokens: 20,
		Streamed:         true,
		SerpDocID:        "doc-1",
		RunID:            " run-9 ",
	})
	require.NoError(t, err)
	require.Len(t, repo.events, 1)
	assert.NoError(t, repo.ctxErr)

	evt := repo.events[0]
	assert.Equal(t, "article", evt.Workflow)
	assert.Equal(t, 10, evt.TokensPrompt)
	assert.Equal(t, 20, evt.TokensCompletion)
	assert.True(t, evt.Streamed)
	assert.Equal(t, "doc-1", evt.SerpDocID)
	assert.Equal(t, "run-9", evt.RunID)
}

func TestRecordRejectsNegativeTokens(t *testing.T) {
	r := NewRecorder(&memUsageRepo{})
	assert.Error(t, r.Record(context.Background(), service.LLMUsageInput{PromptTokens: -1}))
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	assert.NoError(t, r.Record(context.Background(), service.LLMUsageInput{}))
}

func TestSummaryValidatesWindow(t *testing.T) {
	r := NewRecorder(&memUsageRepo{})
	now := time.Now()

	_, err := r.Summary(context.Background(), now, now)
	assert.Error(t, err)

	rows, err := r.Summary(context.Background(), now.Add(-time.Hour), now)
	require.NoError(t, err)
	assert.Equal(t, "title", rows[0].Workflow)
}
