package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seo-writer-api/internal/domain/entity"
	"seo-writer-api/internal/workflow/llmtest"
	apperrors "seo-writer-api/pkg/errors"
)

func newTestRunService(fake *llmtest.ChatModel, runs *memRuns, queue *memQueue) *RunService {
	docs := newMemDocuments(sampleDocument())
	return NewRunService(testConfig(), newTestService(fake, docs, nil), runs, docs, queue)
}

func TestCreateRunEnqueues(t *testing.T) {
	runs, queue := newMemRuns(), &memQueue{}
	svc := newTestRunService(llmtest.New("{}", "text"), runs, queue)

	cluster := "trail"
	run, created, err := svc.Create(context.Background(), &PipelineRunRequest{
		SerpDocID:           docID,
		MediaSiteName:       "Runner Weekly",
		SelectedClusterName: &cluster,
		KeywordReport:       map[string]any{"clusters": []any{"trail"}},
	}, "")
	require.NoError(t, err)

	assert.True(t, created)
	assert.Equal(t, entity.RunStatusPending, run.Status)
	assert.Equal(t, "running shoes", run.Keyword)
	assert.JSONEq(t, `{"clusters":["trail"]}`, string(run.KeywordReport))
	assert.Equal(t, []string{run.ID}, queue.ids)
}

func TestCreateRunIsIdempotent(t *testing.T) {
	runs, queue := newMemRuns(), &memQueue{}
	svc := newTestRunService(llmtest.New("{}", "text"), runs, queue)
	req := &PipelineRunRequest{SerpDocID: docID, MediaSiteName: "Runner Weekly"}

	first, created, err := svc.Create(context.Background(), req, "key-1")
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := svc.Create(context.Background(), req, "key-1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, queue.ids, 1)
}

func TestCreateRunUnknownDocument(t *testing.T) {
	svc := newTestRunService(llmtest.New("{}", "text"), newMemRuns(), &memQueue{})

	_, _, err := svc.Create(context.Background(), &PipelineRunRequest{SerpDocID: "missing", MediaSiteName: "m"}, "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestCreateRunEnqueueFailure(t *testing.T) {
	runs := newMemRuns()
	svc := newTestRunService(llmtest.New("{}", "text"), runs, &memQueue{err: errors.New("redis down")})

	_, _, err := svc.Create(context.Background(), &PipelineRunRequest{SerpDocID: docID, MediaSiteName: "m"}, "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeServiceUnavailable))

	require.Len(t, runs.runs, 1)
	for _, r := range runs.runs {
		assert.Equal(t, entity.RunStatusFailed, r.Status)
	}
}

func TestGetRunNotFound(t *testing.T) {
	svc := newTestRunService(llmtest.New("{}", "text"), newMemRuns(), &memQueue{})

	_, err := svc.Get(context.Background(), "nope")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestExecuteRunCompletesAllStages(t *testing.T) {
	fake := llmtest.New(contentJSON, "stage output")
	runs, queue := newMemRuns(), &memQueue{}
	svc := newTestRunService(fake, runs, queue)

	run, _, err := svc.Create(context.Background(), &PipelineRunRequest{SerpDocID: docID, MediaSiteName: "Runner Weekly"}, "")
	require.NoError(t, err)
	require.NoError(t, svc.Execute(context.Background(), run.ID))

	got, err := svc.Get(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RunStatusDone, got.Status)
	assert.Equal(t, 1, got.Attempts)
	assert.NotNil(t, got.FinishedAt)
	assert.ElementsMatch(t, []string{"content_type", "user_intent", "title", "better_have", "action_plan"}, []string(got.CompletedStages))

	var plan ActionPlanResult
	ok, err := got.Output(entity.StageActionPlan, &plan)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "stage output", plan.ActionPlanText)

	var ct ContentTypeResult
	ok, err = got.Output(entity.StageContentType, &ct)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "listicle", ct.AnalysisJSON["dominantContentType"])

	calls := fake.Calls()
	last := calls[len(calls)-1]
	assert.Contains(t, last.User, "Publishing site: Runner Weekly")
	assert.NotContains(t, last.User, "(not provided)")
	assert.Equal(t, "content_type", strings.Split(runs.updates[1], ":")[1])
}

func TestExecuteRunStageFailureMarksFailed(t *testing.T) {
	fake := &llmtest.ChatModel{Respond: func(msgs []*schema.Message) (string, error) {
		if strings.Contains(llmtest.SystemText(msgs), "titles ranking") {
			return "", errors.New("model overloaded")
		}
		return contentJSON, nil
	}}
	runs := newMemRuns()
	svc := newTestRunService(fake, runs, &memQueue{})

	run, _, err := svc.Create(context.Background(), &PipelineRunRequest{SerpDocID: docID, MediaSiteName: "m"}, "")
	require.NoError(t, err)
	require.NoError(t, svc.Execute(context.Background(), run.ID))

	got := runs.runs[run.ID]
	assert.Equal(t, entity.RunStatusFailed, got.Status)
	assert.Equal(t, "title", got.CurrentStage)
	assert.Contains(t, got.ErrorMessage, "model overloaded")
	assert.False(t, got.HasCompleted(entity.StageActionPlan))
}

func TestExecuteSkipsTerminalRuns(t *testing.T) {
	fake := llmtest.New(contentJSON, "text")
	runs := newMemRuns()
	svc := newTestRunService(fake, runs, &memQueue{})

	run := entity.NewPipelineRun(docID, "running shoes", "m")
	require.NoError(t, runs.Create(context.Background(), run))
	run.Finish()

	require.NoError(t, svc.Execute(context.Background(), run.ID))
	assert.Empty(t, fake.Calls())
	assert.Empty(t, runs.updates)

	assert.NoError(t, svc.Execute(context.Background(), "unknown"))
}
