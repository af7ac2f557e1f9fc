package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seo-writer-api/internal/config"
	"seo-writer-api/internal/domain/entity"
	"seo-writer-api/internal/workflow/llmtest"
	apperrors "seo-writer-api/pkg/errors"
)

func TestContentTypeResolvesDocument(t *testing.T) {
	fake := llmtest.New(contentJSON, "Write a numbered listicle.")
	svc := newTestService(fake, newMemDocuments(sampleDocument()), nil)

	res, err := svc.ContentType(context.Background(), &ContentTypeRequest{SerpDocID: docID})
	require.NoError(t, err)

	assert.Equal(t, docID, res.SerpDocID)
	assert.Equal(t, "running shoes", res.Keyword)
	assert.Equal(t, "listicle", res.AnalysisJSON["dominantContentType"])
	assert.Equal(t, "Write a numbered listicle.", res.RecommendationText)
	assert.Contains(t, fake.Calls()[0].User, "10 Best Running Shoes")
}

func TestContentTypeNotFound(t *testing.T) {
	fake := llmtest.New(contentJSON, "unused")
	svc := newTestService(fake, newMemDocuments(), nil)

	_, err := svc.ContentType(context.Background(), &ContentTypeRequest{SerpDocID: "missing"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	assert.Empty(t, fake.Calls())
}

func TestContentTypeStoreFailure(t *testing.T) {
	docs := newMemDocuments()
	docs.err = errors.New("connection refused")
	svc := newTestService(llmtest.New("{}", ""), docs, nil)

	_, err := svc.ContentType(context.Background(), &ContentTypeRequest{SerpDocID: docID})
	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.CodeExecutionError, appErr.Code)
	assert.Equal(t, "connection refused", appErr.Detail)
}

func TestUserIntentUsesProvidedFieldsOnly(t *testing.T) {
	fake := llmtest.New("{}", "Commercial investigation.")
	docs := newMemDocuments()
	docs.err = errors.New("must not be called")
	svc := newTestService(fake, docs, nil)

	res, err := svc.UserIntent(context.Background(), &UserIntentRequest{
		SerpDocID:      docID,
		Keyword:        "running shoes",
		OrganicResults: []any{map[string]any{"title": "Provided Result"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Commercial investigation.", res.AnalysisText)
	assert.Contains(t, fake.Calls()[0].User, "Provided Result")
}

func TestTitleAndBetterHave(t *testing.T) {
	fake := llmtest.New(`{"commonPatterns":["Best X"],"keywordPlacement":"start"}`, "Use the year.")
	svc := newTestService(fake, newMemDocuments(), nil)

	title, err := svc.Title(context.Background(), &TitleRequest{SerpDocID: docID, Keyword: "running shoes"})
	require.NoError(t, err)
	assert.Equal(t, "start", title.AnalysisJSON["keywordPlacement"])
	assert.Equal(t, "Use the year.", title.RecommendationText)

	overview := "AI says hi"
	gap, err := svc.BetterHave(context.Background(), &BetterHaveRequest{SerpDocID: docID, Keyword: "running shoes", AIOverview: &overview})
	require.NoError(t, err)
	assert.Equal(t, "Use the year.", gap.RecommendationText)
}

func TestAnalysisFailureBecomesExecutionError(t *testing.T) {
	fake := &llmtest.ChatModel{Respond: func([]*schema.Message) (string, error) {
		return "", errors.New("provider unavailable")
	}}
	svc := newTestService(fake, newMemDocuments(), nil)

	_, err := svc.Title(context.Background(), &TitleRequest{SerpDocID: docID, Keyword: "k"})
	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.CodeExecutionError, appErr.Code)
	assert.Equal(t, "Title analysis failed", appErr.Message)
	assert.Contains(t, appErr.Detail, "provider unavailable")
}

func TestActionPlanWithoutReports(t *testing.T) {
	fake := llmtest.New("{}", "1. Do the thing")
	svc := newTestService(fake, newMemDocuments(), nil)

	res, err := svc.ActionPlan(context.Background(), &ActionPlanRequest{Keyword: "running shoes", MediaSiteName: "Runner Weekly"})
	require.NoError(t, err)
	assert.Equal(t, "1. Do the thing", res.ActionPlanText)

	user := fake.Calls()[0].User
	assert.Contains(t, user, "## Content type report\n(not provided)")
	assert.Contains(t, user, "## Content gap recommendations\n(not provided)")
}

func TestPersonaCapsKeywords(t *testing.T) {
	fake := llmtest.New("{}", "Persona text")
	svc := newTestService(fake, newMemDocuments(), nil)

	keywords := make([]string, 120)
	for i := range keywords {
		keywords[i] = fmt.Sprintf("kw%03d", i+1)
	}

	stream, err := svc.Persona(context.Background(), &PersonaRequest{Keywords: keywords})
	require.NoError(t, err)
	summary, err := stream.Collect()
	require.NoError(t, err)
	assert.Equal(t, "Persona text", summary.Text)

	user := fake.Calls()[0].User
	assert.Contains(t, user, "Keywords (80)")
	assert.Contains(t, user, "80. kw080")
	assert.NotContains(t, user, "kw081")
	assert.Contains(t, user, "Main keyword: kw001")
}

func TestArticleFreshMode(t *testing.T) {
	fake := llmtest.New("{}", "# Article")
	svc := newTestService(fake, newMemDocuments(), pageFetcherFunc(func(context.Context, string) (string, error) {
		t.Fatal("fetcher must not be called in fresh mode")
		return "", nil
	}))

	stream, err := svc.Article(context.Background(), &ArticleRequest{Keyword: "k", ActionPlanText: "plan"})
	require.NoError(t, err)
	summary, err := stream.Collect()
	require.NoError(t, err)
	assert.Equal(t, "# Article", summary.Text)
	assert.NotContains(t, fake.Calls()[0].User, "Reference page")
}

func TestArticleRefineFetchesAndTruncatesReference(t *testing.T) {
	fake := llmtest.New("{}", "# Improved")
	var fetched string
	svc := newTestService(fake, newMemDocuments(), pageFetcherFunc(func(_ context.Context, url string) (string, error) {
		fetched = url
		return strings.Repeat("r", 30) + strings.Repeat("x", 100), nil
	}))

	url := "https://ref.example.com/post"
	stream, err := svc.Article(context.Background(), &ArticleRequest{Keyword: "k", ActionPlanText: "plan", TargetURL: &url})
	require.NoError(t, err)
	_, err = stream.Collect()
	require.NoError(t, err)

	assert.Equal(t, url, fetched)
	user := fake.Calls()[0].User
	assert.Contains(t, user, strings.Repeat("r", 30)+strings.Repeat("x", 10))
	assert.NotContains(t, user, strings.Repeat("x", 11))
}

func TestArticleReferenceFetchFailure(t *testing.T) {
	fake := llmtest.New("{}", "unused")
	svc := newTestService(fake, newMemDocuments(), pageFetcherFunc(func(context.Context, string) (string, error) {
		return "", errors.New("dial tcp: timeout")
	}))

	url := "https://ref.example.com/post"
	_, err := svc.Article(context.Background(), &ArticleRequest{Keyword: "k", ActionPlanText: "plan", TargetURL: &url})
	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.CodeExecutionError, appErr.Code)
	assert.Empty(t, fake.Calls())
}

func TestArticleUpstreamOpenFailure(t *testing.T) {
	fake := &llmtest.ChatModel{Respond: func([]*schema.Message) (string, error) {
		return "", errors.New("401 invalid api key")
	}}
	svc := newTestService(fake, newMemDocuments(), nil)

	_, err := svc.Article(context.Background(), &ArticleRequest{Keyword: "k", ActionPlanText: "plan"})
	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.CodeExecutionError, appErr.Code)
	assert.Contains(t, appErr.Detail, "401")
}

func TestOptionsFromStageConfig(t *testing.T) {
	cfg := testConfig()
	temp := 0.2
	cfg.LLM.Stages = map[string]config.StageLLMConfig{
		"title": {Model: "gpt-4o", Temperature: &temp, MaxTokens: 512},
	}
	svc := NewService(cfg, &llmtest.Factory{}, newMemDocuments(), nil)

	opts := svc.options(entity.StageTitle)
	assert.Equal(t, "fake", opts.Provider)
	assert.Equal(t, "gpt-4o", opts.Model)
	require.NotNil(t, opts.Temperature)
	assert.InDelta(t, 0.2, *opts.Temperature, 1e-6)
	require.NotNil(t, opts.MaxTokens)
	assert.Equal(t, 512, *opts.MaxTokens)

	plain := svc.options(entity.StageUserIntent)
	assert.Nil(t, plain.Temperature)
	assert.Nil(t, plain.MaxTokens)
}
