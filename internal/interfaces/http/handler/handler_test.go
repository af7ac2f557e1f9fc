package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seo-writer-api/internal/application/pipeline"
	"seo-writer-api/internal/config"
	"seo-writer-api/internal/domain/entity"
	"seo-writer-api/internal/workflow/llmtest"
	"seo-writer-api/pkg/logger"
)

const (
	docID       = "0f3c2a5e-8d4b-4c7a-9e1f-6b2d3a4c5e6f"
	titleJSON   = `{"commonPatterns":["Best X for Y"],"keywordPlacement":"start","averageLength":52}`
	contentJSON = `{"dominantContentType":"listicle","contentTypes":[{"type":"listicle","count":6}]}`
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memDocuments map[string]*entity.SerpDocument

func (m memDocuments) FetchByID(_ context.Context, id string) (*entity.SerpDocument, error) {
	return m[id], nil
}

func testDocuments() memDocuments {
	organic, _ := json.Marshal([]map[string]any{{"position": 1, "title": "Best Running Shoes 2024", "url": "https://x.com"}})
	return memDocuments{docID: {ID: docID, MainKeyword: "running shoes", OrganicResults: organic}}
}

func newTestEngine(fake *llmtest.ChatModel) *gin.Engine {
	cfg := &config.Config{
		LLM: config.LLMConfig{DefaultProvider: "fake"},
		Pipeline: config.PipelineConfig{
			MaxKeywords:    80,
			MaxSerpResults: 10,
		},
	}
	stages := pipeline.NewService(cfg, &llmtest.Factory{Model: fake}, testDocuments(), nil)
	analysis := NewAnalysisHandler(stages, 64<<10)
	writing := NewWritingHandler(stages, 64<<10)

	e := gin.New()
	v1 := e.Group("/v1")
	v1.POST("/analysis/content-type", analysis.ContentType)
	v1.POST("/analysis/user-intent", analysis.UserIntent)
	v1.POST("/analysis/title", analysis.Title)
	v1.POST("/analysis/better-have", analysis.BetterHave)
	v1.POST("/analysis/action-plan", analysis.ActionPlan)
	v1.POST("/writing/article", writing.Article)
	v1.POST("/writing/persona", writing.Persona)
	return e
}

func postJSON(e http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details"`
}

type fieldDetail struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) (errorBody, []fieldDetail) {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	require.NotEmpty(t, body.Error)

	var fields []fieldDetail
	if len(body.Details) > 0 && body.Details[0] == '[' {
		require.NoError(t, json.Unmarshal(body.Details, &fields))
	}
	return body, fields
}

func paths(fields []fieldDetail) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Path
	}
	return out
}

func TestMissingRequiredFieldReportsPath(t *testing.T) {
	cases := []struct {
		path    string
		body    string
		missing string
	}{
		{"/v1/analysis/content-type", `{}`, "serpDocId"},
		{"/v1/analysis/user-intent", `{"serpDocId":"d"}`, "keyword"},
		{"/v1/analysis/title", `{"keyword":"k"}`, "serpDocId"},
		{"/v1/analysis/better-have", `{"serpDocId":"d"}`, "keyword"},
		{"/v1/analysis/action-plan", `{"keyword":"k"}`, "mediaSiteName"},
		{"/v1/writing/article", `{"keyword":"k"}`, "actionPlanText"},
		{"/v1/writing/persona", `{"keyword":"k"}`, "keywords"},
	}

	fake := llmtest.New("{}", "unused")
	e := newTestEngine(fake)
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			w := postJSON(e, tc.path, tc.body)
			require.Equal(t, http.StatusBadRequest, w.Code)

			body, fields := decodeError(t, w)
			assert.Equal(t, "Invalid input", body.Error)
			assert.Contains(t, paths(fields), tc.missing)
		})
	}
	assert.Empty(t, fake.Calls(), "validation must fail before any model call")
}

func TestUserIntentBlankSerpDocID(t *testing.T) {
	w := postJSON(newTestEngine(llmtest.New("{}", "x")), "/v1/analysis/user-intent", `{"serpDocId":"","keyword":"x"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	_, fields := decodeError(t, w)
	assert.Equal(t, []string{"serpDocId"}, paths(fields))
}

func TestBetterHaveAcceptsStringCollectionElements(t *testing.T) {
	fake := llmtest.New(`{"missingTopics":["sizing"]}`, "Cover sizing.")
	w := postJSON(newTestEngine(fake), "/v1/analysis/better-have",
		`{"serpDocId":"d","keyword":"k","relatedQueries":["a","b"],"peopleAlsoAsk":["q1"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	calls := fake.Calls()
	require.NotEmpty(t, calls)
	assert.Contains(t, calls[0].User, "- a\n- b")
	assert.Contains(t, calls[0].User, "- q1")
}

func TestTypeErrorReportedWithOtherFieldErrors(t *testing.T) {
	w := postJSON(newTestEngine(llmtest.New("{}", "x")), "/v1/analysis/user-intent",
		`{"serpDocId":"","keyword":"k","organicResults":{}}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	_, fields := decodeError(t, w)
	assert.Equal(t, []string{"serpDocId", "organicResults"}, paths(fields))
}

func TestStageRequestTagsSerpDocument(t *testing.T) {
	var tagged any
	e := gin.New()
	e.Use(func(c *gin.Context) {
		c.Next()
		tagged = c.Request.Context().Value(logger.SerpDocIDKey)
	})
	stages := pipeline.NewService(&config.Config{LLM: config.LLMConfig{DefaultProvider: "fake"}},
		&llmtest.Factory{Model: llmtest.New(titleJSON, "x")}, testDocuments(), nil)
	e.POST("/v1/analysis/title", NewAnalysisHandler(stages, 0).Title)

	w := postJSON(e, "/v1/analysis/title", `{"serpDocId":" doc-7 ","keyword":"running shoes"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "doc-7", tagged)
}

func TestMalformedBodyUsesRootPath(t *testing.T) {
	e := newTestEngine(llmtest.New("{}", "x"))

	for _, body := range []string{``, `{"keyword":`, `[1,2]`} {
		w := postJSON(e, "/v1/analysis/title", body)
		require.Equal(t, http.StatusBadRequest, w.Code, body)
		_, fields := decodeError(t, w)
		assert.Equal(t, []string{pipeline.RootPath}, paths(fields), body)
	}
}

func TestBodyTooLarge(t *testing.T) {
	e := newTestEngine(llmtest.New("{}", "x"))
	big := `{"keyword":"k","mediaSiteName":"m","contentTypeReportText":"` + strings.Repeat("a", 70<<10) + `"}`

	w := postJSON(e, "/v1/analysis/action-plan", big)
	require.Equal(t, http.StatusBadRequest, w.Code)
	_, fields := decodeError(t, w)
	require.Len(t, fields, 1)
	assert.Contains(t, fields[0].Message, "exceeds")
}

func TestTitleAnalysis(t *testing.T) {
	e := newTestEngine(llmtest.New(titleJSON, "Lead with the year and a number."))
	body := `{"serpDocId":"doc1","keyword":"running shoes","organicResults":[{"position":1,"title":"Best Running Shoes 2024","url":"https://x.com","description":"..."}]}`

	w := postJSON(e, "/v1/analysis/title", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.NotContains(t, res, "error")
	assert.IsType(t, map[string]any{}, res["analysisJson"])
	assert.NotEmpty(t, res["recommendationText"])
}

func TestTitleAnalysisRepeatableShape(t *testing.T) {
	e := newTestEngine(llmtest.New(titleJSON, "Lead with the year."))
	body := `{"serpDocId":"doc1","keyword":"running shoes"}`

	keys := func() []string {
		w := postJSON(e, "/v1/analysis/title", body)
		require.Equal(t, http.StatusOK, w.Code)
		var res struct {
			AnalysisJSON map[string]any `json:"analysisJson"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		out := make([]string, 0, len(res.AnalysisJSON))
		for k := range res.AnalysisJSON {
			out = append(out, k)
		}
		return out
	}
	assert.ElementsMatch(t, keys(), keys())
}

func TestContentTypeUnknownDocument(t *testing.T) {
	w := postJSON(newTestEngine(llmtest.New(contentJSON, "x")), "/v1/analysis/content-type", `{"serpDocId":"does-not-exist"}`)
	require.Equal(t, http.StatusNotFound, w.Code)

	body, _ := decodeError(t, w)
	assert.Equal(t, "SERP document not found", body.Error)
}

func TestContentTypeResolvesDocument(t *testing.T) {
	w := postJSON(newTestEngine(llmtest.New(contentJSON, "Use a listicle.")), "/v1/analysis/content-type", `{"serpDocId":"`+docID+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res pipeline.ContentTypeResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, docID, res.SerpDocID)
	assert.Equal(t, "running shoes", res.Keyword)
	assert.Equal(t, "Use a listicle.", res.RecommendationText)
}

func TestActionPlanDegradesWithoutReports(t *testing.T) {
	fake := llmtest.New("{}", "1. Outline\n2. Draft")
	e := newTestEngine(fake)

	omitted := postJSON(e, "/v1/analysis/action-plan", `{"keyword":"running shoes","mediaSiteName":"Runner Weekly"}`)
	require.Equal(t, http.StatusOK, omitted.Code)
	nulls := postJSON(e, "/v1/analysis/action-plan", `{"keyword":"running shoes","mediaSiteName":"Runner Weekly",
		"contentTypeReportText":null,"userIntentReportText":null,"titleRecommendationText":null,
		"betterHaveRecommendationText":null,"keywordReport":null,"selectedClusterName":null}`)
	require.Equal(t, http.StatusOK, nulls.Code)

	var res pipeline.ActionPlanResult
	require.NoError(t, json.Unmarshal(nulls.Body.Bytes(), &res))
	assert.NotEmpty(t, res.ActionPlanText)

	calls := fake.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, calls[0].User, calls[1].User, "null and absent must build the same prompt")
}

func TestUpstreamFailureIs500(t *testing.T) {
	fake := &llmtest.ChatModel{Respond: func([]*schema.Message) (string, error) {
		return "", errors.New("upstream 502")
	}}
	w := postJSON(newTestEngine(fake), "/v1/analysis/user-intent", `{"serpDocId":"d","keyword":"k"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	body, _ := decodeError(t, w)
	assert.Equal(t, "User intent analysis failed", body.Error)
	var details string
	require.NoError(t, json.Unmarshal(body.Details, &details))
	assert.Contains(t, details, "upstream 502")
}

func TestResponseHasNoBodyLeakOnSuccess(t *testing.T) {
	w := postJSON(newTestEngine(llmtest.New("{}", "intent")), "/v1/analysis/user-intent", `{"serpDocId":"d","keyword":"k","organicResults":null}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("{")))
	assert.JSONEq(t, `{"analysisText":"intent"}`, w.Body.String())
}
