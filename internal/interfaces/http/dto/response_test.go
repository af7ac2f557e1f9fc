package dto

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "seo-writer-api/pkg/errors"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/v1/analysis/title", nil)
	return c, w
}

func TestOKFlattensResult(t *testing.T) {
	c, w := newContext()
	OK(c, struct {
		AnalysisText string `json:"analysisText"`
	}{AnalysisText: "done"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"analysisText":"done"}`, w.Body.String())
}

func TestOKRejectsErrorKey(t *testing.T) {
	c, w := newContext()
	OK(c, map[string]any{"analysisText": "x", "error": "leaked"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Stage produced an invalid result", body["error"])
	assert.NotContains(t, body, "analysisText")
}

func TestOKRejectsNonObject(t *testing.T) {
	c, w := newContext()
	OK(c, []string{"a"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestFailShapes(t *testing.T) {
	t.Run("invalid input lists fields", func(t *testing.T) {
		c, w := newContext()
		Fail(c, apperrors.InvalidInput([]apperrors.FieldError{{Path: "keyword", Message: "must be a non-empty string"}}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"Invalid input","details":[{"path":"keyword","message":"must be a non-empty string"}]}`, w.Body.String())
	})

	t.Run("not found", func(t *testing.T) {
		c, w := newContext()
		Fail(c, apperrors.NotFound("SERP document not found", "no SERP document with id x"))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"SERP document not found","details":"no SERP document with id x"}`, w.Body.String())
	})

	t.Run("plain error becomes 500", func(t *testing.T) {
		c, w := newContext()
		Fail(c, errors.New("boom"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"Internal server error","details":"boom"}`, w.Body.String())
	})
}
