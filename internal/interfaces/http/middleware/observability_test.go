package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"seo-writer-api/pkg/logger"
	"seo-writer-api/pkg/metrics"
)

func TestStageFromRoute(t *testing.T) {
	assert.Equal(t, "better_have", StageFromRoute("/v1/analysis/better-have"))
	assert.Equal(t, "article", StageFromRoute("/v1/writing/article"))
	assert.Empty(t, StageFromRoute("/v1/serp-documents/:id"))
	assert.Empty(t, StageFromRoute(""))
}

func TestTraceTagsStageAndSerpDoc(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	e := gin.New()
	e.Use(Trace("seo-writer-api"), TraceContext())

	var stage, serpDoc any
	e.POST("/v1/analysis/title", func(c *gin.Context) {
		TagSerpDoc(c, "doc-1")
		stage = c.Request.Context().Value(logger.StageKey)
		serpDoc = c.Request.Context().Value(logger.SerpDocIDKey)
		c.Status(http.StatusOK)
	})
	e.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(e, httptest.NewRequest(http.MethodPost, "/v1/analysis/title", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, w.Header().Get("X-Trace-ID"), 32)
	assert.Equal(t, "title", stage)
	assert.Equal(t, "doc-1", serpDoc)

	serve(e, httptest.NewRequest(http.MethodGet, "/health", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1, "health routes must not create spans")
	attrs := map[attribute.Key]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[kv.Key] = kv.Value.Emit()
	}
	assert.Equal(t, "title", attrs["seo.stage"])
	assert.Equal(t, "doc-1", attrs["seo.serp_doc_id"])
}

func TestMetricsSeparatesStreamsAndSkipsHealthRoutes(t *testing.T) {
	e := gin.New()
	e.Use(Metrics())
	e.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	e.POST("/v1/writing/persona", func(c *gin.Context) {
		c.Header("Content-Type", "text/event-stream")
		c.Stream(func(w io.Writer) bool {
			c.SSEvent("done", "{}")
			return false
		})
	})

	before := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodPost, "/v1/writing/persona", "200"))
	serve(e, httptest.NewRequest(http.MethodPost, "/v1/writing/persona", nil))
	serve(e, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodPost, "/v1/writing/persona", "200")))
	assert.Zero(t, testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/health", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.HTTPStreamDuration))
}
