package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"seo-writer-api/internal/workflow/llmtest"
)

type sseEvent struct {
	Name string
	Data string
}

func parseSSE(body string) []sseEvent {
	var out []sseEvent
	for _, block := range strings.Split(body, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		var ev sseEvent
		for _, line := range strings.Split(block, "\n") {
			switch {
			case strings.HasPrefix(line, "event:"):
				ev.Name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				ev.Data += strings.TrimPrefix(line, "data:")
			}
		}
		out = append(out, ev)
	}
	return out
}

func streamBody(t *testing.T, srv *httptest.Server, path, body string) (*http.Response, []sseEvent) {
	t.Helper()
	resp, err := srv.Client().Post(srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var sb strings.Builder
	_, err = bufio.NewReader(resp.Body).WriteTo(&sb)
	require.NoError(t, err)
	return resp, parseSSE(sb.String())
}

func TestArticleStreamsContentThenDoneWithHTML(t *testing.T) {
	fake := llmtest.New("{}", "# Best Running Shoes\n\nPick a pair that fits.")
	fake.ChunkSize = 6
	srv := httptest.NewServer(newTestEngine(fake))
	defer srv.Close()

	resp, events := streamBody(t, srv, "/v1/writing/article", `{"keyword":"running shoes","actionPlanText":"1. Intro"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")
	require.NotEmpty(t, events)

	var text strings.Builder
	for i, ev := range events[:len(events)-1] {
		require.Equal(t, "content", ev.Name)
		var chunk struct {
			Chunk string `json:"chunk"`
			Index int    `json:"index"`
		}
		require.NoError(t, json.Unmarshal([]byte(ev.Data), &chunk))
		assert.Equal(t, i, chunk.Index)
		text.WriteString(chunk.Chunk)
	}
	assert.Equal(t, "# Best Running Shoes\n\nPick a pair that fits.", text.String())

	last := events[len(events)-1]
	require.Equal(t, "done", last.Name)
	var done doneEvent
	require.NoError(t, json.Unmarshal([]byte(last.Data), &done))
	assert.Equal(t, len(events)-1, done.Chunks)
	assert.Equal(t, len([]rune(text.String())), done.Length)
	assert.Contains(t, done.HTML, "<h1>Best Running Shoes</h1>")
}

func TestPersonaCapsKeywordsAndOmitsHTML(t *testing.T) {
	fake := llmtest.New("{}", "## Persona A")
	srv := httptest.NewServer(newTestEngine(fake))
	defer srv.Close()

	keywords := make([]string, 120)
	for i := range keywords {
		keywords[i] = fmt.Sprintf("%q", fmt.Sprintf("keyword %d", i+1))
	}
	resp, events := streamBody(t, srv, "/v1/writing/persona", `{"keywords":[`+strings.Join(keywords, ",")+`]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, events)

	last := events[len(events)-1]
	assert.Equal(t, "done", last.Name)
	assert.NotContains(t, last.Data, "html")

	user := fake.Calls()[0].User
	assert.Contains(t, user, "Keywords (80)")
	assert.Contains(t, user, "keyword 80")
	assert.NotContains(t, user, "keyword 81")
}

func TestStreamInterruptedSendsErrorEvent(t *testing.T) {
	fake := llmtest.New("{}", "abcdefghijklmnopqrstuvwxyz")
	fake.ChunkSize = 5
	fake.StreamErrAfter = 2
	srv := httptest.NewServer(newTestEngine(fake))
	defer srv.Close()

	_, events := streamBody(t, srv, "/v1/writing/persona", `{"keywords":["shoes"]}`)
	require.Len(t, events, 3)
	assert.Equal(t, "content", events[0].Name)
	assert.Equal(t, "content", events[1].Name)
	assert.Equal(t, "error", events[2].Name)

	var body errorBody
	require.NoError(t, json.Unmarshal([]byte(events[2].Data), &body))
	assert.Equal(t, "Stream interrupted", body.Error)
	for _, ev := range events {
		assert.NotEqual(t, "done", ev.Name)
	}
}

func TestStreamOpenFailureUsesJSONEnvelope(t *testing.T) {
	srv := httptest.NewServer(newTestEngine(llmtest.New("{}", "x")))
	defer srv.Close()

	resp, err := srv.Client().Post(srv.URL+"/v1/writing/article", "application/json",
		strings.NewReader(`{"keyword":"k","actionPlanText":"p","targetUrl":"https://example.com/post"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
	var body errorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Reference fetching is not configured", body.Error)
}

func TestClientDisconnectStopsUpstream(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	fake := llmtest.New("{}", strings.Repeat("token ", 500))
	fake.ChunkSize = 6
	fake.ChunkDelay = 10 * time.Millisecond
	srv := httptest.NewServer(newTestEngine(fake))
	defer srv.Close()

	transport := &http.Transport{}
	defer transport.CloseIdleConnections()
	client := &http.Client{Transport: transport}

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, srv.URL+"/v1/writing/article",
		strings.NewReader(`{"keyword":"k","actionPlanText":"p"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	require.NoError(t, err)

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event:content\n", line)

	cancel()
	resp.Body.Close()
}
