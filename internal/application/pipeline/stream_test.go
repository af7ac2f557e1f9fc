package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"seo-writer-api/internal/domain/entity"
	"seo-writer-api/internal/workflow/llmtest"
	apperrors "seo-writer-api/pkg/errors"
)

func TestStreamEmitsChunksThenDone(t *testing.T) {
	defer goleak.VerifyNone(t)

	fake := llmtest.New("{}", "# Title\n\nBody text")
	fake.ChunkSize = 4
	svc := newTestService(fake, newMemDocuments(), nil)

	stream, err := svc.Article(context.Background(), &ArticleRequest{Keyword: "k", ActionPlanText: "plan"})
	require.NoError(t, err)
	assert.Equal(t, entity.StageArticle, stream.Stage())

	var (
		chunks []string
		done   *Summary
	)
	for ev := range stream.Events() {
		switch {
		case ev.Chunk != nil:
			assert.Equal(t, len(chunks), ev.Chunk.Index)
			chunks = append(chunks, ev.Chunk.Text)
		case ev.Done != nil:
			done = ev.Done
		case ev.Err != nil:
			t.Fatalf("unexpected error event: %v", ev.Err)
		}
	}

	require.NotNil(t, done)
	assert.Equal(t, "# Title\n\nBody text", strings.Join(chunks, ""))
	assert.Equal(t, len(chunks), done.Chunks)
	assert.Equal(t, len([]rune("# Title\n\nBody text")), done.Length)
	assert.Equal(t, "# Title\n\nBody text", done.Text)
}

func TestStreamUpstreamFailureEmitsError(t *testing.T) {
	defer goleak.VerifyNone(t)

	fake := llmtest.New("{}", "abcdefghijklmnop")
	fake.ChunkSize = 4
	fake.StreamErrAfter = 2
	svc := newTestService(fake, newMemDocuments(), nil)

	stream, err := svc.Persona(context.Background(), &PersonaRequest{Keywords: []string{"shoes"}})
	require.NoError(t, err)

	var (
		chunks int
		last   *apperrors.AppError
	)
	for ev := range stream.Events() {
		require.Nil(t, ev.Done, "done must not follow an upstream failure")
		if ev.Chunk != nil {
			chunks++
		}
		if ev.Err != nil {
			last = ev.Err
		}
	}

	assert.Equal(t, 2, chunks)
	require.NotNil(t, last)
	assert.Equal(t, apperrors.CodeStreamInterrupted, last.Code)
	assert.Contains(t, last.Detail, "connection reset")
}

func TestStreamStopsWhenContextCanceled(t *testing.T) {
	defer goleak.VerifyNone(t)

	fake := llmtest.New("{}", strings.Repeat("word ", 200))
	fake.ChunkSize = 5
	fake.ChunkDelay = 10 * time.Millisecond
	svc := newTestService(fake, newMemDocuments(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := svc.Article(ctx, &ArticleRequest{Keyword: "k", ActionPlanText: "plan"})
	require.NoError(t, err)

	first := <-stream.Events()
	require.NotNil(t, first.Chunk)
	cancel()

	received := 1
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-stream.Events():
			if !ok {
				assert.Less(t, received, 200)
				return
			}
			assert.Nil(t, ev.Done)
			received++
		case <-deadline:
			t.Fatal("stream did not stop after cancellation")
		}
	}
}

func TestCollectReportsEarlyClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sr, sw := schema.Pipe[*schema.Message](1)
	sw.Send(&schema.Message{Role: schema.Assistant, Content: "never delivered"}, nil)
	sw.Close()

	_, err := newStream(ctx, entity.StagePersona, sr).Collect()
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeStreamInterrupted))
}
