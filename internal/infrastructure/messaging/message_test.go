package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateBackoff(t *testing.T) {
	cfg := BackoffConfig{Initial: time.Second, Max: 5 * time.Second, Multiplier: 2}

	assert.Equal(t, time.Second, cfg.CalculateBackoff(0))
	assert.Equal(t, 2*time.Second, cfg.CalculateBackoff(1))
	assert.Equal(t, 4*time.Second, cfg.CalculateBackoff(2))
	assert.Equal(t, 5*time.Second, cfg.CalculateBackoff(3))
	assert.Equal(t, 5*time.Second, cfg.CalculateBackoff(10))
}

func TestStreamDLQ(t *testing.T) {
	assert.Equal(t, "dlq:stream:pipeline:runs", Stream("stream:pipeline:runs").DLQStream())
}

func TestPipelineRunMessageRoundTrip(t *testing.T) {
	msg, err := NewMessage("run-1", TypePipelineRun, &PipelineRunMessage{RunID: "run-1"})
	require.NoError(t, err)
	msg.SetMetadata("request_id", "req-1")

	var payload PipelineRunMessage
	require.NoError(t, msg.UnmarshalPayload(&payload))
	assert.Equal(t, "run-1", payload.RunID)
	assert.Equal(t, "req-1", msg.GetMetadata("request_id"))
	assert.Equal(t, "", (&Message{}).GetMetadata("missing"))
}

func TestPipelineRunHandler(t *testing.T) {
	var got string
	h := PipelineRunHandler(func(_ context.Context, runID string) error {
		got = runID
		return nil
	})

	msg, err := NewMessage("m1", TypePipelineRun, &PipelineRunMessage{RunID: "run-9"})
	require.NoError(t, err)
	require.NoError(t, h(context.Background(), msg))
	assert.Equal(t, "run-9", got)

	empty, err := NewMessage("m2", TypePipelineRun, &PipelineRunMessage{})
	require.NoError(t, err)
	assert.Error(t, h(context.Background(), empty))
}
