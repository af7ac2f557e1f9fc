package pipeline

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"seo-writer-api/internal/domain/entity"
	apperrors "seo-writer-api/pkg/errors"
	"seo-writer-api/pkg/logger"
	"seo-writer-api/pkg/metrics"
)

// Chunk 一段流式输出
type Chunk struct {
	Index int    `json:"index"`
	Text  string `json:"chunk"`
}

// Summary 流正常结束时的汇总，Text 为完整输出
type Summary struct {
	Length int    `json:"length"`
	Chunks int    `json:"chunks"`
	Text   string `json:"-"`
}

// Event 流事件，Chunk、Done、Err 三者恰有一个非空
type Event struct {
	Chunk *Chunk
	Done  *Summary
	Err   *apperrors.AppError
}

// 流结束原因
const (
	outcomeCompleted   = "completed"
	outcomeInterrupted = "interrupted"
	outcomeCanceled    = "canceled"
)

// Stream 将上游 StreamReader 转为事件通道
// ctx 取消后停止推送并关闭上游 reader，事件通道随之关闭
type Stream struct {
	stage  entity.Stage
	events chan Event
}

func newStream(ctx context.Context, stage entity.Stage, reader *schema.StreamReader[*schema.Message]) *Stream {
	s := &Stream{
		stage:  stage,
		events: make(chan Event),
	}
	go s.pump(ctx, reader)
	return s
}

// Events 返回事件通道，读到 Done 或 Err 后通道关闭
func (s *Stream) Events() <-chan Event {
	return s.events
}

// Stage 返回所属阶段
func (s *Stream) Stage() entity.Stage {
	return s.stage
}

func (s *Stream) pump(ctx context.Context, reader *schema.StreamReader[*schema.Message]) {
	defer close(s.events)
	defer reader.Close()

	start := time.Now()
	stage := s.stage.String()
	var (
		buf   strings.Builder
		index int
	)

	finish := func(outcome string) {
		metrics.StreamOutcomeTotal.WithLabelValues(stage, outcome).Inc()
		metrics.StageExecutionDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
		logger.Info(ctx, "stream finished",
			"outcome", outcome,
			"chunks", index,
			"length", buf.Len(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}

	emit := func(ev Event) bool {
		select {
		case s.events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		if ctx.Err() != nil {
			finish(outcomeCanceled)
			return
		}

		msg, err := reader.Recv()
		if errors.Is(err, io.EOF) {
			if emit(Event{Done: &Summary{Length: len([]rune(buf.String())), Chunks: index, Text: buf.String()}}) {
				finish(outcomeCompleted)
			} else {
				finish(outcomeCanceled)
			}
			return
		}
		if err != nil {
			if ctx.Err() != nil {
				finish(outcomeCanceled)
				return
			}
			logger.Error(ctx, "upstream stream failed", err, "chunks", index)
			emit(Event{Err: apperrors.Wrap(err, apperrors.CodeStreamInterrupted, "Stream interrupted")})
			finish(outcomeInterrupted)
			return
		}
		if msg == nil || msg.Content == "" {
			continue
		}

		buf.WriteString(msg.Content)
		if !emit(Event{Chunk: &Chunk{Index: index, Text: msg.Content}}) {
			finish(outcomeCanceled)
			return
		}
		index++
		metrics.StreamChunksTotal.WithLabelValues(stage).Inc()
	}
}

// Collect 读完整个流，用于服务端运行与测试
func (s *Stream) Collect() (*Summary, error) {
	var (
		summary *Summary
		err     error
	)
	for ev := range s.events {
		switch {
		case ev.Done != nil:
			summary = ev.Done
		case ev.Err != nil:
			err = ev.Err
		}
	}
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, apperrors.New(apperrors.CodeStreamInterrupted, "Stream interrupted").WithDetail("stream closed before completion")
	}
	return summary, nil
}
