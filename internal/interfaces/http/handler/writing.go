package handler

import (
	"bytes"
	"context"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"seo-writer-api/internal/application/pipeline"
	"seo-writer-api/internal/interfaces/http/dto"
	"seo-writer-api/pkg/logger"
)

// SSE 事件名
const (
	eventContent = "content"
	eventDone    = "done"
	eventError   = "error"
)

// doneEvent 完成事件；html 仅文章阶段携带
type doneEvent struct {
	Length int    `json:"length"`
	Chunks int    `json:"chunks"`
	HTML   string `json:"html,omitempty"`
}

// WritingHandler 流式生成阶段
type WritingHandler struct {
	stages       *pipeline.Service
	maxBodyBytes int64
	markdown     goldmark.Markdown
}

// NewWritingHandler 创建流式生成处理器
func NewWritingHandler(stages *pipeline.Service, maxBodyBytes int64) *WritingHandler {
	return &WritingHandler{
		stages:       stages,
		maxBodyBytes: maxBodyBytes,
		markdown:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Article 流式生成文章
// @Summary 流式生成文章
// @Description 按行动计划生成文章；提供草稿或 targetUrl 时进入改写模式
// @Tags Writing
// @Accept json
// @Produce text/event-stream
// @Param body body pipeline.ArticleRequest true "请求体"
// @Success 200 "SSE stream: content / done / error"
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/writing/article [post]
func (h *WritingHandler) Article(c *gin.Context) {
	var req pipeline.ArticleRequest
	if err := bindJSON(c, h.maxBodyBytes, &req); err != nil {
		dto.Fail(c, err)
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	stream, err := h.stages.Article(ctx, &req)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	h.serve(c, stream, true)
}

// Persona 流式生成读者画像
// @Summary 流式生成读者画像
// @Description 关键词去空白后只处理前 80 个
// @Tags Writing
// @Accept json
// @Produce text/event-stream
// @Param body body pipeline.PersonaRequest true "请求体"
// @Success 200 "SSE stream: content / done / error"
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/writing/persona [post]
func (h *WritingHandler) Persona(c *gin.Context) {
	var req pipeline.PersonaRequest
	if err := bindJSON(c, h.maxBodyBytes, &req); err != nil {
		dto.Fail(c, err)
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	stream, err := h.stages.Persona(ctx, &req)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	h.serve(c, stream, false)
}

// serve 将事件写为 SSE；客户端断开时返回，调用方取消 ctx 以释放上游
func (h *WritingHandler) serve(c *gin.Context, stream *pipeline.Stream, withHTML bool) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	events := stream.Events()
	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			switch {
			case ev.Chunk != nil:
				c.SSEvent(eventContent, ev.Chunk)
				return true
			case ev.Done != nil:
				c.SSEvent(eventDone, h.done(c.Request.Context(), ev.Done, withHTML))
				return false
			case ev.Err != nil:
				c.SSEvent(eventError, dto.NewErrorResponse(ev.Err))
				return false
			}
			return true

		case <-c.Request.Context().Done():
			logger.Info(c.Request.Context(), "client disconnected from stream", "stage", stream.Stage().String())
			return false
		}
	})
}

func (h *WritingHandler) done(ctx context.Context, summary *pipeline.Summary, withHTML bool) doneEvent {
	ev := doneEvent{Length: summary.Length, Chunks: summary.Chunks}
	if !withHTML {
		return ev
	}
	var buf bytes.Buffer
	if err := h.markdown.Convert([]byte(summary.Text), &buf); err != nil {
		logger.Warn(ctx, "failed to render article html", "error", err.Error())
		return ev
	}
	ev.HTML = buf.String()
	return ev
}
