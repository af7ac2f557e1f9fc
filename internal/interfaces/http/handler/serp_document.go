package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"seo-writer-api/internal/application/pipeline"
	"seo-writer-api/internal/interfaces/http/dto"
	"seo-writer-api/internal/interfaces/http/middleware"
)

// SerpDocumentHandler SERP 文档处理器
type SerpDocumentHandler struct {
	documents    *pipeline.DocumentService
	maxBodyBytes int64
}

// NewSerpDocumentHandler 创建 SERP 文档处理器
func NewSerpDocumentHandler(documents *pipeline.DocumentService, maxBodyBytes int64) *SerpDocumentHandler {
	return &SerpDocumentHandler{documents: documents, maxBodyBytes: maxBodyBytes}
}

// Create 写入 SERP 文档
// @Summary 写入 SERP 文档
// @Tags SerpDocuments
// @Accept json
// @Produce json
// @Param body body pipeline.SerpDocumentRequest true "请求体"
// @Success 201 {object} dto.SerpDocumentCreatedResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/serp-documents [post]
func (h *SerpDocumentHandler) Create(c *gin.Context) {
	var req pipeline.SerpDocumentRequest
	if err := bindJSON(c, h.maxBodyBytes, &req); err != nil {
		dto.Fail(c, err)
		return
	}

	doc, err := h.documents.Create(c.Request.Context(), &req)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	middleware.TagSerpDoc(c, doc.ID)
	dto.Created(c, dto.ToSerpDocumentCreated(doc))
}

// Get 获取 SERP 文档
// @Summary 获取 SERP 文档
// @Tags SerpDocuments
// @Produce json
// @Param id path string true "文档 ID"
// @Success 200 {object} entity.SerpDocument
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/serp-documents/{id} [get]
func (h *SerpDocumentHandler) Get(c *gin.Context) {
	middleware.TagSerpDoc(c, c.Param("id"))
	doc, err := h.documents.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.OK(c, doc)
}

// List 分页列出 SERP 文档
// @Summary 列出 SERP 文档
// @Tags SerpDocuments
// @Produce json
// @Param keyword query string false "关键词前缀"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} dto.SerpDocumentListResponse
// @Router /v1/serp-documents [get]
func (h *SerpDocumentHandler) List(c *gin.Context) {
	result, err := h.documents.List(c.Request.Context(), strings.TrimSpace(c.Query("keyword")), dto.BindPage(c))
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.OK(c, dto.ToSerpDocumentList(result))
}
