package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pdfqa/internal/app"
	"pdfqa/internal/rag"
	"pdfqa/internal/repository"
	"pdfqa/internal/transport/http/response"
)

type QAHandler struct {
	qaService *app.QAService
	msgRepo   *repository.QAMessageRepository
}

type AskRequest struct {
	DocumentID string `json:"document_id" binding:"required"`
	Question   string `json:"question" binding:"required"`
}

func NewQAHandler(qaService *app.QAService, msgRepo *repository.QAMessageRepository) *QAHandler {
	return &QAHandler{qaService: qaService, msgRepo: msgRepo}
}

// Ask is the synchronous request/response QA surface.
func (h *QAHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	answer, err := h.qaService.Ask(c.Request.Context(), "", req.DocumentID, req.Question)
	if err != nil {
		h.writeAskError(c, err)
		return
	}
	response.OK(c, answer)
}

func (h *QAHandler) writeAskError(c *gin.Context, err error) {
	var pipeErr *rag.PipelineError
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrDocumentNotFound):
		response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, err.Error())
	case errors.Is(err, rag.ErrEmptyIndex):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "document has no content to answer from")
	case errors.Is(err, rag.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.As(err, &pipeErr):
		response.Error(c, http.StatusBadGateway, response.CodeUpstreamFailed, "answer pipeline failed at stage "+string(pipeErr.Stage))
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "ask failed")
	}
}

// Transcript returns the persisted QA history for a document.
func (h *QAHandler) Transcript(c *gin.Context) {
	docID := c.Param("id")
	limit := 100
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}
	messages, err := h.msgRepo.ListByDocumentID(docID, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list transcript failed")
		return
	}
	response.OK(c, messages)
}
