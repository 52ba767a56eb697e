// Package handler provides HTTP handlers for the RAG query service.
package handler

import (
	stderrors "errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/ragquery/internal/ragquery/biz"
	"github.com/kart-io/ragquery/pkg/infra/middleware/common"
	"github.com/kart-io/ragquery/pkg/utils/errors"
	"github.com/kart-io/ragquery/pkg/utils/response"
)

// RAGHandler handles RAG query requests.
type RAGHandler struct {
	service biz.Service
}

// NewRAGHandler creates a new RAGHandler.
func NewRAGHandler(service biz.Service) *RAGHandler {
	return &RAGHandler{service: service}
}

// QueryRequest is the body of POST /ragQuery. Null fields read as empty strings;
// any other non-string value fails binding.
type QueryRequest struct {
	Question        string `json:"question"`
	BusinessContext string `json:"businessContext"`
}

// Query answers a question from the indexed documents.
func (h *RAGHandler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil && !stderrors.Is(err, io.EOF) {
		response.Fail(c, bindError(err))
		return
	}

	resp, err := h.service.Query(c.Request.Context(), req.Question, req.BusinessContext)
	if err != nil {
		e := errors.FromError(err)
		// 检索、生成与排队失败已由 service 按阶段记录。
		if errors.KindOf(e) == errors.KindUnexpected {
			logger.Errorw("Unexpected query failure",
				"request_id", common.GetRequestID(c.Request.Context()),
				"kind", errors.KindUnexpected,
				"error", err.Error(),
			)
		}
		response.Fail(c, e)
		return
	}

	response.OK(c, resp)
}

func bindError(err error) error {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return errors.ErrRequestTooLarge.WithCause(err)
	}
	return errors.ErrInvalidBody.WithCause(err)
}
