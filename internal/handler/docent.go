package handler

import (
	"context"
	"errors"
	"net/http"

	"artdocent-backend/internal/model"
	"artdocent-backend/internal/service"
	"artdocent-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	msgMethodNotAllowed = "Only POST requests are allowed"
	msgUpstreamFailed   = "Error fetching response from ChatGPT"
	msgInvalidBody      = "Invalid request body"
)

type DocentReplier interface {
	GetDocentReply(ctx context.Context, req *model.DocentRequest) (model.DocentReply, error)
}

type DocentHandler struct {
	docent DocentReplier
}

func NewDocentHandler(docent DocentReplier) *DocentHandler {
	return &DocentHandler{docent: docent}
}

// RequirePost answers anything but POST with a 405 in the proxy's own error
// shape. It heads the docent chain, ahead of the limiter.
func RequirePost(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.AbortWithStatusJSON(http.StatusMethodNotAllowed, model.ErrorMessage{Message: msgMethodNotAllowed})
		return
	}
	c.Next()
}

func (h *DocentHandler) Ask(c *gin.Context) {
	var req model.DocentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorMessage{Message: msgInvalidBody})
		return
	}

	reply, err := h.docent.GetDocentReply(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrEmptyQuestion) {
			c.JSON(http.StatusBadRequest, model.ErrorMessage{Message: err.Error()})
			return
		}
		logger.Errorf("Error fetching docent response: %v", err)
		c.JSON(http.StatusInternalServerError, model.ErrorMessage{Message: msgUpstreamFailed})
		return
	}

	c.JSON(http.StatusOK, reply)
}
