package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/medrates/pricing-backend/internal/logger"
	"github.com/medrates/pricing-backend/internal/services"
)

type AskRequest struct {
	Question string `json:"question" binding:"required"`
}

type AskHandler struct {
	log              *logger.Logger
	assistantService services.AssistantService
}

func NewAskHandler(log *logger.Logger, assistantService services.AssistantService) *AskHandler {
	return &AskHandler{
		log:              log.With("handler", "AskHandler"),
		assistantService: assistantService,
	}
}

// Ask handles POST /ask.
func (h *AskHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", "question is required")
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", "question is required")
		return
	}

	result, err := h.assistantService.Ask(c.Request.Context(), question)
	if err != nil {
		h.log.Error("Ask failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "ask_failed", "internal server error")
		return
	}
	RespondOK(c, result)
}
