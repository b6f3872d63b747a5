package handler

import (
	"context"
	"errors"
	"net/http"

	"concierge/internal/model"
	"concierge/internal/observability"
	"concierge/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Fixed user-facing messages; internal detail is only logged
const (
	msgQueryRequired = "query is required"
	msgRateLimited   = "Rate limited. Please try again."
	msgInternal      = "Something went wrong. Please try again."
)

// ChatAnswerer runs the concierge pipeline for one request
type ChatAnswerer interface {
	Chat(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error)
}

// ChatHandler handles concierge chat requests
type ChatHandler struct {
	chat ChatAnswerer
	log  zerolog.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat ChatAnswerer, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, log: log}
}

// Chat handles POST /api/v1/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: msgQueryRequired})
		return
	}

	resp, err := h.chat.Chat(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// respondError maps pipeline errors onto status codes
func (h *ChatHandler) respondError(c *gin.Context, err error) {
	logger := observability.FromContext(c.Request.Context(), h.log)

	var validation *service.ValidationError
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: validation.Message})
	case errors.Is(err, service.ErrRateLimited):
		logger.Warn().Err(err).Msg("model rate limited")
		c.JSON(http.StatusTooManyRequests, model.ErrorResponse{Error: msgRateLimited})
	default:
		logger.Error().Err(err).Msg("chat failed")
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: msgInternal})
	}
}
