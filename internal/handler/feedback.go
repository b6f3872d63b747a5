package handler

import (
	"context"
	"errors"
	"net/http"

	"concierge/internal/model"
	"concierge/internal/observability"
	"concierge/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// FeedbackRecorder attaches a user action to a logged chat
type FeedbackRecorder interface {
	LogFeedback(ctx context.Context, chatID, amenitySlug, action string) error
}

// FeedbackHandler handles feedback-related HTTP requests
type FeedbackHandler struct {
	store FeedbackRecorder
	log   zerolog.Logger
}

// NewFeedbackHandler creates a new feedback handler
func NewFeedbackHandler(store FeedbackRecorder, log zerolog.Logger) *FeedbackHandler {
	return &FeedbackHandler{store: store, log: log}
}

// Submit handles POST /api/v1/feedback
func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req model.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "chat_id, amenity_slug and action are required"})
		return
	}

	if !model.AmenityFeedbackActions[req.Action] {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid action. Must be one of: click, navigate, save"})
		return
	}

	err := h.store.LogFeedback(c.Request.Context(), req.ChatID, req.AmenitySlug, req.Action)
	if errors.Is(err, repository.ErrChatNotFound) {
		c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "Chat not found"})
		return
	}
	if err != nil {
		observability.FromContext(c.Request.Context(), h.log).Error().Err(err).Str("chat_id", req.ChatID).Msg("failed to log feedback")
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: msgInternal})
		return
	}

	c.JSON(http.StatusOK, model.FeedbackResponse{
		Success: true,
		Message: "Feedback logged successfully",
	})
}
