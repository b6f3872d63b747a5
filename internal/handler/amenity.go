package handler

import (
	"context"
	"net/http"

	"concierge/internal/model"
	"concierge/internal/observability"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// AmenityReader looks up a single amenity
type AmenityReader interface {
	GetAmenityBySlug(ctx context.Context, slug string) (*model.Amenity, error)
}

// AmenityHandler serves amenity detail lookups
type AmenityHandler struct {
	store AmenityReader
	log   zerolog.Logger
}

// NewAmenityHandler creates a new amenity handler
func NewAmenityHandler(store AmenityReader, log zerolog.Logger) *AmenityHandler {
	return &AmenityHandler{store: store, log: log}
}

// Get handles GET /api/v1/amenities/:slug
func (h *AmenityHandler) Get(c *gin.Context) {
	slug := c.Param("slug")

	amenity, err := h.store.GetAmenityBySlug(c.Request.Context(), slug)
	if err != nil {
		observability.FromContext(c.Request.Context(), h.log).Error().Err(err).Str("slug", slug).Msg("amenity lookup failed")
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: msgInternal})
		return
	}

	if amenity == nil {
		c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "Amenity not found"})
		return
	}

	c.JSON(http.StatusOK, amenity)
}
