package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kirkidoo/ProductAudit/internal/shopify"
)

// VariantImageAssignment pairs a variant with the media image it should
// display.
type VariantImageAssignment struct {
	VariantID string `json:"variantId" binding:"required"`
	MediaID   string `json:"mediaId" binding:"required"`
}

// ReassignImagesRequest reassigns variant images within one product.
type ReassignImagesRequest struct {
	ProductID   string                   `json:"productId" binding:"required"`
	Assignments []VariantImageAssignment `json:"assignments" binding:"required,min=1"`
}

// ReassignVariantImages points variants at different media of their product.
// POST /internal/media/variant-images
func (h *Handler) ReassignVariantImages(c *gin.Context) {
	var req ReassignImagesRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	updates := make([]shopify.VariantImageUpdate, 0, len(req.Assignments))
	for _, a := range req.Assignments {
		updates = append(updates, shopify.VariantImageUpdate{VariantID: a.VariantID, MediaID: a.MediaID})
	}
	if err := h.shop.UpdateVariantImages(c.Request.Context(), req.ProductID, updates); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	h.invalidateAfterMediaChange(c)
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// DeleteMediaRequest removes media images from one product.
type DeleteMediaRequest struct {
	ProductID string   `json:"productId" binding:"required"`
	MediaIDs  []string `json:"mediaIds" binding:"required,min=1"`
}

// DeleteMedia removes product media.
// POST /internal/media/delete
func (h *Handler) DeleteMedia(c *gin.Context) {
	var req DeleteMediaRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if err := h.shop.DeleteMedia(c.Request.Context(), req.ProductID, req.MediaIDs); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	h.invalidateAfterMediaChange(c)
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// AltTextEdit sets the alt text of one media image.
type AltTextEdit struct {
	MediaImageID string `json:"mediaImageId" binding:"required"`
	AltText      string `json:"altText"`
}

// UpdateAltTextRequest batches alt text edits.
type UpdateAltTextRequest struct {
	Updates []AltTextEdit `json:"updates" binding:"required,min=1"`
}

// UpdateAltText applies a batch of alt text edits in one call.
// POST /internal/media/alt-text
func (h *Handler) UpdateAltText(c *gin.Context) {
	var req UpdateAltTextRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	updates := make([]shopify.AltTextUpdate, 0, len(req.Updates))
	for _, u := range req.Updates {
		updates = append(updates, shopify.AltTextUpdate{MediaImageID: u.MediaImageID, AltText: u.AltText})
	}
	if err := h.shop.UpdateImageAltTexts(c.Request.Context(), updates); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	h.invalidateAfterMediaChange(c)
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// invalidateAfterMediaChange drops the snapshot cache; a media edit changes
// the very state the cached snapshot captured.
func (h *Handler) invalidateAfterMediaChange(c *gin.Context) {
	if err := h.runner.InvalidateCache(c.Request.Context()); err != nil {
		h.log.Warn().Err(err).Msg("cache invalidation after media change failed")
	}
}
