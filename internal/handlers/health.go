package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// HealthCheck reports service liveness.
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// VerifyCredentials checks the configured store name and access token by
// asking the store for its name.
// GET /internal/shopify/verify
func (h *Handler) VerifyCredentials(c *gin.Context) {
	name, err := h.shop.VerifyCredentials(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "shop": name})
}
