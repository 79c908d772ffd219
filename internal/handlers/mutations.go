package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kirkidoo/ProductAudit/internal/audit"
)

// FixRequest selects discrepancies to fix by their SKU-Field keys, in the
// order they should be attempted.
type FixRequest struct {
	Keys []string `json:"keys" binding:"required,min=1"`
}

// FixDiscrepancies applies the selected fixes one at a time and prunes the
// ones that succeeded from the session result.
// POST /internal/audit/fix
func (h *Handler) FixDiscrepancies(c *gin.Context) {
	var req FixRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	items := h.session.Discrepancies(req.Keys)
	if len(items) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no matching discrepancies in current audit"})
		return
	}

	report := h.applier.FixAll(c.Request.Context(), items, h.logApplyProgress)
	h.session.PruneDiscrepancies(report.Succeeded)
	c.JSON(http.StatusOK, report)
}

// CreateRequest selects missing groups to create by handle. An empty list
// creates every group in the current result.
type CreateRequest struct {
	Handles []string `json:"handles"`
}

// CreateProducts creates the selected missing groups one at a time and
// prunes the ones that succeeded.
// POST /internal/audit/create
func (h *Handler) CreateProducts(c *gin.Context) {
	var req CreateRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	groups := h.session.Groups(req.Handles)
	if len(groups) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no matching missing groups in current audit"})
		return
	}

	report := h.applier.CreateAll(c.Request.Context(), groups, h.logApplyProgress)
	h.session.PruneGroups(report.Succeeded)
	c.JSON(http.StatusOK, report)
}

// RemoveItemsRequest prunes items from the session result without any
// remote effect.
type RemoveItemsRequest struct {
	Kind string   `json:"kind" binding:"required,oneof=discrepancy missing"`
	Keys []string `json:"keys" binding:"required,min=1"`
}

// RemoveItems drops discrepancies or missing groups from the in-memory
// result. Removing an absent key is a no-op.
// DELETE /internal/audit/items
func (h *Handler) RemoveItems(c *gin.Context) {
	var req RemoveItemsRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if h.session.Result() == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no audit has been run"})
		return
	}

	switch req.Kind {
	case "discrepancy":
		h.session.PruneDiscrepancies(req.Keys)
	case "missing":
		h.session.PruneGroups(req.Keys)
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

func (h *Handler) logApplyProgress(p audit.ApplyProgress) {
	h.log.Info().
		Int("index", p.Index).
		Int("total", p.Total).
		Str("item", p.Label).
		Msg("bulk item")
}
