package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kirkidoo/ProductAudit/internal/audit"
	"github.com/Kirkidoo/ProductAudit/internal/parsers/feed"
	"github.com/Kirkidoo/ProductAudit/internal/types"
)

// AuditFile is one uploaded feed file.
type AuditFile struct {
	Filename string `json:"filename" binding:"required"`
	Content  string `json:"content" binding:"required"`
}

// RunAuditRequest triggers a reconciliation pass over one or more feed files.
type RunAuditRequest struct {
	Files        []AuditFile `json:"files" binding:"required,min=1"`
	ForceRefresh bool        `json:"forceRefresh"`
}

// RowIssue is one feed row that failed validation, reported alongside the
// result without aborting the audit.
type RowIssue struct {
	Filename   string `json:"filename"`
	LineNumber int    `json:"lineNumber"`
	Warning    string `json:"warning"`
}

// RunAuditResponse carries the audit result and any per-row feed warnings.
type RunAuditResponse struct {
	Result   *types.AuditResult `json:"result"`
	Warnings []RowIssue         `json:"warnings,omitempty"`
}

// RunAudit parses the uploaded feed files, fetches the store snapshot with
// the strategy the filenames select, and reconciles.
// POST /internal/audit/run
func (h *Handler) RunAudit(c *gin.Context) {
	var req RunAuditRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	merged, clearanceSKUs, sources, warnings, fullCatalog, err := parseFeedFiles(req.Files)
	if err != nil {
		var schemaErr *feed.SchemaError
		if errors.As(err, &schemaErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": schemaErr.Error()})
			return
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if len(merged) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no valid records in uploaded files"})
		return
	}

	result, err := h.runner.Run(c.Request.Context(), merged, clearanceSKUs, audit.RunOptions{
		ForceRefresh: req.ForceRefresh,
		FullCatalog:  fullCatalog,
		SourceFiles:  sources,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("audit run failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	h.session.Set(result)
	c.JSON(http.StatusOK, RunAuditResponse{Result: result, Warnings: warnings})
}

// parseFeedFiles parses every uploaded file and merges the records by SKU,
// later files overriding earlier ones. Clearance sources additionally
// contribute their SKUs to the clearance set.
func parseFeedFiles(files []AuditFile) (
	merged []types.Product,
	clearanceSKUs []string,
	sources []string,
	warnings []RowIssue,
	fullCatalog bool,
	err error,
) {
	index := make(map[string]int)
	for _, f := range files {
		isClearance, isFullExport := audit.SourceSignals(f.Filename)
		fullCatalog = fullCatalog || isFullExport
		sources = append(sources, f.Filename)

		result, parseErr := feed.ParseBytes([]byte(f.Content), isClearance)
		if parseErr != nil {
			return nil, nil, nil, nil, false, parseErr
		}
		for _, row := range result.Rows {
			if row.Warning != "" {
				warnings = append(warnings, RowIssue{
					Filename:   f.Filename,
					LineNumber: row.LineNumber,
					Warning:    row.Warning,
				})
			}
		}
		for _, p := range result.Products {
			if isClearance {
				clearanceSKUs = append(clearanceSKUs, p.SKU)
			}
			if i, seen := index[p.SKU]; seen {
				merged[i] = p
				continue
			}
			index[p.SKU] = len(merged)
			merged = append(merged, p)
		}
	}
	return merged, clearanceSKUs, sources, warnings, fullCatalog, nil
}

// GetResult returns the current session's audit result.
// GET /internal/audit/result
func (h *Handler) GetResult(c *gin.Context) {
	result := h.session.Result()
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no audit has been run"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// InvalidateCache drops the stored catalog snapshot.
// DELETE /internal/audit/cache
func (h *Handler) InvalidateCache(c *gin.Context) {
	if err := h.runner.InvalidateCache(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cache invalidated"})
}
