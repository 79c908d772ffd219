package handlers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kirkidoo/ProductAudit/internal/audit"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportReport renders the current audit result as a downloadable document.
// GET /internal/audit/export?format=csv|xlsx
func (h *Handler) ExportReport(c *gin.Context) {
	result := h.session.Result()
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no audit has been run"})
		return
	}

	switch c.DefaultQuery("format", "csv") {
	case "csv":
		c.Header("Content-Disposition", `attachment; filename="audit-report.csv"`)
		c.Data(http.StatusOK, "text/csv", audit.ExportCSV(result))

	case "xlsx":
		f, err := audit.ExportXLSX(result)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer f.Close()

		var buf bytes.Buffer
		if err := f.Write(&buf); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="audit-report.xlsx"`)
		c.Data(http.StatusOK, xlsxContentType, buf.Bytes())

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xlsx"})
	}
}
