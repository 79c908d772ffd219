package audit

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/Kirkidoo/ProductAudit/internal/types"
)

var (
	missingExportHeader = []string{"Handle", "Title", "SKU", "Option", "Price", "Stock Quantity", "New Product"}
	discrepancyHeader   = []string{"SKU", "Product Name", "Field", "Feed Value", "Store Value"}
)

// ExportCSV renders the report as a two-section CSV document: missing
// products first, then discrepancies. Output only; it is not designed to be
// parsed back in.
func ExportCSV(result *types.AuditResult) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	w.Write([]string{"MISSING PRODUCTS"})
	w.Write(missingExportHeader)
	for _, g := range result.MissingProductGroups {
		for _, v := range g.Variants {
			w.Write(missingExportRow(g, v))
		}
	}

	w.Write(nil)
	w.Write([]string{"PRODUCTS WITH ISSUES"})
	w.Write(discrepancyHeader)
	for _, d := range result.Discrepancies {
		w.Write(discrepancyRow(d))
	}

	w.Flush()
	return buf.Bytes()
}

func missingExportRow(g types.MissingProductGroup, v types.Product) []string {
	option := v.Option1Value
	if option == "" {
		option = v.SKU
	}
	if option == "" {
		option = "-"
	}
	return []string{
		g.Handle,
		g.Title,
		v.SKU,
		option,
		formatAmount(v.Price),
		strconv.Itoa(v.StockQuantity),
		strconv.FormatBool(g.IsNewProduct),
	}
}

func discrepancyRow(d types.Discrepancy) []string {
	return []string{
		d.SKU,
		d.ProductName,
		string(d.Field),
		d.FeedValue,
		d.RemoteValue,
	}
}
