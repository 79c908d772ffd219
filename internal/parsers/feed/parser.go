// Package feed parses merchant product feeds (comma or tab delimited text)
// into canonical product records with per-row diagnostics. Malformed rows
// never abort a parse; only an unresolvable required column does.
package feed

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Kirkidoo/ProductAudit/internal/parsers/charset"
	"github.com/Kirkidoo/ProductAudit/internal/types"
)

// PlaceholderImageBase is the prefix of the deterministic fallback image URL
// assigned to rows without one. The SKU is embedded so two imageless rows
// never collapse into the same image slot downstream.
const PlaceholderImageBase = "https://via.placeholder.com/150/F3F4F6/9CA3AF?text="

// Result is a fully materialized parse. Rows retains every data line in file
// order so preview tooling can address any line directly.
type Result struct {
	Products []types.Product
	Rows     []types.ParsedRow
	Headers  []string
}

// PlaceholderImageURL returns the deterministic fallback image for a SKU.
func PlaceholderImageURL(sku string) string {
	return PlaceholderImageBase + sku
}

// IsPlaceholderImage reports whether a URL is one of our generated fallbacks.
func IsPlaceholderImage(url string) bool {
	return strings.Contains(url, "via.placeholder.com")
}

// ParseBytes decodes raw file bytes to UTF-8 and parses them. Merchant
// uploads are occasionally Windows-1252 encoded.
func ParseBytes(content []byte, isClearanceSource bool) (*Result, error) {
	decoded, err := charset.Decode(content, charset.DetectEncoding(content))
	if err != nil {
		return nil, fmt.Errorf("failed to decode feed content: %w", err)
	}
	return Parse(decoded, isClearanceSource)
}

// Parse converts feed text into canonical records. isClearanceSource marks
// every produced record as clearance stock; it is a property of the source
// file, not of row content.
func Parse(rawText string, isClearanceSource bool) (*Result, error) {
	content := strings.TrimSpace(rawText)
	if content == "" {
		return &Result{}, nil
	}

	delimiter := DetectDelimiter(content)
	allRows := splitRecords(content, delimiter)
	if len(allRows) < 2 {
		return &Result{}, nil
	}

	fileHeaders := make([]string, len(allRows[0]))
	for i, h := range allRows[0] {
		fileHeaders[i] = strings.TrimSpace(h)
	}

	indices, err := buildHeaderIndices(fileHeaders)
	if err != nil {
		return nil, err
	}

	result := &Result{Headers: fileHeaders}
	for i, cells := range allRows[1:] {
		// Header is file line 1; the first data row is line 2.
		lineNumber := i + 2

		if len(cells) < len(fileHeaders) && allBlank(cells) {
			continue
		}
		for len(cells) < len(fileHeaders) {
			cells = append(cells, "")
		}

		rawData := make(map[string]string, len(fileHeaders))
		for j, h := range fileHeaders {
			rawData[h] = cells[j]
		}

		row := parseRow(cells, indices, lineNumber, rawData, isClearanceSource)
		if row.Record != nil {
			result.Products = append(result.Products, *row.Record)
		}
		result.Rows = append(result.Rows, row)
	}

	return result, nil
}

func parseRow(cells []string, indices map[string]int, lineNumber int, rawData map[string]string, isClearance bool) types.ParsedRow {
	row := types.ParsedRow{LineNumber: lineNumber, RawData: rawData}

	cell := func(field string) string {
		idx := indices[field]
		if idx < 0 || idx >= len(cells) {
			return ""
		}
		return cells[idx]
	}

	handle := cell(fieldHandle)
	sku := cell(fieldSKU)
	if handle == "" || sku == "" {
		row.Warning = "Missing or empty Handle or SKU."
		return row
	}

	priceStr := cell(fieldPrice)
	stockStr := cell(fieldStockQuantity)
	price, priceErr := strconv.ParseFloat(strings.TrimSpace(priceStr), 64)
	stock, stockErr := strconv.Atoi(strings.TrimSpace(stockStr))
	if priceErr != nil || stockErr != nil {
		row.Warning = fmt.Sprintf("Could not parse Price or StockQuantity. Found Price: '%s', StockQuantity: '%s'.", priceStr, stockStr)
		return row
	}

	productName := cell(fieldProductName)
	if productName == "" {
		productName = "N/A"
	}
	imageURL := cell(fieldImageURL)
	if imageURL == "" {
		imageURL = PlaceholderImageURL(sku)
	}

	product := types.Product{
		Handle:            handle,
		SKU:               sku,
		ProductName:       productName,
		Price:             price,
		StockQuantity:     stock,
		ImageURL:          imageURL,
		IsClearance:       isClearance,
		Description:       cell(fieldDescription),
		Vendor:            cell(fieldVendor),
		CostPerItem:       optionalFloat(cell(fieldCostPerItem)),
		CompareAtPrice:    optionalFloat(cell(fieldCompareAtPrice)),
		VariantGrams:      optionalFloat(cell(fieldVariantGrams)),
		VariantWeightUnit: cell(fieldVariantWeightUnit),
		Barcode:           cell(fieldBarcode),
		ProductType:       cell(fieldProductType),
		ProductCategory:   cell(fieldProductCategory),
		SEOTitle:          cell(fieldSEOTitle),
		SEODescription:    cell(fieldSEODescription),
		Tags:              splitTags(cell(fieldTags)),
		Option1Name:       cell(fieldOption1Name),
		Option1Value:      cell(fieldOption1Value),
		Option2Name:       cell(fieldOption2Name),
		Option2Value:      cell(fieldOption2Value),
		Option3Name:       cell(fieldOption3Name),
		Option3Value:      cell(fieldOption3Value),
	}

	row.Record = &product
	return row
}

func optionalFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(t); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}

func allBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
