package feed

import (
	"fmt"
	"strings"
)

// Logical field names used to address columns regardless of how the export
// labels them.
const (
	fieldHandle            = "handle"
	fieldSKU               = "sku"
	fieldProductName       = "productName"
	fieldPrice             = "price"
	fieldStockQuantity     = "stockQuantity"
	fieldImageURL          = "imageUrl"
	fieldDescription       = "description"
	fieldVendor            = "vendor"
	fieldCostPerItem       = "costPerItem"
	fieldCompareAtPrice    = "compareAtPrice"
	fieldVariantGrams      = "variantGrams"
	fieldVariantWeightUnit = "variantWeightUnit"
	fieldBarcode           = "barcode"
	fieldProductType       = "productType"
	fieldProductCategory   = "productCategory"
	fieldSEOTitle          = "seoTitle"
	fieldSEODescription    = "seoDescription"
	fieldTags              = "tags"
	fieldOption1Name       = "option1Name"
	fieldOption1Value      = "option1Value"
	fieldOption2Name       = "option2Name"
	fieldOption2Value      = "option2Value"
	fieldOption3Name       = "option3Name"
	fieldOption3Value      = "option3Value"
)

// headerAliases maps each logical field to the header spellings accepted for
// it, all compared case-insensitively. Shopify exports and the merchant's FTP
// files label the same columns differently.
var headerAliases = map[string][]string{
	fieldHandle:            {"handle"},
	fieldSKU:               {"sku", "variant sku"},
	fieldProductName:       {"productname", "title"},
	fieldPrice:             {"price", "variant price"},
	fieldStockQuantity:     {"stockquantity", "stock", "variant inventory qty", "inventory quantity", "total inventory"},
	fieldImageURL:          {"imageurl", "image src", "variant image"},
	fieldDescription:       {"description", "body (html)"},
	fieldVendor:            {"vendor"},
	fieldCostPerItem:       {"cost per item", "cost"},
	fieldCompareAtPrice:    {"compare at price", "variant compare at price"},
	fieldVariantGrams:      {"variant grams", "weight"},
	fieldVariantWeightUnit: {"variant weight unit", "weight unit"},
	fieldBarcode:           {"variant barcode", "barcode"},
	fieldProductType:       {"type"},
	fieldProductCategory:   {"category", "product category"},
	fieldSEOTitle:          {"seo title"},
	fieldSEODescription:    {"seo description"},
	fieldTags:              {"tags"},
	fieldOption1Name:       {"option1 name"},
	fieldOption1Value:      {"option1 value"},
	fieldOption2Name:       {"option2 name"},
	fieldOption2Value:      {"option2 value"},
	fieldOption3Name:       {"option3 name"},
	fieldOption3Value:      {"option3 value"},
}

// requiredFields must all resolve to a column for a parse to proceed.
var requiredFields = []string{fieldHandle, fieldSKU, fieldProductName, fieldPrice, fieldStockQuantity}

// SchemaError reports that a required column could not be located under any
// of its accepted header names. It aborts the whole parse.
type SchemaError struct {
	Field   string
	Aliases []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("feed is missing a required column for '%s'. Looked for header(s): %q", e.Field, e.Aliases)
}

// resolveHeaderIndex finds the column index for a logical field, or -1.
func resolveHeaderIndex(normalizedHeaders []string, field string) int {
	for _, alias := range headerAliases[field] {
		for i, h := range normalizedHeaders {
			if h == alias {
				return i
			}
		}
	}
	return -1
}

// buildHeaderIndices resolves every logical field against the file headers.
// Required fields that cannot be found produce a SchemaError.
func buildHeaderIndices(fileHeaders []string) (map[string]int, error) {
	normalized := make([]string, len(fileHeaders))
	for i, h := range fileHeaders {
		normalized[i] = strings.ToLower(strings.TrimSpace(h))
	}

	indices := make(map[string]int, len(headerAliases))
	for _, field := range requiredFields {
		idx := resolveHeaderIndex(normalized, field)
		if idx == -1 {
			return nil, &SchemaError{Field: field, Aliases: headerAliases[field]}
		}
		indices[field] = idx
	}
	for field := range headerAliases {
		if _, done := indices[field]; !done {
			indices[field] = resolveHeaderIndex(normalized, field)
		}
	}
	return indices, nil
}
