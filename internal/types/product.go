package types

// Product is one purchasable variant in canonical form. Feed rows and
// normalized Shopify variants both reduce to this shape so the reconciliation
// engine can compare them directly.
type Product struct {
	Handle        string  `json:"handle"`
	SKU           string  `json:"sku"`
	ProductName   string  `json:"productName"`
	Price         float64 `json:"price"`
	StockQuantity int     `json:"stockQuantity"`
	ImageURL      string  `json:"imageUrl,omitempty"`
	IsClearance   bool    `json:"isClearance,omitempty"`

	// Merchandising metadata carried from feed exports. Optional throughout.
	Description       string   `json:"description,omitempty"`
	Vendor            string   `json:"vendor,omitempty"`
	CostPerItem       *float64 `json:"costPerItem,omitempty"`
	CompareAtPrice    *float64 `json:"compareAtPrice,omitempty"`
	VariantGrams      *float64 `json:"variantGrams,omitempty"`
	VariantWeightUnit string   `json:"variantWeightUnit,omitempty"`
	Barcode           string   `json:"barcode,omitempty"`
	ProductType       string   `json:"productType,omitempty"`
	ProductCategory   string   `json:"productCategory,omitempty"`
	SEOTitle          string   `json:"seoTitle,omitempty"`
	SEODescription    string   `json:"seoDescription,omitempty"`
	Tags              []string `json:"tags,omitempty"`

	Option1Name  string `json:"option1Name,omitempty"`
	Option1Value string `json:"option1Value,omitempty"`
	Option2Name  string `json:"option2Name,omitempty"`
	Option2Value string `json:"option2Value,omitempty"`
	Option3Name  string `json:"option3Name,omitempty"`
	Option3Value string `json:"option3Value,omitempty"`

	// Shopify correlation ids, populated only for records built from remote
	// data. Required by the mutation orchestrator.
	VariantID       string `json:"variantId,omitempty"`
	InventoryItemID string `json:"inventoryItemId,omitempty"`
	LocationID      string `json:"locationId,omitempty"`
}

// Comparable reports whether the record carries both identifiers required to
// participate in reconciliation. Records failing this are diagnostic-only.
func (p Product) Comparable() bool {
	return p.SKU != "" && p.Handle != ""
}

// ParsedRow is one data line of a feed file. Record is set iff the row parsed
// into a valid Product; otherwise Warning explains the rejection. Rows are
// never mutated after parsing.
type ParsedRow struct {
	LineNumber int               `json:"lineNumber"`
	RawData    map[string]string `json:"rawData"`
	Record     *Product          `json:"record,omitempty"`
	Warning    string            `json:"warning,omitempty"`
}

// FloatPtr returns a pointer to the given float64.
func FloatPtr(f float64) *float64 { return &f }

// IntPtr returns a pointer to the given int.
func IntPtr(i int) *int { return &i }

// StringPtr returns a pointer to the given string.
func StringPtr(s string) *string { return &s }
