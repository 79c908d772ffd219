package types

// FieldKind identifies which tracked field a discrepancy was raised for. The
// set is closed; mutation dispatch switches over it exhaustively.
type FieldKind string

const (
	FieldPrice               FieldKind = "Price"
	FieldDuplicateSKU        FieldKind = "Duplicate SKU"
	FieldH1InDescription     FieldKind = "H1 in Description"
	FieldComparePriceIssue   FieldKind = "Compare Price Issue"
	FieldMissingClearanceTag FieldKind = "Missing Clearance Tag"
	FieldUnexpectedClearance FieldKind = "Unexpected Clearance Tag"
)

// AllFieldKinds lists every discrepancy kind an audit can produce, in report
// order.
var AllFieldKinds = []FieldKind{
	FieldPrice,
	FieldDuplicateSKU,
	FieldH1InDescription,
	FieldComparePriceIssue,
	FieldMissingClearanceTag,
	FieldUnexpectedClearance,
}

// ProductLevel reports whether fixing this kind mutates the parent product
// rather than a single variant.
func (f FieldKind) ProductLevel() bool {
	switch f {
	case FieldH1InDescription, FieldMissingClearanceTag, FieldUnexpectedClearance:
		return true
	}
	return false
}

// Discrepancy is one field-level mismatch between a feed record and its
// Shopify counterpart. SKU plus Field is the identity key within a report.
type Discrepancy struct {
	SKU         string    `json:"sku"`
	ProductName string    `json:"productName"`
	Field       FieldKind `json:"field"`
	FeedValue   string    `json:"feedValue"`
	RemoteValue string    `json:"remoteValue"`
	ImageURL    string    `json:"imageUrl,omitempty"`

	// Ids needed to execute the fix. Variant-level fixes also need the
	// parent ProductID for the bulk variant update mutation.
	VariantID string `json:"variantId"`
	ProductID string `json:"productId,omitempty"`

	// TargetPrice is the numeric feed value for Price and Compare Price
	// fixes. Nil means "not provided" (clears compare-at on fix).
	TargetPrice *float64 `json:"targetPrice,omitempty"`
}

// Key returns the report identity of the discrepancy.
func (d Discrepancy) Key() string {
	return d.SKU + "-" + string(d.Field)
}

// ProductImage is one image slot of a missing group. GroupID is operator
// editable so several source URLs can be directed at the same upload.
type ProductImage struct {
	OriginalSrc string `json:"originalSrc"`
	AltText     string `json:"altText,omitempty"`
	GroupID     string `json:"groupId"`
}

// MissingProductGroup is one catalog entity absent, in whole or part, from
// Shopify. Variants holds only the missing members.
type MissingProductGroup struct {
	Handle       string    `json:"handle"`
	Title        string    `json:"title"`
	Variants     []Product `json:"variants"`
	IsNewProduct bool      `json:"isNewProduct"`
	IsClearance  bool      `json:"isClearance,omitempty"`

	// Shared properties copied from the first missing variant.
	Vendor          string   `json:"vendor,omitempty"`
	ProductType     string   `json:"productType,omitempty"`
	ProductCategory string   `json:"productCategory,omitempty"`
	Description     string   `json:"description,omitempty"`
	SEOTitle        string   `json:"seoTitle,omitempty"`
	SEODescription  string   `json:"seoDescription,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Option1Name     string   `json:"option1Name,omitempty"`
	Option2Name     string   `json:"option2Name,omitempty"`
	Option3Name     string   `json:"option3Name,omitempty"`

	Images []ProductImage `json:"images"`
}

// AuditResult aggregates one reconciliation pass. Items are removed as fixes
// and creates succeed; the result is never otherwise mutated.
type AuditResult struct {
	MissingProductGroups []MissingProductGroup  `json:"missingProductGroups"`
	Discrepancies        []Discrepancy          `json:"discrepancies"`
	RawDataBySKU         map[string]VariantNode `json:"-"`

	// PartialAudit is true when the batched fetch strategy was used, meaning
	// checks requiring full-catalog context were skipped.
	PartialAudit bool     `json:"partialAudit"`
	SourceFiles  []string `json:"sourceFiles,omitempty"`
}

// RemoveMissingGroup drops the group with the given handle. Removing an
// absent handle is a no-op.
func (r *AuditResult) RemoveMissingGroup(handle string) {
	r.RemoveMissingGroups([]string{handle})
}

// RemoveMissingGroups drops every group whose handle is in handles.
func (r *AuditResult) RemoveMissingGroups(handles []string) {
	keys := make(map[string]struct{}, len(handles))
	for _, h := range handles {
		keys[h] = struct{}{}
	}
	kept := r.MissingProductGroups[:0]
	for _, g := range r.MissingProductGroups {
		if _, gone := keys[g.Handle]; !gone {
			kept = append(kept, g)
		}
	}
	r.MissingProductGroups = kept
}

// RemoveDiscrepancy drops the discrepancy with the given key (SKU-Field).
// Removing an absent key is a no-op.
func (r *AuditResult) RemoveDiscrepancy(key string) {
	r.RemoveDiscrepancies([]string{key})
}

// RemoveDiscrepancies drops every discrepancy whose key is in keys.
func (r *AuditResult) RemoveDiscrepancies(keys []string) {
	gone := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		gone[k] = struct{}{}
	}
	kept := r.Discrepancies[:0]
	for _, d := range r.Discrepancies {
		if _, drop := gone[d.Key()]; !drop {
			kept = append(kept, d)
		}
	}
	r.Discrepancies = kept
}
