package shopify

import (
	"strconv"
	"strings"

	"github.com/Kirkidoo/ProductAudit/internal/types"
)

// ClearanceTag is the product tag marking clearance items. Matching is
// case-insensitive.
const ClearanceTag = "Clearance"

// NormalizeOptions selects which inventory location's stock counts. A level
// matches on either the location GID or its legacy numeric id.
type NormalizeOptions struct {
	LocationGID      string
	LocationLegacyID string
}

// Normalize reduces raw variant nodes to canonical products and indexes the
// raw nodes by SKU for later mutation context. Nodes without a SKU or parent
// product are dropped; duplicate SKUs each produce a product so the engine
// can count them.
func Normalize(nodes []types.VariantNode, opts NormalizeOptions) ([]types.Product, map[string]types.VariantNode) {
	products := make([]types.Product, 0, len(nodes))
	rawBySKU := make(map[string]types.VariantNode, len(nodes))

	for _, node := range nodes {
		if node.SKU == "" || node.Product == nil {
			continue
		}

		price, _ := strconv.ParseFloat(node.Price, 64)
		p := types.Product{
			Handle:         node.Product.Handle,
			SKU:            node.SKU,
			ProductName:    node.Product.Title,
			Price:          price,
			ImageURL:       variantImageURL(node),
			IsClearance:    HasClearanceTag(node.Product.Tags),
			Description:    node.Product.DescriptionHTML,
			Tags:           node.Product.Tags,
			CompareAtPrice: parseCompareAt(node.CompareAtPrice),
			VariantID:      node.ID,
		}
		if node.InventoryItem != nil {
			p.InventoryItemID = node.InventoryItem.ID
		}
		p.StockQuantity, p.LocationID = availableAt(node, opts)
		applySelectedOptions(&p, node.SelectedOptions)

		products = append(products, p)
		rawBySKU[node.SKU] = node
	}
	return products, rawBySKU
}

// HasClearanceTag reports whether any tag equals the clearance marker,
// ignoring case and surrounding whitespace.
func HasClearanceTag(tags []string) bool {
	for _, t := range tags {
		if strings.EqualFold(strings.TrimSpace(t), ClearanceTag) {
			return true
		}
	}
	return false
}

// parseCompareAt parses a compare-at price string. Absent, unparseable, and
// non-positive values all normalize to nil.
func parseCompareAt(s *string) *float64 {
	if s == nil || *s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(*s, 64)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}

// availableAt returns the available quantity at the configured location and
// the matched location GID. No matching level means zero stock.
func availableAt(node types.VariantNode, opts NormalizeOptions) (int, string) {
	if node.InventoryItem == nil {
		return 0, ""
	}
	for _, edge := range node.InventoryItem.InventoryLevels.Edges {
		loc := edge.Node.Location
		if !matchesLocation(loc, opts) {
			continue
		}
		for _, q := range edge.Node.Quantities {
			if q.Name == "available" {
				return q.Quantity, loc.ID
			}
		}
		return 0, loc.ID
	}
	return 0, ""
}

func matchesLocation(loc types.LocationNode, opts NormalizeOptions) bool {
	if opts.LocationGID == "" && opts.LocationLegacyID == "" {
		return true
	}
	if opts.LocationGID != "" && loc.ID == opts.LocationGID {
		return true
	}
	return opts.LocationLegacyID != "" && loc.LegacyResourceID == opts.LocationLegacyID
}

func variantImageURL(node types.VariantNode) string {
	if node.Image != nil && node.Image.URL != "" {
		return node.Image.URL
	}
	if node.Product != nil && node.Product.Media != nil {
		for _, edge := range node.Product.Media.Edges {
			if edge.Node.Image != nil && edge.Node.Image.URL != "" {
				return edge.Node.Image.URL
			}
		}
	}
	return ""
}

func applySelectedOptions(p *types.Product, options []types.SelectedOption) {
	for i, opt := range options {
		switch i {
		case 0:
			p.Option1Name, p.Option1Value = opt.Name, opt.Value
		case 1:
			p.Option2Name, p.Option2Value = opt.Name, opt.Value
		case 2:
			p.Option3Name, p.Option3Value = opt.Name, opt.Value
		}
	}
}
