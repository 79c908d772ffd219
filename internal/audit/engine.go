// Package audit implements the reconciliation engine, the audit runner, and
// the bulk mutation applier with its per-item error isolation.
package audit

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/Kirkidoo/ProductAudit/internal/shopify"
	"github.com/Kirkidoo/ProductAudit/internal/types"
)

// PriceTolerance is the maximum absolute price difference that still counts
// as equal. Feed exports round differently than the store.
const PriceTolerance = 0.001

var h1Re = regexp.MustCompile(`(?i)<h1\b`)

// Reconcile compares the feed catalog against the store snapshot and
// produces the full discrepancy and missing-group report. fullCatalog
// enables the checks that are only sound when the remote side is complete.
func Reconcile(
	local []types.Product,
	remote []types.Product,
	rawBySKU map[string]types.VariantNode,
	clearanceSKUs []string,
	fullCatalog bool,
) *types.AuditResult {
	result := &types.AuditResult{
		MissingProductGroups: []types.MissingProductGroup{},
		Discrepancies:        []types.Discrepancy{},
		RawDataBySKU:         rawBySKU,
		PartialAudit:         !fullCatalog,
	}

	remoteBySKU := make(map[string]types.Product, len(remote))
	remoteCount := make(map[string]int, len(remote))
	remoteHandles := make(map[string]struct{})
	for _, r := range remote {
		if _, seen := remoteBySKU[r.SKU]; !seen {
			remoteBySKU[r.SKU] = r
		}
		remoteCount[r.SKU]++
		remoteHandles[r.Handle] = struct{}{}
	}

	localSKUs := make(map[string]struct{}, len(local))
	for _, l := range local {
		if l.SKU != "" {
			localSKUs[l.SKU] = struct{}{}
		}
	}
	clearanceSet := make(map[string]struct{}, len(clearanceSKUs))
	for _, s := range clearanceSKUs {
		clearanceSet[s] = struct{}{}
	}

	var missing []types.Product
	for _, l := range local {
		if l.SKU == "" {
			continue
		}
		r, found := remoteBySKU[l.SKU]
		if !found {
			missing = append(missing, l)
			continue
		}
		result.Discrepancies = append(result.Discrepancies, compareVariant(l, r, rawBySKU)...)
	}

	result.Discrepancies = append(result.Discrepancies,
		duplicateSKUs(remoteBySKU, remoteCount, localSKUs, rawBySKU)...)

	entities := groupRemoteByHandle(remote)
	result.Discrepancies = append(result.Discrepancies,
		entityChecks(entities, localSKUs, clearanceSet, rawBySKU, fullCatalog)...)

	result.MissingProductGroups = groupMissing(missing, remoteHandles, clearanceSet)
	return result
}

// compareVariant emits the Price and CompareAtPriceIssue discrepancies for
// one matched pair. Compare-at is only audited for clearance records.
func compareVariant(l, r types.Product, rawBySKU map[string]types.VariantNode) []types.Discrepancy {
	var out []types.Discrepancy

	if math.Abs(l.Price-r.Price) > PriceTolerance {
		out = append(out, types.Discrepancy{
			SKU:         l.SKU,
			ProductName: r.ProductName,
			Field:       types.FieldPrice,
			FeedValue:   formatAmount(l.Price),
			RemoteValue: formatAmount(r.Price),
			ImageURL:    r.ImageURL,
			VariantID:   r.VariantID,
			ProductID:   productIDFor(l.SKU, rawBySKU),
			TargetPrice: types.FloatPtr(l.Price),
		})
	}

	if l.IsClearance && !compareAtEqual(l.CompareAtPrice, r.CompareAtPrice) {
		out = append(out, types.Discrepancy{
			SKU:         l.SKU,
			ProductName: r.ProductName,
			Field:       types.FieldComparePriceIssue,
			FeedValue:   formatCompareAt(l.CompareAtPrice),
			RemoteValue: formatCompareAt(r.CompareAtPrice),
			ImageURL:    r.ImageURL,
			VariantID:   r.VariantID,
			ProductID:   productIDFor(l.SKU, rawBySKU),
			TargetPrice: l.CompareAtPrice,
		})
	}
	return out
}

// compareAtEqual treats nil and non-positive values as the same "not set"
// state; two set values differing by the tolerance or more are unequal.
func compareAtEqual(a, b *float64) bool {
	aSet := a != nil && *a > 0
	bSet := b != nil && *b > 0
	if aSet != bSet {
		return false
	}
	if !aSet {
		return true
	}
	return math.Abs(*a-*b) < PriceTolerance
}

// duplicateSKUs reports SKUs the store holds more than once, limited to SKUs
// the feed actually asked about. Counts come from normalized records:
// variants dropped during normalization (no SKU, no parent product) do not
// contribute, so a duplicate whose extra copies are all orphaned is not
// reported.
func duplicateSKUs(
	remoteBySKU map[string]types.Product,
	remoteCount map[string]int,
	localSKUs map[string]struct{},
	rawBySKU map[string]types.VariantNode,
) []types.Discrepancy {
	var out []types.Discrepancy
	for sku, count := range remoteCount {
		if count <= 1 {
			continue
		}
		if _, asked := localSKUs[sku]; !asked {
			continue
		}
		r := remoteBySKU[sku]
		out = append(out, types.Discrepancy{
			SKU:         sku,
			ProductName: r.ProductName,
			Field:       types.FieldDuplicateSKU,
			FeedValue:   "Expected 1",
			RemoteValue: fmt.Sprintf("Found %d times", count),
			ImageURL:    r.ImageURL,
			VariantID:   r.VariantID,
			ProductID:   productIDFor(sku, rawBySKU),
		})
	}
	return out
}

// remoteEntity is one parent product with its variants, in snapshot order.
type remoteEntity struct {
	handle   string
	variants []types.Product
}

func groupRemoteByHandle(remote []types.Product) []remoteEntity {
	index := make(map[string]int)
	var entities []remoteEntity
	for _, r := range remote {
		i, seen := index[r.Handle]
		if !seen {
			i = len(entities)
			index[r.Handle] = i
			entities = append(entities, remoteEntity{handle: r.Handle})
		}
		entities[i].variants = append(entities[i].variants, r)
	}
	return entities
}

// entityChecks runs the product-level audits: forbidden h1 markup, missing
// clearance tag, and (full catalog only) unexpected clearance tag. Each
// emits at most one discrepancy per entity.
func entityChecks(
	entities []remoteEntity,
	localSKUs, clearanceSet map[string]struct{},
	rawBySKU map[string]types.VariantNode,
	fullCatalog bool,
) []types.Discrepancy {
	var out []types.Discrepancy
	for _, e := range entities {
		if len(e.variants) == 0 {
			continue
		}
		first := e.variants[0]

		var localMatched, clearanceMatched []types.Product
		localOnClearance := false
		for _, v := range e.variants {
			if _, ok := localSKUs[v.SKU]; ok {
				localMatched = append(localMatched, v)
				if _, onClearance := clearanceSet[v.SKU]; onClearance {
					localOnClearance = true
				}
			}
			if _, ok := clearanceSet[v.SKU]; ok {
				clearanceMatched = append(clearanceMatched, v)
			}
		}

		if len(localMatched) > 0 && h1Re.MatchString(first.Description) {
			v := localMatched[0]
			out = append(out, types.Discrepancy{
				SKU:         v.SKU,
				ProductName: v.ProductName,
				Field:       types.FieldH1InDescription,
				FeedValue:   "No <h1> headings",
				RemoteValue: "Description contains <h1>",
				ImageURL:    v.ImageURL,
				VariantID:   v.VariantID,
				ProductID:   productIDFor(v.SKU, rawBySKU),
			})
		}

		tagged := shopify.HasClearanceTag(first.Tags)
		if len(clearanceMatched) > 0 && !tagged {
			v := clearanceMatched[0]
			out = append(out, types.Discrepancy{
				SKU:         v.SKU,
				ProductName: v.ProductName,
				Field:       types.FieldMissingClearanceTag,
				FeedValue:   "Clearance",
				RemoteValue: "Tag missing",
				ImageURL:    v.ImageURL,
				VariantID:   v.VariantID,
				ProductID:   productIDFor(v.SKU, rawBySKU),
			})
		}

		if fullCatalog && tagged && len(localMatched) > 0 && !localOnClearance {
			v := localMatched[0]
			out = append(out, types.Discrepancy{
				SKU:         v.SKU,
				ProductName: v.ProductName,
				Field:       types.FieldUnexpectedClearance,
				FeedValue:   "Not on clearance",
				RemoteValue: "Tagged Clearance",
				ImageURL:    v.ImageURL,
				VariantID:   v.VariantID,
				ProductID:   productIDFor(v.SKU, rawBySKU),
			})
		}
	}
	return out
}

// groupMissing folds the unmatched feed records into per-handle groups in
// first-seen order. A group is a new product only when the store has no
// entity under its handle at all.
func groupMissing(missing []types.Product, remoteHandles, clearanceSet map[string]struct{}) []types.MissingProductGroup {
	index := make(map[string]int)
	groups := []types.MissingProductGroup{}
	for _, m := range missing {
		i, seen := index[m.Handle]
		if !seen {
			_, exists := remoteHandles[m.Handle]
			i = len(groups)
			index[m.Handle] = i
			groups = append(groups, types.MissingProductGroup{
				Handle:          m.Handle,
				Title:           m.ProductName,
				IsNewProduct:    !exists,
				Vendor:          m.Vendor,
				ProductType:     m.ProductType,
				ProductCategory: m.ProductCategory,
				Description:     m.Description,
				SEOTitle:        m.SEOTitle,
				SEODescription:  m.SEODescription,
				Tags:            m.Tags,
				Option1Name:     m.Option1Name,
				Option2Name:     m.Option2Name,
				Option3Name:     m.Option3Name,
			})
		}
		g := &groups[i]
		g.Variants = append(g.Variants, m)
		if _, onClearance := clearanceSet[m.SKU]; onClearance || m.IsClearance {
			g.IsClearance = true
		}
		addGroupImage(g, m)
	}
	return groups
}

// addGroupImage appends the variant's image as a new upload slot unless the
// same source URL is already present.
func addGroupImage(g *types.MissingProductGroup, v types.Product) {
	if v.ImageURL == "" {
		return
	}
	for _, img := range g.Images {
		if img.OriginalSrc == v.ImageURL {
			return
		}
	}
	g.Images = append(g.Images, types.ProductImage{
		OriginalSrc: v.ImageURL,
		AltText:     g.Title,
		GroupID:     fmt.Sprintf("%s-%d", g.Handle, len(g.Images)+1),
	})
}

func productIDFor(sku string, rawBySKU map[string]types.VariantNode) string {
	if node, ok := rawBySKU[sku]; ok && node.Product != nil {
		return node.Product.ID
	}
	return ""
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatCompareAt(v *float64) string {
	if v == nil || *v <= 0 {
		return "Not set"
	}
	return formatAmount(*v)
}
