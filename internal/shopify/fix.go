package shopify

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Kirkidoo/ProductAudit/internal/types"
)

// ErrManualFix marks discrepancy kinds that have no safe automated mutation.
var ErrManualFix = errors.New("shopify: discrepancy must be resolved manually")

var (
	h1OpenRe  = regexp.MustCompile(`(?i)<h1\b`)
	h1CloseRe = regexp.MustCompile(`(?i)</h1\s*>`)
)

// FixDiscrepancy applies the mutation correcting one discrepancy. Dispatch
// covers every field kind; an unknown kind is an error, not a no-op.
func (c *Client) FixDiscrepancy(ctx context.Context, d types.Discrepancy) error {
	c.log.Info().
		Str("sku", d.SKU).
		Str("field", string(d.Field)).
		Msg("applying fix")

	if d.Field.ProductLevel() && d.ProductID == "" {
		return fmt.Errorf("%s fix for %s has no product id", d.Field, d.SKU)
	}

	switch d.Field {
	case types.FieldPrice:
		if d.TargetPrice == nil {
			return fmt.Errorf("price fix for %s has no target price", d.SKU)
		}
		return c.updateVariant(ctx, d.ProductID, map[string]any{
			"id":    d.VariantID,
			"price": formatPrice(*d.TargetPrice),
		})

	case types.FieldComparePriceIssue:
		// A missing or non-positive target clears the compare-at price.
		var compareAt any
		if d.TargetPrice != nil && *d.TargetPrice > 0 {
			compareAt = formatPrice(*d.TargetPrice)
		}
		return c.updateVariant(ctx, d.ProductID, map[string]any{
			"id":             d.VariantID,
			"compareAtPrice": compareAt,
		})

	case types.FieldH1InDescription:
		return c.demoteH1Headings(ctx, d.ProductID)

	case types.FieldMissingClearanceTag:
		return c.setClearanceTag(ctx, d.ProductID, true)

	case types.FieldUnexpectedClearance:
		return c.setClearanceTag(ctx, d.ProductID, false)

	case types.FieldDuplicateSKU:
		return fmt.Errorf("duplicate SKU %s: %w", d.SKU, ErrManualFix)

	default:
		return fmt.Errorf("unknown discrepancy field %q", d.Field)
	}
}

// demoteH1Headings rewrites every h1 element in the product description to
// h2, preserving attributes.
func (c *Client) demoteH1Headings(ctx context.Context, productID string) error {
	desc, _, err := c.fetchProductDetails(ctx, productID)
	if err != nil {
		return err
	}
	updated := h1OpenRe.ReplaceAllString(desc, "<h2")
	updated = h1CloseRe.ReplaceAllString(updated, "</h2>")
	if updated == desc {
		return nil
	}
	return c.productUpdate(ctx, map[string]any{
		"id":              productID,
		"descriptionHtml": updated,
	})
}

// setClearanceTag adds or removes the clearance tag on a product. Already
// consistent state is a no-op.
func (c *Client) setClearanceTag(ctx context.Context, productID string, want bool) error {
	_, tags, err := c.fetchProductDetails(ctx, productID)
	if err != nil {
		return err
	}

	if want {
		if HasClearanceTag(tags) {
			return nil
		}
		tags = append(tags, ClearanceTag)
	} else {
		kept := tags[:0]
		for _, t := range tags {
			if !strings.EqualFold(strings.TrimSpace(t), ClearanceTag) {
				kept = append(kept, t)
			}
		}
		if len(kept) == len(tags) {
			return nil
		}
		tags = kept
	}

	return c.productUpdate(ctx, map[string]any{
		"id":   productID,
		"tags": tags,
	})
}

func (c *Client) fetchProductDetails(ctx context.Context, productID string) (string, []string, error) {
	if productID == "" {
		return "", nil, fmt.Errorf("fix requires a product id")
	}
	resp, err := c.execute(ctx, queryProductDetails, map[string]any{"id": productID})
	if err != nil {
		return "", nil, fmt.Errorf("fetching product %s: %w", productID, err)
	}
	var payload struct {
		Product *struct {
			ID              string   `json:"id"`
			DescriptionHTML string   `json:"descriptionHtml"`
			Tags            []string `json:"tags"`
		} `json:"product"`
	}
	if err := resp.DecodeData(&payload); err != nil {
		return "", nil, err
	}
	if payload.Product == nil {
		return "", nil, &RequestError{Messages: []string{"product " + productID + " not found"}}
	}
	return payload.Product.DescriptionHTML, payload.Product.Tags, nil
}

func (c *Client) productUpdate(ctx context.Context, input map[string]any) error {
	resp, err := c.execute(ctx, mutationProductUpdate, map[string]any{"input": input})
	if err != nil {
		return fmt.Errorf("updating product: %w", err)
	}
	var payload struct {
		ProductUpdate struct {
			UserErrors UserErrors `json:"userErrors"`
		} `json:"productUpdate"`
	}
	if err := resp.DecodeData(&payload); err != nil {
		return err
	}
	if len(payload.ProductUpdate.UserErrors) > 0 {
		return payload.ProductUpdate.UserErrors
	}
	return nil
}

func (c *Client) updateVariant(ctx context.Context, productID string, variant map[string]any) error {
	if productID == "" {
		return fmt.Errorf("variant update requires a product id")
	}
	resp, err := c.execute(ctx, mutationVariantsBulkUpdate, map[string]any{
		"productId": productID,
		"variants":  []any{variant},
	})
	if err != nil {
		return fmt.Errorf("updating variant: %w", err)
	}
	var payload struct {
		ProductVariantsBulkUpdate struct {
			UserErrors UserErrors `json:"userErrors"`
		} `json:"productVariantsBulkUpdate"`
	}
	if err := resp.DecodeData(&payload); err != nil {
		return err
	}
	if len(payload.ProductVariantsBulkUpdate.UserErrors) > 0 {
		return payload.ProductVariantsBulkUpdate.UserErrors
	}
	return nil
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
