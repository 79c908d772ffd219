package shopify

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Kirkidoo/ProductAudit/internal/types"
)

// placeholderHost marks feed image URLs that are synthetic placeholders and
// must never be uploaded to the store.
const placeholderHost = "via.placeholder.com"

const querySKUExistence = `
query skuExistence($query: String!, $first: Int!) {
	productVariants(first: $first, query: $query) {
		edges {
			node {
				id
				sku
			}
		}
	}
}`

// CreateProduct creates a product from a missing group: pre-flight SKU
// collision check, productCreate with variants and media, then concurrent
// publication and collection linking. Post-creation failures are logged as
// warnings; the product id is returned once creation itself succeeds.
func (c *Client) CreateProduct(ctx context.Context, group types.MissingProductGroup) (string, error) {
	if len(group.Variants) == 0 {
		return "", fmt.Errorf("group %s has no variants to create", group.Handle)
	}

	skus := make([]string, 0, len(group.Variants))
	for _, v := range group.Variants {
		skus = append(skus, v.SKU)
	}
	if existing, err := c.existingSKUs(ctx, skus); err != nil {
		return "", err
	} else if len(existing) > 0 {
		return "", fmt.Errorf("cannot create %s: SKU(s) already exist in store: %s",
			group.Handle, strings.Join(existing, ", "))
	}

	input, media := buildProductCreateInput(group, c.locationGID)
	resp, err := c.execute(ctx, mutationProductCreate, map[string]any{
		"input": input,
		"media": media,
	})
	if err != nil {
		return "", fmt.Errorf("creating product %s: %w", group.Handle, err)
	}

	var payload struct {
		ProductCreate struct {
			Product *struct {
				ID     string `json:"id"`
				Handle string `json:"handle"`
			} `json:"product"`
			UserErrors UserErrors `json:"userErrors"`
		} `json:"productCreate"`
	}
	if err := resp.DecodeData(&payload); err != nil {
		return "", err
	}
	if len(payload.ProductCreate.UserErrors) > 0 {
		return "", payload.ProductCreate.UserErrors
	}
	if payload.ProductCreate.Product == nil {
		return "", &RequestError{Messages: []string{"productCreate returned no product"}}
	}
	productID := payload.ProductCreate.Product.ID
	c.log.Info().Str("handle", group.Handle).Str("product_id", productID).Msg("product created")

	if err := c.afterCreate(ctx, productID, group); err != nil {
		c.log.Warn().Err(err).Str("handle", group.Handle).Msg("post-creation step failed")
	}
	return productID, nil
}

// afterCreate publishes the product to the configured channels and links it
// to the collection matching its category, concurrently.
func (c *Client) afterCreate(ctx context.Context, productID string, group types.MissingProductGroup) error {
	g, ctx := errgroup.WithContext(ctx)

	if len(c.publicationIDs) > 0 {
		g.Go(func() error {
			return c.publish(ctx, productID)
		})
	}

	collectionTitle := group.ProductCategory
	if collectionTitle == "" {
		collectionTitle = group.ProductType
	}
	if collectionTitle != "" {
		title := collectionTitle
		g.Go(func() error {
			return c.linkToCollection(ctx, productID, title)
		})
	}
	return g.Wait()
}

func (c *Client) existingSKUs(ctx context.Context, skus []string) ([]string, error) {
	unique := dedupe(skus)
	if len(unique) == 0 {
		return nil, nil
	}
	var found []string
	for _, batch := range chunk(unique, c.batchSize) {
		resp, err := c.execute(ctx, querySKUExistence, map[string]any{
			"query": skuQuery(batch),
			"first": len(batch),
		})
		if err != nil {
			return nil, fmt.Errorf("checking existing SKUs: %w", err)
		}
		var payload struct {
			ProductVariants struct {
				Edges []struct {
					Node struct {
						SKU string `json:"sku"`
					} `json:"node"`
				} `json:"edges"`
			} `json:"productVariants"`
		}
		if err := resp.DecodeData(&payload); err != nil {
			return nil, err
		}
		for _, edge := range payload.ProductVariants.Edges {
			found = append(found, edge.Node.SKU)
		}
	}
	return found, nil
}

func (c *Client) publish(ctx context.Context, productID string) error {
	input := make([]any, 0, len(c.publicationIDs))
	for _, pub := range c.publicationIDs {
		input = append(input, map[string]any{"publicationId": pub})
	}
	resp, err := c.execute(ctx, mutationPublishablePublish, map[string]any{
		"id":    productID,
		"input": input,
	})
	if err != nil {
		return fmt.Errorf("publishing product: %w", err)
	}
	var payload struct {
		PublishablePublish struct {
			UserErrors UserErrors `json:"userErrors"`
		} `json:"publishablePublish"`
	}
	if err := resp.DecodeData(&payload); err != nil {
		return err
	}
	if len(payload.PublishablePublish.UserErrors) > 0 {
		return payload.PublishablePublish.UserErrors
	}
	return nil
}

// linkToCollection adds the product to the collection whose title matches.
// No matching collection is not an error.
func (c *Client) linkToCollection(ctx context.Context, productID, title string) error {
	escaped := strings.ReplaceAll(title, `"`, `\"`)
	resp, err := c.execute(ctx, queryCollectionByTitle, map[string]any{
		"query": `title:"` + escaped + `"`,
	})
	if err != nil {
		return fmt.Errorf("looking up collection %q: %w", title, err)
	}
	var payload struct {
		Collections struct {
			Edges []struct {
				Node struct {
					ID    string `json:"id"`
					Title string `json:"title"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"collections"`
	}
	if err := resp.DecodeData(&payload); err != nil {
		return err
	}
	if len(payload.Collections.Edges) == 0 {
		c.log.Debug().Str("title", title).Msg("no collection matches, skipping link")
		return nil
	}
	collectionID := payload.Collections.Edges[0].Node.ID

	resp, err = c.execute(ctx, mutationCollectionAddProducts, map[string]any{
		"id":         collectionID,
		"productIds": []string{productID},
	})
	if err != nil {
		return fmt.Errorf("adding product to collection %q: %w", title, err)
	}
	var addPayload struct {
		CollectionAddProducts struct {
			UserErrors UserErrors `json:"userErrors"`
		} `json:"collectionAddProducts"`
	}
	if err := resp.DecodeData(&addPayload); err != nil {
		return err
	}
	if len(addPayload.CollectionAddProducts.UserErrors) > 0 {
		return addPayload.CollectionAddProducts.UserErrors
	}
	return nil
}

// buildProductCreateInput assembles the ProductInput and media list for a
// missing group. Placeholder images are dropped; images sharing a group id
// collapse into one upload.
func buildProductCreateInput(group types.MissingProductGroup, locationGID string) (map[string]any, []any) {
	tags := append([]string(nil), group.Tags...)
	if group.IsClearance && !HasClearanceTag(tags) {
		tags = append(tags, ClearanceTag)
	}

	input := map[string]any{
		"title":  group.Title,
		"handle": group.Handle,
		"status": "DRAFT",
	}
	if group.Vendor != "" {
		input["vendor"] = group.Vendor
	}
	if group.ProductType != "" {
		input["productType"] = group.ProductType
	}
	if group.Description != "" {
		input["descriptionHtml"] = group.Description
	}
	if len(tags) > 0 {
		input["tags"] = tags
	}
	if group.SEOTitle != "" || group.SEODescription != "" {
		seo := map[string]any{}
		if group.SEOTitle != "" {
			seo["title"] = group.SEOTitle
		}
		if group.SEODescription != "" {
			seo["description"] = group.SEODescription
		}
		input["seo"] = seo
	}

	optionNames := productOptionNames(group)
	if len(optionNames) > 0 {
		input["options"] = optionNames
	}

	variants := make([]any, 0, len(group.Variants))
	for _, v := range group.Variants {
		variants = append(variants, buildVariantInput(v, optionNames, locationGID))
	}
	input["variants"] = variants

	return input, buildMediaInput(group.Images)
}

// productOptionNames returns the option names in slot order, dropping the
// single implicit "Title" option.
func productOptionNames(group types.MissingProductGroup) []string {
	names := make([]string, 0, 3)
	for _, n := range []string{group.Option1Name, group.Option2Name, group.Option3Name} {
		if n != "" {
			names = append(names, n)
		}
	}
	if len(names) == 1 && strings.EqualFold(names[0], "Title") {
		return nil
	}
	return names
}

func buildVariantInput(v types.Product, optionNames []string, locationGID string) map[string]any {
	variant := map[string]any{
		"sku":   v.SKU,
		"price": formatPrice(v.Price),
	}
	if len(optionNames) > 0 {
		values := make([]string, 0, len(optionNames))
		for i, val := range []string{v.Option1Value, v.Option2Value, v.Option3Value} {
			if i >= len(optionNames) {
				break
			}
			if val == "" {
				val = "Default Title"
			}
			values = append(values, val)
		}
		variant["options"] = values
	}
	if v.CompareAtPrice != nil && *v.CompareAtPrice > 0 {
		variant["compareAtPrice"] = formatPrice(*v.CompareAtPrice)
	}
	if v.Barcode != "" {
		variant["barcode"] = v.Barcode
	}
	if v.VariantGrams != nil {
		variant["weight"] = *v.VariantGrams
		variant["weightUnit"] = weightUnit(v.VariantWeightUnit)
	}

	inventoryItem := map[string]any{"tracked": true}
	if v.CostPerItem != nil {
		inventoryItem["cost"] = *v.CostPerItem
	}
	variant["inventoryItem"] = inventoryItem

	if locationGID != "" {
		variant["inventoryQuantities"] = []any{
			map[string]any{
				"availableQuantity": v.StockQuantity,
				"locationId":        locationGID,
			},
		}
	}
	return variant
}

func buildMediaInput(images []types.ProductImage) []any {
	seen := make(map[string]struct{}, len(images))
	media := make([]any, 0, len(images))
	for _, img := range images {
		if img.OriginalSrc == "" || strings.Contains(img.OriginalSrc, placeholderHost) {
			continue
		}
		key := img.GroupID
		if key == "" {
			key = img.OriginalSrc
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		m := map[string]any{
			"originalSource":   img.OriginalSrc,
			"mediaContentType": "IMAGE",
		}
		if img.AltText != "" {
			m["alt"] = img.AltText
		}
		media = append(media, m)
	}
	return media
}

// weightUnit maps a feed weight unit to the API enum, defaulting to grams.
func weightUnit(unit string) string {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "kg", "kilograms":
		return "KILOGRAMS"
	case "lb", "lbs", "pounds":
		return "POUNDS"
	case "oz", "ounces":
		return "OUNCES"
	default:
		return "GRAMS"
	}
}
