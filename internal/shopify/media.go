package shopify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// mediaImageGIDPrefix guards delete calls against non-media ids. The delete
// mutation rejects anything else with an opaque error.
const mediaImageGIDPrefix = "gid://shopify/MediaImage/"

// VariantImageUpdate reassigns one variant to an already-uploaded media
// image.
type VariantImageUpdate struct {
	VariantID string
	MediaID   string
}

// AltTextUpdate sets the alt text of one media image.
type AltTextUpdate struct {
	MediaImageID string
	AltText      string
}

// UpdateVariantImages points variants at different media images of the same
// product in one mutation.
func (c *Client) UpdateVariantImages(ctx context.Context, productID string, updates []VariantImageUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	variants := make([]any, 0, len(updates))
	for _, u := range updates {
		variants = append(variants, map[string]any{
			"id":      u.VariantID,
			"mediaId": u.MediaID,
		})
	}
	resp, err := c.execute(ctx, mutationVariantsBulkUpdate, map[string]any{
		"productId": productID,
		"variants":  variants,
	})
	if err != nil {
		return fmt.Errorf("reassigning variant images: %w", err)
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

// DeleteMedia removes media images from a product. Every id must be a
// MediaImage GID; mixed batches are rejected before any call is made.
func (c *Client) DeleteMedia(ctx context.Context, productID string, mediaIDs []string) error {
	if len(mediaIDs) == 0 {
		return nil
	}
	for _, id := range mediaIDs {
		if !strings.HasPrefix(id, mediaImageGIDPrefix) {
			return fmt.Errorf("refusing to delete %q: not a media image id", id)
		}
	}
	resp, err := c.execute(ctx, mutationProductDeleteMedia, map[string]any{
		"productId": productID,
		"mediaIds":  mediaIDs,
	})
	if err != nil {
		return fmt.Errorf("deleting media: %w", err)
	}
	var payload struct {
		ProductDeleteMedia struct {
			DeletedMediaIDs []string   `json:"deletedMediaIds"`
			UserErrors      UserErrors `json:"userErrors"`
		} `json:"productDeleteMedia"`
	}
	if err := resp.DecodeData(&payload); err != nil {
		return err
	}
	if len(payload.ProductDeleteMedia.UserErrors) > 0 {
		return payload.ProductDeleteMedia.UserErrors
	}
	return nil
}

// UpdateImageAltTexts sets alt text on several media images in one aliased
// mutation.
func (c *Client) UpdateImageAltTexts(ctx context.Context, updates []AltTextUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	resp, err := c.execute(ctx, buildAltTextMutation(updates), nil)
	if err != nil {
		return fmt.Errorf("updating alt texts: %w", err)
	}
	var payload map[string]struct {
		UserErrors UserErrors `json:"userErrors"`
	}
	if err := resp.DecodeData(&payload); err != nil {
		return err
	}
	var all UserErrors
	for _, p := range payload {
		all = append(all, p.UserErrors...)
	}
	if len(all) > 0 {
		return all
	}
	return nil
}

// buildAltTextMutation aliases one fileUpdate per image so a batch of alt
// text edits travels as a single request.
func buildAltTextMutation(updates []AltTextUpdate) string {
	var b strings.Builder
	b.WriteString("mutation {\n")
	for i, u := range updates {
		fmt.Fprintf(&b, "\tu%d: fileUpdate(files: [{id: %s, alt: %s}]) {\n",
			i, strconv.Quote(u.MediaImageID), strconv.Quote(u.AltText))
		b.WriteString("\t\tfiles { id }\n\t\tuserErrors { field message }\n\t}\n")
	}
	b.WriteString("}")
	return b.String()
}
