package shopify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Kirkidoo/ProductAudit/internal/shopify/ratelimit"
	"github.com/Kirkidoo/ProductAudit/internal/types"
)

// FetchVariantsBySKU looks up only the given SKUs, in batches, pacing each
// call by the reported query cost and retrying throttle rejections with
// exponential backoff. Unknown SKUs simply produce no nodes.
func (c *Client) FetchVariantsBySKU(ctx context.Context, skus []string, onProgress ProgressFunc) ([]types.VariantNode, error) {
	if c.batchDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.batchDeadline)
		defer cancel()
	}

	unique := dedupe(skus)
	if len(unique) == 0 {
		return []types.VariantNode{}, nil
	}

	batches := chunk(unique, c.batchSize)
	emit(onProgress, Progress{
		Stage:   StageStarting,
		Message: fmt.Sprintf("Fetching %d SKUs in %d batches...", len(unique), len(batches)),
		Total:   len(unique),
	})

	var variants []types.VariantNode
	for i, batch := range batches {
		resp, err := c.fetchBatch(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("fetching batch %d/%d: %w", i+1, len(batches), err)
		}

		var payload struct {
			ProductVariants struct {
				Edges []struct {
					Node types.VariantNode `json:"node"`
				} `json:"edges"`
			} `json:"productVariants"`
		}
		if err := resp.DecodeData(&payload); err != nil {
			return nil, err
		}
		for _, edge := range payload.ProductVariants.Edges {
			variants = append(variants, edge.Node)
		}

		emit(onProgress, Progress{
			Stage:   StageFetching,
			Message: fmt.Sprintf("Fetched batch %d of %d...", i+1, len(batches)),
			Fetched: len(variants),
			Total:   len(unique),
		})

		if i < len(batches)-1 {
			if err := sleepCtx(ctx, ratelimit.PacingDelay(resp.Cost(), c.pacingBuffer)); err != nil {
				return nil, err
			}
		}
	}

	emit(onProgress, Progress{
		Stage:   StageDone,
		Message: fmt.Sprintf("Fetched %d variants.", len(variants)),
		Fetched: len(variants),
		Total:   len(unique),
	})
	return variants, nil
}

// fetchBatch runs one SKU batch, retrying throttle rejections under the
// client's retry policy. Non-throttle errors abort immediately.
func (c *Client) fetchBatch(ctx context.Context, skus []string) (*Response, error) {
	variables := map[string]any{
		"query": skuQuery(skus),
		"first": len(skus),
	}

	attempt := 0
	for {
		resp, err := c.execute(ctx, queryVariantsBySKU, variables)
		if err == nil {
			return resp, nil
		}
		var throttled *ThrottledError
		if !errors.As(err, &throttled) {
			return nil, err
		}

		attempt++
		delay, ok := c.retry.NextDelay(attempt)
		if !ok {
			return nil, fmt.Errorf("giving up after %d throttled attempts: %w", attempt, err)
		}
		c.log.Warn().Int("attempt", attempt).Dur("backoff", delay).Msg("throttled, backing off")
		if err := sleepCtx(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// skuQuery builds the search expression for a batch: sku:"A" OR sku:"B".
func skuQuery(skus []string) string {
	terms := make([]string, 0, len(skus))
	for _, s := range skus {
		escaped := strings.ReplaceAll(s, `"`, `\"`)
		terms = append(terms, `sku:"`+escaped+`"`)
	}
	return strings.Join(terms, " OR ")
}

func dedupe(skus []string) []string {
	seen := make(map[string]struct{}, len(skus))
	out := make([]string, 0, len(skus))
	for _, s := range skus {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func chunk(items []string, size int) [][]string {
	var out [][]string
	for len(items) > size {
		out = append(out, items[:size])
		items = items[size:]
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}
