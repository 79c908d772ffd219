package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Kirkidoo/ProductAudit/internal/shopify"
	"github.com/Kirkidoo/ProductAudit/internal/storage"
	"github.com/Kirkidoo/ProductAudit/internal/types"
)

// CacheKey is the single slot holding the last full catalog snapshot.
const CacheKey = "shopify_product_data"

// fullExportMarker in a source filename selects the full-catalog strategy.
const fullExportMarker = "shopifyproductimport.csv"

// Fetcher is the remote snapshot surface the runner depends on.
type Fetcher interface {
	FetchAllVariants(ctx context.Context, forceRefresh bool, onProgress shopify.ProgressFunc) ([]types.VariantNode, error)
	FetchVariantsBySKU(ctx context.Context, skus []string, onProgress shopify.ProgressFunc) ([]types.VariantNode, error)
}

// Runner executes audits: fetch (or reuse) a store snapshot, normalize it,
// and reconcile it against the feed.
type Runner struct {
	fetcher   Fetcher
	cache     storage.Store
	normalize shopify.NormalizeOptions
	log       zerolog.Logger
	metrics   *Metrics
	tracer    trace.Tracer
}

// NewRunner wires the audit runner. metrics may be nil.
func NewRunner(fetcher Fetcher, cache storage.Store, normalize shopify.NormalizeOptions, logger zerolog.Logger, metrics *Metrics) *Runner {
	return &Runner{
		fetcher:   fetcher,
		cache:     cache,
		normalize: normalize,
		log:       logger.With().Str("component", "audit").Logger(),
		metrics:   metrics,
		tracer:    otel.Tracer("productaudit/audit"),
	}
}

// RunOptions control one audit execution.
type RunOptions struct {
	// ForceRefresh bypasses the snapshot cache on full-catalog audits.
	ForceRefresh bool

	// FullCatalog selects the bulk snapshot strategy; false selects the
	// batched SKU lookup and marks the result as a partial audit.
	FullCatalog bool

	SourceFiles []string
	OnProgress  shopify.ProgressFunc
}

// Run executes one reconciliation pass.
func (r *Runner) Run(ctx context.Context, local []types.Product, clearanceSKUs []string, opts RunOptions) (*types.AuditResult, error) {
	ctx, span := r.tracer.Start(ctx, "audit.run", trace.WithAttributes(
		attribute.Bool("full_catalog", opts.FullCatalog),
		attribute.Int("feed_records", len(local)),
	))
	defer span.End()
	start := time.Now()

	nodes, err := r.fetchSnapshot(ctx, local, opts)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("audit failed: %w", err)
	}

	remote, rawBySKU := shopify.Normalize(nodes, r.normalize)
	result := Reconcile(local, remote, rawBySKU, clearanceSKUs, opts.FullCatalog)
	result.SourceFiles = opts.SourceFiles

	if r.metrics != nil {
		r.metrics.ObserveAudit(opts.FullCatalog, time.Since(start), result)
	}
	span.SetAttributes(
		attribute.Int("remote_variants", len(remote)),
		attribute.Int("discrepancies", len(result.Discrepancies)),
		attribute.Int("missing_groups", len(result.MissingProductGroups)),
	)
	r.log.Info().
		Bool("full_catalog", opts.FullCatalog).
		Int("feed_records", len(local)).
		Int("remote_variants", len(remote)).
		Int("discrepancies", len(result.Discrepancies)).
		Int("missing_groups", len(result.MissingProductGroups)).
		Dur("took", time.Since(start)).
		Msg("audit complete")
	return result, nil
}

// fetchSnapshot returns raw variant nodes via the strategy the options
// select. Full-catalog audits read through the single-slot cache.
func (r *Runner) fetchSnapshot(ctx context.Context, local []types.Product, opts RunOptions) ([]types.VariantNode, error) {
	if !opts.FullCatalog {
		skus := make([]string, 0, len(local))
		for _, p := range local {
			if p.SKU != "" {
				skus = append(skus, p.SKU)
			}
		}
		return r.fetcher.FetchVariantsBySKU(ctx, skus, opts.OnProgress)
	}

	if !opts.ForceRefresh {
		if nodes, ok := r.cachedSnapshot(ctx); ok {
			return nodes, nil
		}
	}

	nodes, err := r.fetcher.FetchAllVariants(ctx, opts.ForceRefresh, opts.OnProgress)
	if err != nil {
		return nil, err
	}
	r.storeSnapshot(ctx, nodes)
	return nodes, nil
}

func (r *Runner) cachedSnapshot(ctx context.Context) ([]types.VariantNode, bool) {
	raw, err := r.cache.Get(ctx, CacheKey)
	if err != nil {
		if err != storage.ErrNotFound {
			r.log.Warn().Err(err).Msg("snapshot cache read failed, refetching")
		}
		return nil, false
	}
	var nodes []types.VariantNode
	if err := json.Unmarshal(raw, &nodes); err != nil {
		r.log.Warn().Err(err).Msg("snapshot cache corrupt, refetching")
		return nil, false
	}
	r.log.Info().Int("variants", len(nodes)).Msg("using cached snapshot")
	return nodes, true
}

// storeSnapshot overwrites the cache slot. A write failure only costs the
// next audit a refetch, so it is logged and swallowed.
func (r *Runner) storeSnapshot(ctx context.Context, nodes []types.VariantNode) {
	raw, err := json.Marshal(nodes)
	if err != nil {
		r.log.Warn().Err(err).Msg("snapshot not cacheable")
		return
	}
	if err := r.cache.Put(ctx, CacheKey, raw); err != nil {
		r.log.Warn().Err(err).Msg("snapshot cache write failed")
	}
}

// InvalidateCache drops the stored snapshot. Called when a new session
// starts or after media edits that change what the snapshot captured.
func (r *Runner) InvalidateCache(ctx context.Context) error {
	return r.cache.Delete(ctx, CacheKey)
}

// SourceSignals derives the only two signals a feed filename carries:
// whether it is a clearance source and whether it is the full catalog
// export.
func SourceSignals(filename string) (isClearance, isFullExport bool) {
	lower := strings.ToLower(filename)
	return strings.Contains(lower, "clearance"), strings.Contains(lower, fullExportMarker)
}
