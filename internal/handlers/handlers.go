// Package handlers exposes the audit operations over HTTP.
package handlers

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Kirkidoo/ProductAudit/internal/audit"
	"github.com/Kirkidoo/ProductAudit/internal/shopify"
	"github.com/Kirkidoo/ProductAudit/internal/types"
)

// ShopifyService is the store mutation surface the handlers call.
type ShopifyService interface {
	VerifyCredentials(ctx context.Context) (string, error)
	FixDiscrepancy(ctx context.Context, d types.Discrepancy) error
	CreateProduct(ctx context.Context, g types.MissingProductGroup) (string, error)
	UpdateVariantImages(ctx context.Context, productID string, updates []shopify.VariantImageUpdate) error
	DeleteMedia(ctx context.Context, productID string, mediaIDs []string) error
	UpdateImageAltTexts(ctx context.Context, updates []shopify.AltTextUpdate) error
}

// Handler carries the wired dependencies for all HTTP endpoints.
type Handler struct {
	runner  *audit.Runner
	applier *audit.Applier
	shop    ShopifyService
	session *Session
	log     zerolog.Logger
}

// New builds the handler set.
func New(runner *audit.Runner, applier *audit.Applier, shop ShopifyService, logger zerolog.Logger) *Handler {
	return &Handler{
		runner:  runner,
		applier: applier,
		shop:    shop,
		session: &Session{},
		log:     logger.With().Str("component", "http").Logger(),
	}
}
