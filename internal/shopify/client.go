// Package shopify implements the Admin GraphQL API client: catalog snapshot
// fetching (bulk operation and batched SKU lookup), discrepancy fixes,
// product creation, and media maintenance.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Kirkidoo/ProductAudit/config"
	"github.com/Kirkidoo/ProductAudit/internal/shopify/ratelimit"
)

// Client talks to the Admin GraphQL API of a single store.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
	log      zerolog.Logger

	retry        ratelimit.Policy
	pacingBuffer time.Duration

	locationGID      string
	locationLegacyID string
	publicationIDs   []string

	pollInterval  time.Duration
	pollDeadline  time.Duration
	batchSize     int
	batchDeadline time.Duration
}

// Option overrides a Client default. Used by tests to point the client at a
// local fake.
type Option func(*Client)

// WithEndpoint replaces the derived Admin API URL.
func WithEndpoint(url string) Option {
	return func(c *Client) { c.endpoint = url }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient builds a client from configuration.
func NewClient(cfg config.ShopifyConfig, rl config.RateLimitConfig, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		endpoint: fmt.Sprintf("https://%s.myshopify.com/admin/api/%s/graphql.json", cfg.StoreName, cfg.APIVersion),
		token:    cfg.AccessToken,
		http:     &http.Client{Timeout: 60 * time.Second},
		log:      logger.With().Str("component", "shopify").Logger(),

		retry: ratelimit.Policy{
			MaxAttempts:    rl.MaxAttempts,
			InitialBackoff: time.Duration(rl.InitialBackoffMs) * time.Millisecond,
		},
		pacingBuffer: time.Duration(rl.PacingBufferMs) * time.Millisecond,

		locationGID:      cfg.LocationGID,
		locationLegacyID: cfg.LocationLegacyID,
		publicationIDs:   cfg.PublicationIDs,

		pollInterval:  cfg.PollInterval,
		pollDeadline:  cfg.PollDeadline,
		batchSize:     cfg.BatchSize,
		batchDeadline: cfg.BatchDeadline,
	}
	if c.retry.MaxAttempts <= 0 {
		c.retry = ratelimit.Default()
	}
	if c.pacingBuffer <= 0 {
		c.pacingBuffer = 250 * time.Millisecond
	}
	if c.pollInterval <= 0 {
		c.pollInterval = 3 * time.Second
	}
	if c.batchSize <= 0 {
		c.batchSize = 150
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type responseError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

type responseExtensions struct {
	Cost *ratelimit.Cost `json:"cost"`
}

// Response is one decoded GraphQL response envelope.
type Response struct {
	Data       json.RawMessage     `json:"data"`
	Errors     []responseError     `json:"errors"`
	Extensions *responseExtensions `json:"extensions"`
}

// Cost returns the cost extension, or nil when the API omitted it.
func (r *Response) Cost() *ratelimit.Cost {
	if r.Extensions == nil {
		return nil
	}
	return r.Extensions.Cost
}

// DecodeData unmarshals the data payload into v.
func (r *Response) DecodeData(v any) error {
	if len(r.Data) == 0 {
		return &RequestError{Messages: []string{"response carried no data"}}
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("decoding response data: %w", err)
	}
	return nil
}

// execute runs one GraphQL request. Throttle rejections surface as
// *ThrottledError; other GraphQL errors as *RequestError.
func (c *Client) execute(ctx context.Context, query string, variables map[string]any) (*Response, error) {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{Status: resp.StatusCode, Body: string(raw)}
	}

	var decoded Response
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &TransportError{Status: resp.StatusCode, Body: string(raw), Err: err}
	}

	if len(decoded.Errors) > 0 {
		messages := make([]string, 0, len(decoded.Errors))
		for _, e := range decoded.Errors {
			if e.Extensions.Code == "THROTTLED" || strings.Contains(e.Message, "Throttled") {
				return nil, &ThrottledError{Message: e.Message}
			}
			messages = append(messages, e.Message)
		}
		return nil, &RequestError{Messages: messages}
	}
	return &decoded, nil
}

// sleepCtx waits for d or until the context is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// VerifyCredentials checks store name and token by fetching the shop name.
func (c *Client) VerifyCredentials(ctx context.Context) (string, error) {
	resp, err := c.execute(ctx, queryShopName, nil)
	if err != nil {
		return "", fmt.Errorf("verifying credentials: %w", err)
	}
	var payload struct {
		Shop struct {
			Name string `json:"name"`
		} `json:"shop"`
	}
	if err := resp.DecodeData(&payload); err != nil {
		return "", err
	}
	if payload.Shop.Name == "" {
		return "", &RequestError{Messages: []string{"shop query returned no name"}}
	}
	return payload.Shop.Name, nil
}
