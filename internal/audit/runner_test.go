package audit

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kirkidoo/ProductAudit/internal/shopify"
	"github.com/Kirkidoo/ProductAudit/internal/storage"
	"github.com/Kirkidoo/ProductAudit/internal/types"
)

// mockFetcher serves canned variant nodes and counts calls.
type mockFetcher struct {
	nodes            []types.VariantNode
	bulkCalls        int
	skuCalls         int
	lastSKUs         []string
	lastForceRefresh bool
}

func (m *mockFetcher) FetchAllVariants(_ context.Context, forceRefresh bool, _ shopify.ProgressFunc) ([]types.VariantNode, error) {
	m.bulkCalls++
	m.lastForceRefresh = forceRefresh
	return m.nodes, nil
}

func (m *mockFetcher) FetchVariantsBySKU(_ context.Context, skus []string, _ shopify.ProgressFunc) ([]types.VariantNode, error) {
	m.skuCalls++
	m.lastSKUs = skus
	return m.nodes, nil
}

// memStore is an in-memory Store for runner tests.
type memStore struct {
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (s *memStore) Get(_ context.Context, key string) ([]byte, error) {
	raw, ok := s.data[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return raw, nil
}

func (s *memStore) Put(_ context.Context, key string, content []byte) error {
	s.data[key] = content
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	delete(s.data, key)
	return nil
}

func testNode(handle, sku, price string) types.VariantNode {
	return types.VariantNode{
		ID:    "gid://shopify/ProductVariant/" + sku,
		SKU:   sku,
		Price: price,
		Product: &types.ProductNode{
			ID:     "gid://shopify/Product/" + handle,
			Title:  "Widget",
			Handle: handle,
		},
	}
}

func TestRunnerFullCatalogUsesCache(t *testing.T) {
	fetcher := &mockFetcher{nodes: []types.VariantNode{testNode("h1", "S1", "9.99")}}
	cache := newMemStore()
	runner := NewRunner(fetcher, cache, shopify.NormalizeOptions{}, zerolog.Nop(), nil)

	local := []types.Product{{Handle: "h1", SKU: "S1", ProductName: "Widget", Price: 9.99}}

	_, err := runner.Run(context.Background(), local, nil, RunOptions{FullCatalog: true})
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.bulkCalls)
	assert.False(t, fetcher.lastForceRefresh)
	assert.Contains(t, cache.data, CacheKey)

	// Second run reads the cached snapshot instead of refetching.
	_, err = runner.Run(context.Background(), local, nil, RunOptions{FullCatalog: true})
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.bulkCalls)

	// Force refresh bypasses the cache and demands fresh bulk data.
	_, err = runner.Run(context.Background(), local, nil, RunOptions{FullCatalog: true, ForceRefresh: true})
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.bulkCalls)
	assert.True(t, fetcher.lastForceRefresh)
}

func TestRunnerCorruptCacheRefetches(t *testing.T) {
	fetcher := &mockFetcher{nodes: []types.VariantNode{testNode("h1", "S1", "9.99")}}
	cache := newMemStore()
	cache.data[CacheKey] = []byte("{not json")
	runner := NewRunner(fetcher, cache, shopify.NormalizeOptions{}, zerolog.Nop(), nil)

	_, err := runner.Run(context.Background(),
		[]types.Product{{Handle: "h1", SKU: "S1", Price: 9.99}},
		nil, RunOptions{FullCatalog: true})
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.bulkCalls)
}

func TestRunnerPartialAuditFetchesBySKU(t *testing.T) {
	fetcher := &mockFetcher{nodes: []types.VariantNode{testNode("h1", "S1", "10.49")}}
	cache := newMemStore()
	runner := NewRunner(fetcher, cache, shopify.NormalizeOptions{}, zerolog.Nop(), nil)

	local := []types.Product{
		{Handle: "h1", SKU: "S1", ProductName: "Widget", Price: 9.99},
		{Handle: "h2", SKU: "S2", ProductName: "Gadget", Price: 1.00},
	}
	result, err := runner.Run(context.Background(), local, nil, RunOptions{
		FullCatalog: false,
		SourceFiles: []string{"weekly.csv"},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, fetcher.bulkCalls)
	assert.Equal(t, 1, fetcher.skuCalls)
	assert.Equal(t, []string{"S1", "S2"}, fetcher.lastSKUs)
	assert.True(t, result.PartialAudit)
	assert.Equal(t, []string{"weekly.csv"}, result.SourceFiles)

	// The batched strategy never touches the snapshot cache.
	assert.NotContains(t, cache.data, CacheKey)

	require.Len(t, result.Discrepancies, 1)
	assert.Equal(t, types.FieldPrice, result.Discrepancies[0].Field)
}

func TestRunnerInvalidateCache(t *testing.T) {
	cache := newMemStore()
	cache.data[CacheKey] = []byte("[]")
	runner := NewRunner(&mockFetcher{}, cache, shopify.NormalizeOptions{}, zerolog.Nop(), nil)

	require.NoError(t, runner.InvalidateCache(context.Background()))
	assert.NotContains(t, cache.data, CacheKey)
}
