package shopify

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchVariantsBySKUBatches(t *testing.T) {
	var queries []string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := decodeCall(t, r)
		q, _ := call.Variables["query"].(string)
		queries = append(queries, q)
		switch len(queries) {
		case 1:
			writeData(t, w, `{"productVariants":{"edges":[
				{"node":{"id":"gid://shopify/ProductVariant/1","sku":"A","price":"1.00"}},
				{"node":{"id":"gid://shopify/ProductVariant/2","sku":"B","price":"2.00"}}
			]}}`)
		default:
			writeData(t, w, `{"productVariants":{"edges":[
				{"node":{"id":"gid://shopify/ProductVariant/3","sku":"C","price":"3.00"}}
			]}}`)
		}
	}))

	// Batch size 2 from testClient, so A+B then C; duplicates and blanks drop.
	variants, err := client.FetchVariantsBySKU(context.Background(), []string{"A", "B", "A", "", "C"}, nil)
	require.NoError(t, err)

	require.Len(t, queries, 2)
	assert.Equal(t, `sku:"A" OR sku:"B"`, queries[0])
	assert.Equal(t, `sku:"C"`, queries[1])

	require.Len(t, variants, 3)
	assert.Equal(t, "A", variants[0].SKU)
	assert.Equal(t, "C", variants[2].SKU)
}

func TestFetchVariantsBySKURetriesThrottle(t *testing.T) {
	calls := 0
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Write([]byte(`{"errors":[{"message":"Throttled","extensions":{"code":"THROTTLED"}}]}`))
			return
		}
		writeData(t, w, `{"productVariants":{"edges":[{"node":{"id":"gid://shopify/ProductVariant/1","sku":"A","price":"1.00"}}]}}`)
	}))

	variants, err := client.FetchVariantsBySKU(context.Background(), []string{"A"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, variants, 1)
}

func TestFetchVariantsBySKUGivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"errors":[{"message":"Throttled","extensions":{"code":"THROTTLED"}}]}`))
	}))

	_, err := client.FetchVariantsBySKU(context.Background(), []string{"A"}, nil)
	require.Error(t, err)
	var throttled *ThrottledError
	assert.ErrorAs(t, err, &throttled)
	// MaxAttempts 3 from testClient: initial try plus two backed-off retries.
	assert.Equal(t, 3, calls)
}

func TestFetchVariantsBySKUEmptyInput(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an empty SKU list")
		writeData(t, w, `{}`)
	}))

	variants, err := client.FetchVariantsBySKU(context.Background(), []string{"", "  "}, nil)
	require.NoError(t, err)
	assert.Empty(t, variants)
}

func TestFetchVariantsBySKUProgress(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeData(t, w, `{"productVariants":{"edges":[{"node":{"id":"gid://shopify/ProductVariant/1","sku":"A","price":"1.00"}}]}}`)
	}))

	var events []Progress
	_, err := client.FetchVariantsBySKU(context.Background(), []string{"A", "B", "C"}, func(p Progress) {
		events = append(events, p)
	})
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(events), 4)
	assert.Equal(t, StageStarting, events[0].Stage)
	assert.Equal(t, 3, events[0].Total)
	assert.Equal(t, StageFetching, events[1].Stage)
	assert.Equal(t, StageDone, events[len(events)-1].Stage)
}

func TestSKUQueryEscapesQuotes(t *testing.T) {
	assert.Equal(t, `sku:"plain" OR sku:"12\" pipe"`, skuQuery([]string{"plain", `12" pipe`}))
}

func TestChunk(t *testing.T) {
	tests := []struct {
		name  string
		items []string
		size  int
		want  [][]string
	}{
		{name: "exact multiple", items: []string{"a", "b", "c", "d"}, size: 2, want: [][]string{{"a", "b"}, {"c", "d"}}},
		{name: "remainder", items: []string{"a", "b", "c"}, size: 2, want: [][]string{{"a", "b"}, {"c"}}},
		{name: "single batch", items: []string{"a"}, size: 150, want: [][]string{{"a"}}},
		{name: "empty", items: nil, size: 2, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, chunk(tt.items, tt.size))
		})
	}
}
