package shopify

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kirkidoo/ProductAudit/internal/types"
)

func missingGroupFixture() types.MissingProductGroup {
	return types.MissingProductGroup{
		Handle:      "blue-widget",
		Title:       "Blue Widget",
		Vendor:      "Acme",
		ProductType: "Widgets",
		Description: "<p>A widget.</p>",
		Tags:        []string{"New"},
		Option1Name: "Size",
		Variants: []types.Product{
			{
				Handle:        "blue-widget",
				SKU:           "BW-S",
				ProductName:   "Blue Widget",
				Price:         9.99,
				StockQuantity: 5,
				Option1Value:  "Small",
			},
			{
				Handle:        "blue-widget",
				SKU:           "BW-L",
				ProductName:   "Blue Widget",
				Price:         12.99,
				StockQuantity: 2,
				Option1Value:  "Large",
			},
		},
		Images: []types.ProductImage{
			{OriginalSrc: "https://cdn.example.com/widget.jpg", AltText: "Blue Widget", GroupID: "blue-widget-1"},
			{OriginalSrc: "https://cdn.example.com/widget-dup.jpg", GroupID: "blue-widget-1"},
			{OriginalSrc: "https://via.placeholder.com/150", GroupID: "blue-widget-2"},
		},
	}
}

func TestCreateProduct(t *testing.T) {
	var createCall graphqlCall
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := decodeCall(t, r)
		switch {
		case strings.Contains(call.Query, "skuExistence"):
			writeData(t, w, `{"productVariants":{"edges":[]}}`)
		case strings.Contains(call.Query, "productCreate"):
			createCall = call
			writeData(t, w, `{"productCreate":{"product":{"id":"gid://shopify/Product/42","handle":"blue-widget"},"userErrors":[]}}`)
		case strings.Contains(call.Query, "collections"):
			// No collection matches the product type; linking is skipped.
			writeData(t, w, `{"collections":{"edges":[]}}`)
		default:
			t.Errorf("unexpected query: %s", call.Query)
			writeData(t, w, `{}`)
		}
	}))

	id, err := client.CreateProduct(context.Background(), missingGroupFixture())
	require.NoError(t, err)
	assert.Equal(t, "gid://shopify/Product/42", id)

	input := createCall.Variables["input"].(map[string]any)
	assert.Equal(t, "Blue Widget", input["title"])
	assert.Equal(t, "blue-widget", input["handle"])
	assert.Equal(t, "DRAFT", input["status"])
	assert.Equal(t, "Acme", input["vendor"])
	assert.Equal(t, []any{"Size"}, input["options"])

	variants := input["variants"].([]any)
	require.Len(t, variants, 2)
	small := variants[0].(map[string]any)
	assert.Equal(t, "BW-S", small["sku"])
	assert.Equal(t, "9.99", small["price"])
	assert.Equal(t, []any{"Small"}, small["options"])
	item := small["inventoryItem"].(map[string]any)
	assert.Equal(t, true, item["tracked"])
	quantities := small["inventoryQuantities"].([]any)
	require.Len(t, quantities, 1)
	assert.Equal(t, "gid://shopify/Location/1", quantities[0].(map[string]any)["locationId"])

	// Placeholder dropped, duplicate group collapsed: one media entry.
	media := createCall.Variables["media"].([]any)
	require.Len(t, media, 1)
	assert.Equal(t, "https://cdn.example.com/widget.jpg", media[0].(map[string]any)["originalSource"])
}

func TestCreateProductSKUConflict(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := decodeCall(t, r)
		if strings.Contains(call.Query, "skuExistence") {
			writeData(t, w, `{"productVariants":{"edges":[{"node":{"id":"gid://shopify/ProductVariant/1","sku":"BW-S"}}]}}`)
			return
		}
		t.Error("creation must not run when SKUs already exist")
		writeData(t, w, `{}`)
	}))

	_, err := client.CreateProduct(context.Background(), missingGroupFixture())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BW-S")
	assert.Contains(t, err.Error(), "already exist")
}

func TestCreateProductUserErrors(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := decodeCall(t, r)
		if strings.Contains(call.Query, "skuExistence") {
			writeData(t, w, `{"productVariants":{"edges":[]}}`)
			return
		}
		writeData(t, w, `{"productCreate":{"product":null,"userErrors":[{"field":["input","handle"],"message":"Handle has already been taken"}]}}`)
	}))

	_, err := client.CreateProduct(context.Background(), missingGroupFixture())
	var userErrs UserErrors
	require.ErrorAs(t, err, &userErrs)
	assert.Contains(t, userErrs.Error(), "Handle has already been taken")
}

func TestCreateProductEmptyGroup(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
		writeData(t, w, `{}`)
	}))

	_, err := client.CreateProduct(context.Background(), types.MissingProductGroup{Handle: "empty"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no variants")
}

func TestCreateProductPostCreationFailureIsNotFatal(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := decodeCall(t, r)
		switch {
		case strings.Contains(call.Query, "skuExistence"):
			writeData(t, w, `{"productVariants":{"edges":[]}}`)
		case strings.Contains(call.Query, "productCreate"):
			writeData(t, w, `{"productCreate":{"product":{"id":"gid://shopify/Product/42","handle":"blue-widget"},"userErrors":[]}}`)
		case strings.Contains(call.Query, "collections"):
			w.Write([]byte(`{"errors":[{"message":"boom"}]}`))
		default:
			t.Errorf("unexpected query: %s", call.Query)
			writeData(t, w, `{}`)
		}
	}))

	// Collection lookup blows up, but the product was created.
	id, err := client.CreateProduct(context.Background(), missingGroupFixture())
	require.NoError(t, err)
	assert.Equal(t, "gid://shopify/Product/42", id)
}

func TestBuildProductCreateInputClearanceTag(t *testing.T) {
	group := missingGroupFixture()
	group.IsClearance = true

	input, _ := buildProductCreateInput(group, "")
	assert.Equal(t, []string{"New", "Clearance"}, input["tags"])

	// Already tagged: no duplicate.
	group.Tags = []string{"clearance"}
	input, _ = buildProductCreateInput(group, "")
	assert.Equal(t, []string{"clearance"}, input["tags"])
}

func TestProductOptionNames(t *testing.T) {
	tests := []struct {
		name  string
		group types.MissingProductGroup
		want  []string
	}{
		{
			name:  "two options",
			group: types.MissingProductGroup{Option1Name: "Size", Option2Name: "Color"},
			want:  []string{"Size", "Color"},
		},
		{
			name:  "lone Title is implicit",
			group: types.MissingProductGroup{Option1Name: "Title"},
			want:  nil,
		},
		{
			name:  "no options",
			group: types.MissingProductGroup{},
			want:  []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, productOptionNames(tt.group))
		})
	}
}

func TestWeightUnit(t *testing.T) {
	assert.Equal(t, "KILOGRAMS", weightUnit("kg"))
	assert.Equal(t, "POUNDS", weightUnit(" LB "))
	assert.Equal(t, "OUNCES", weightUnit("oz"))
	assert.Equal(t, "GRAMS", weightUnit(""))
	assert.Equal(t, "GRAMS", weightUnit("stone"))
}
