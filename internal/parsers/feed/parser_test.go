package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected rune
	}{
		{"Commas only", "Handle,SKU,Title,Price,Stock,Image", DelimiterComma},
		{"Tabs only", "Handle\tSKU\tTitle\tPrice\tStock\tImage", DelimiterTab},
		{"Tie prefers comma", "a,b\tc,d\te,f\tg", DelimiterComma},
		{"More tabs than commas", "a\tb\tc\td,e", DelimiterTab},
		{"No candidates", "Handle", DelimiterComma},
		{"Only first line counts", "a,b,c\nx\ty\tz\tw\tq\tr", DelimiterComma},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectDelimiter(tt.header))
		})
	}
}

func TestParseQuotedFields(t *testing.T) {
	input := "Handle,SKU,Title,Price,Stock\n" +
		`h1,S1,"1,000 ""units""",9.99,5` + "\n"

	result, err := Parse(input, false)
	require.NoError(t, err)
	require.Len(t, result.Products, 1)

	p := result.Products[0]
	assert.Equal(t, `1,000 "units"`, p.ProductName)
	assert.Empty(t, result.Rows[0].Warning)
}

func TestParseEmbeddedNewline(t *testing.T) {
	input := "Handle,SKU,Title,Price,Stock,Body (HTML)\n" +
		"h1,S1,Widget,9.99,5,\"line one\nline two\"\n"

	result, err := Parse(input, false)
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "line one\nline two", result.Products[0].Description)
}

func TestParseHeaderAliases(t *testing.T) {
	// Every alias set resolves to the same logical field.
	inputs := []string{
		"Handle,SKU,Title,Price,Stock\nh1,S1,Widget,9.99,5\n",
		"handle,Variant SKU,Product Name,Variant Price,Variant Inventory Qty\nh1,S1,Widget,9.99,5\n",
		"HANDLE,sku,title,price,Inventory Quantity\nh1,S1,Widget,9.99,5\n",
	}
	for _, input := range inputs {
		result, err := Parse(input, false)
		require.NoError(t, err)
		require.Len(t, result.Products, 1)

		p := result.Products[0]
		assert.Equal(t, "h1", p.Handle)
		assert.Equal(t, "S1", p.SKU)
		assert.Equal(t, "Widget", p.ProductName)
		assert.Equal(t, 9.99, p.Price)
		assert.Equal(t, 5, p.StockQuantity)
	}
}

func TestParseMissingRequiredColumn(t *testing.T) {
	input := "Handle,SKU,Title,Stock\nh1,S1,Widget,5\n"

	result, err := Parse(input, false)
	require.Error(t, err)
	assert.Nil(t, result)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "price", schemaErr.Field)
}

func TestParseRowWarnings(t *testing.T) {
	input := "Handle,SKU,Title,Price,Stock\n" +
		",S1,No Handle,9.99,5\n" +
		"h2,S2,Bad Price,abc,5\n" +
		"h3,S3,Good,4.50,2\n"

	result, err := Parse(input, false)
	require.NoError(t, err)
	require.Len(t, result.Rows, 3)

	assert.Equal(t, "Missing or empty Handle or SKU.", result.Rows[0].Warning)
	assert.Equal(t, 2, result.Rows[0].LineNumber)
	assert.Nil(t, result.Rows[0].Record)

	assert.Contains(t, result.Rows[1].Warning, "Could not parse Price or StockQuantity")
	assert.Contains(t, result.Rows[1].Warning, "'abc'")
	assert.Equal(t, 3, result.Rows[1].LineNumber)

	assert.Empty(t, result.Rows[2].Warning)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "S3", result.Products[0].SKU)
}

func TestParsePlaceholderImage(t *testing.T) {
	input := "Handle,SKU,Title,Price,Stock,Image Src\n" +
		"h1,S1,Widget,9.99,5,\n" +
		"h2,S2,Gadget,3.00,1,https://cdn.example.com/g.jpg\n"

	result, err := Parse(input, false)
	require.NoError(t, err)
	require.Len(t, result.Products, 2)

	assert.Equal(t, PlaceholderImageURL("S1"), result.Products[0].ImageURL)
	assert.True(t, IsPlaceholderImage(result.Products[0].ImageURL))
	assert.Equal(t, "https://cdn.example.com/g.jpg", result.Products[1].ImageURL)
	assert.False(t, IsPlaceholderImage(result.Products[1].ImageURL))
}

func TestParseClearanceSource(t *testing.T) {
	input := "Handle,SKU,Title,Price,Stock,Compare At Price\n" +
		"h1,S1,Widget,9.99,5,14.99\n"

	result, err := Parse(input, true)
	require.NoError(t, err)
	require.Len(t, result.Products, 1)

	p := result.Products[0]
	assert.True(t, p.IsClearance)
	require.NotNil(t, p.CompareAtPrice)
	assert.Equal(t, 14.99, *p.CompareAtPrice)
}

func TestParseShortAndBlankRows(t *testing.T) {
	input := "Handle,SKU,Title,Price,Stock\n" +
		"h1,S1,Widget,9.99,5\n" +
		",,\n" +
		"h2,S2\n"

	result, err := Parse(input, false)
	require.NoError(t, err)

	// The all-blank short row is skipped; the data-carrying short row is
	// padded and reported as a row warning.
	require.Len(t, result.Rows, 2)
	assert.Empty(t, result.Rows[0].Warning)
	assert.NotEmpty(t, result.Rows[1].Warning)
}

func TestParseEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   \n  ", "Handle,SKU,Title,Price,Stock\n"} {
		result, err := Parse(input, false)
		require.NoError(t, err)
		assert.Empty(t, result.Products)
		assert.Empty(t, result.Rows)
	}
}

func TestParseTagSplitting(t *testing.T) {
	input := "Handle,SKU,Title,Price,Stock,Tags\n" +
		`h1,S1,Widget,9.99,5,"Sale, Clearance , ,Featured"` + "\n"

	result, err := Parse(input, false)
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, []string{"Sale", "Clearance", "Featured"}, result.Products[0].Tags)
}
