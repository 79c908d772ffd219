package types

// Wire shapes for Shopify Admin GraphQL responses. These mirror the fields
// selected by the product variant queries and are treated as immutable
// snapshots once fetched.

// ImageNode is a product or variant image.
type ImageNode struct {
	ID      string  `json:"id"`
	URL     string  `json:"url"`
	AltText *string `json:"altText"`
}

// MediaImageNode wraps an image in its media container. The media GID is the
// one required for deletion; the inner image GID is for display and alt text.
type MediaImageNode struct {
	ID    string     `json:"id"`
	Image *ImageNode `json:"image"`
}

// MediaEdge is one edge of a media connection.
type MediaEdge struct {
	Node MediaImageNode `json:"node"`
}

// MediaConnection is a paginated media list.
type MediaConnection struct {
	Edges []MediaEdge `json:"edges"`
}

// SelectedOption is one option name/value pair on a variant.
type SelectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ProductNode is the parent product embedded in a variant node.
type ProductNode struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	Handle          string           `json:"handle"`
	DescriptionHTML string           `json:"descriptionHtml"`
	Tags            []string         `json:"tags"`
	Media           *MediaConnection `json:"media"`
}

// LocationNode identifies an inventory location by both its GID and its
// legacy numeric id. Either encoding may match the configured target.
type LocationNode struct {
	ID               string `json:"id"`
	LegacyResourceID string `json:"legacyResourceId"`
	Name             string `json:"name,omitempty"`
}

// InventoryQuantity is one named quantity at a location.
type InventoryQuantity struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// InventoryLevelNode is the stock state of one inventory item at one location.
type InventoryLevelNode struct {
	Quantities []InventoryQuantity `json:"quantities"`
	Location   LocationNode        `json:"location"`
}

// InventoryLevelEdge is one edge of an inventory level connection.
type InventoryLevelEdge struct {
	Node InventoryLevelNode `json:"node"`
}

// InventoryLevelConnection is a paginated inventory level list.
type InventoryLevelConnection struct {
	Edges []InventoryLevelEdge `json:"edges"`
}

// InventoryItemNode is the inventory item attached to a variant.
type InventoryItemNode struct {
	ID              string                   `json:"id"`
	Tracked         bool                     `json:"tracked"`
	InventoryLevels InventoryLevelConnection `json:"inventoryLevels"`
}

// VariantNode is one product variant as returned by the bulk and batched
// variant queries, with its parent product fields embedded.
type VariantNode struct {
	ID              string             `json:"id"`
	SKU             string             `json:"sku"`
	Price           string             `json:"price"`
	CompareAtPrice  *string            `json:"compareAtPrice"`
	Image           *ImageNode         `json:"image"`
	Media           *MediaConnection   `json:"media,omitempty"`
	SelectedOptions []SelectedOption   `json:"selectedOptions,omitempty"`
	Product         *ProductNode       `json:"product"`
	InventoryItem   *InventoryItemNode `json:"inventoryItem"`
}
