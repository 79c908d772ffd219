package shopify

// GraphQL documents. The variant field selection is shared between the bulk
// snapshot and the batched SKU lookup so both strategies produce identical
// wire shapes.

const variantFields = `
	id
	sku
	price
	compareAtPrice
	image {
		id
		url
		altText
	}
	media(first: 10) {
		edges {
			node {
				... on MediaImage {
					id
					image {
						id
						url
						altText
					}
				}
			}
		}
	}
	selectedOptions {
		name
		value
	}
	product {
		id
		title
		handle
		descriptionHtml
		tags
		media(first: 20) {
			edges {
				node {
					... on MediaImage {
						id
						image {
							id
							url
							altText
						}
					}
				}
			}
		}
	}
	inventoryItem {
		id
		tracked
		inventoryLevels(first: 5) {
			edges {
				node {
					quantities(names: ["available"]) {
						name
						quantity
					}
					location {
						id
						legacyResourceId
					}
				}
			}
		}
	}`

const queryShopName = `query { shop { name } }`

const mutationBulkRunQuery = `
mutation {
	bulkOperationRunQuery(
		query: """
		{
			productVariants {
				edges {
					node {` + variantFields + `
					}
				}
			}
		}
		"""
	) {
		bulkOperation {
			id
			status
		}
		userErrors {
			field
			message
		}
	}
}`

const queryCurrentBulkOperation = `
query {
	currentBulkOperation {
		id
		status
		errorCode
		objectCount
		url
	}
}`

const queryVariantsBySKU = `
query variantsBySku($query: String!, $first: Int!) {
	productVariants(first: $first, query: $query) {
		edges {
			node {` + variantFields + `
			}
		}
	}
}`

const queryProductDetails = `
query productDetails($id: ID!) {
	product(id: $id) {
		id
		descriptionHtml
		tags
	}
}`

const queryCollectionByTitle = `
query collectionByTitle($query: String!) {
	collections(first: 1, query: $query) {
		edges {
			node {
				id
				title
			}
		}
	}
}`

const mutationProductUpdate = `
mutation productUpdate($input: ProductInput!) {
	productUpdate(input: $input) {
		product {
			id
		}
		userErrors {
			field
			message
		}
	}
}`

const mutationVariantsBulkUpdate = `
mutation variantsBulkUpdate($productId: ID!, $variants: [ProductVariantsBulkInput!]!) {
	productVariantsBulkUpdate(productId: $productId, variants: $variants) {
		productVariants {
			id
		}
		userErrors {
			field
			message
		}
	}
}`

const mutationProductCreate = `
mutation productCreate($input: ProductInput!, $media: [CreateMediaInput!]) {
	productCreate(input: $input, media: $media) {
		product {
			id
			handle
			variants(first: 100) {
				edges {
					node {
						id
						sku
						inventoryItem {
							id
						}
					}
				}
			}
		}
		userErrors {
			field
			message
		}
	}
}`

const mutationProductDeleteMedia = `
mutation productDeleteMedia($productId: ID!, $mediaIds: [ID!]!) {
	productDeleteMedia(productId: $productId, mediaIds: $mediaIds) {
		deletedMediaIds
		userErrors {
			field
			message
		}
	}
}`

const mutationPublishablePublish = `
mutation publishablePublish($id: ID!, $input: [PublicationInput!]!) {
	publishablePublish(id: $id, input: $input) {
		userErrors {
			field
			message
		}
	}
}`

const mutationCollectionAddProducts = `
mutation collectionAddProducts($id: ID!, $productIds: [ID!]!) {
	collectionAddProducts(id: $id, productIds: $productIds) {
		userErrors {
			field
			message
		}
	}
}`
