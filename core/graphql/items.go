package graphql

import (
	"fmt"

	"tenant-bootstrapper/core/api"
)

const itemFields = `id externalReference tree { path parentId }`

// CreateItem creates a folder, product or document. Response: $.<type>.create
func CreateItem(itemType, language string, input map[string]any) api.Request {
	q := fmt.Sprintf(`mutation CREATE_ITEM($input: Create%sInput!, $language: String!) {
		%s { create(input: $input, language: $language) { %s } }
	}`, TypeName(itemType), itemType, itemFields)
	return op(q, map[string]any{"input": input, "language": language})
}

// UpdateItem updates the base fields of an item. Response: $.<type>.update
func UpdateItem(itemType, id, language string, input map[string]any) api.Request {
	q := fmt.Sprintf(`mutation UPDATE_ITEM($id: ID!, $input: Update%sInput!, $language: String!) {
		%s { update(id: $id, input: $input, language: $language) { %s } }
	}`, TypeName(itemType), itemType, itemFields)
	return op(q, map[string]any{"id": id, "input": input, "language": language})
}

// UpdateItemComponent replaces one component. Response: $.item.updateComponent
func UpdateItemComponent(itemID, language string, input any) api.Request {
	return op(`mutation UPDATE_COMPONENT($itemId: ID!, $language: String!, $input: ComponentInput!) {
		item { updateComponent(itemId: $itemId, language: $language, input: $input) { id } }
	}`, map[string]any{"itemId": itemID, "language": language, "input": input})
}

// UpdateVariantComponent replaces one component of a product variant.
// Response: $.product.updateVariantComponent
func UpdateVariantComponent(productID, sku, language string, input any) api.Request {
	return op(`mutation UPDATE_VARIANT_COMPONENT($productId: ID!, $sku: String!, $language: String!, $input: ComponentInput!) {
		product { updateVariantComponent(productId: $productId, sku: $sku, language: $language, input: $input) { id } }
	}`, map[string]any{"productId": productID, "sku": sku, "language": language, "input": input})
}

// MoveItem moves an item under parentID. Response: $.tree.moveNode
func MoveItem(itemID, parentID string, position int) api.Request {
	input := map[string]any{"parentId": parentID}
	if position > 0 {
		input["position"] = position
	}
	return op(`mutation MOVE_ITEM($itemId: ID!, $input: TreeNodeInput!) {
		tree { moveNode(itemId: $itemId, input: $input) { itemId parentId } }
	}`, map[string]any{"itemId": itemID, "input": input})
}

// PublishItem publishes the current draft. Response: $.item.publish
func PublishItem(itemID, language string) api.Request {
	return op(`mutation PUBLISH_ITEM($id: ID!, $language: String!) {
		item { publish(id: $id, language: $language) { id } }
	}`, map[string]any{"id": itemID, "language": language})
}

// GetItemsByExternalReference looks items up by external reference.
// Response: $.item.getMany[*]{id, shape.identifier, tree.parentId}
func GetItemsByExternalReference(tenantID, language string, refs ...string) api.Request {
	return op(`query GET_ITEMS_BY_EXTERNAL_REFERENCE($tenantId: ID!, $language: String!, $externalReferences: [String!]) {
		item { getMany(tenantId: $tenantId, language: $language, externalReferences: $externalReferences) {
			id shape { identifier } tree { parentId }
		} }
	}`, map[string]any{"tenantId": tenantID, "language": language, "externalReferences": refs})
}

// GetItemByPath looks an item up by catalogue path.
// Response: $.item.getByPath{id, shape.identifier, tree.parentId}
func GetItemByPath(tenantID, language, path string) api.Request {
	return op(`query GET_ITEM_BY_PATH($tenantId: ID!, $language: String!, $path: String!) {
		item { getByPath(tenantId: $tenantId, language: $language, path: $path) {
			id shape { identifier } tree { parentId }
		} }
	}`, map[string]any{"tenantId": tenantID, "language": language, "path": path})
}

// GetItemTopics returns the topics of an item. Response: $.item.get.topics[*].id
func GetItemTopics(itemID, language string) api.Request {
	return op(`query GET_ITEM_TOPICS($id: ID!, $language: String!) {
		item { get(id: $id, language: $language) { topics { id } } }
	}`, map[string]any{"id": itemID, "language": language})
}

// GetItemVersions returns the published and draft versions of an item.
// Response: $.item.published.updatedAt and $.item.draft.updatedAt
func GetItemVersions(itemID, language string) api.Request {
	return op(`query GET_ITEM_VERSIONS($id: ID!, $language: String!) {
		item {
			published: get(id: $id, language: $language, versionLabel: published) { id updatedAt }
			draft: get(id: $id, language: $language, versionLabel: draft) { id updatedAt }
		}
	}`, map[string]any{"id": itemID, "language": language})
}

// GetProduct returns the variants and vat type of a product. Response: $.product.get
func GetProduct(id, language string) api.Request {
	return op(`query GET_PRODUCT($id: ID!, $language: String!) {
		product { get(id: $id, language: $language) {
			id
			vatType { id name percent }
			variants {
				sku name isDefault externalReference
				attributes { attribute value }
				images { key altText }
				priceVariants { identifier price }
				stockLocations { identifier stock meta { key value } }
			}
		} }
	}`, map[string]any{"id": id, "language": language})
}

// GetTenantRoot returns the root item id of a tenant. Response: $.tenant.get.rootItemId
func GetTenantRoot(tenantID string) api.Request {
	return op(`query GET_TENANT_ROOT($id: ID!) {
		tenant { get(id: $id) { id rootItemId } }
	}`, map[string]any{"id": tenantID})
}

// RegisterImage asks the API to generate variants for an uploaded image.
// Response: $.image.registerImage.key
func RegisterImage(tenantID, key string) api.Request {
	return op(`mutation REGISTER_IMAGE($tenantId: ID!, $key: String!) {
		image { registerImage(tenantId: $tenantId, key: $key) { key } }
	}`, map[string]any{"tenantId": tenantID, "key": key})
}
