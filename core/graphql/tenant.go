package graphql

import "tenant-bootstrapper/core/api"

// GetShapes lists the shapes of a tenant. Response: $.shape.getMany
func GetShapes(tenantID string) api.Request {
	return op(`query GET_SHAPES($tenantId: ID!) {
		shape { getMany(tenantId: $tenantId) {
			identifier name type
			components { id name type description config }
			variantComponents { id name type description config }
		} }
	}`, map[string]any{"tenantId": tenantID})
}

// CreateShape creates a shape. Response: $.shape.create.identifier
func CreateShape(tenantID string, input map[string]any) api.Request {
	input["tenantId"] = tenantID
	return op(`mutation CREATE_SHAPE($input: CreateShapeInput!) {
		shape { create(input: $input) { identifier } }
	}`, map[string]any{"input": input})
}

// GetLanguages lists the tenant languages. Response: $.tenant.get{defaults.language, availableLanguages}
func GetLanguages(tenantID string) api.Request {
	return op(`query GET_LANGUAGES($id: ID!) {
		tenant { get(id: $id) { defaults { language } availableLanguages { code name } } }
	}`, map[string]any{"id": tenantID})
}

// AddLanguage adds a language to the tenant. Response: $.tenant.addLanguage.code
func AddLanguage(tenantID, code, name string) api.Request {
	return op(`mutation ADD_LANGUAGE($tenantId: ID!, $input: AddLanguageInput!) {
		tenant { addLanguage(tenantId: $tenantId, input: $input) { code } }
	}`, map[string]any{"tenantId": tenantID, "input": map[string]any{"code": code, "name": name}})
}

// SetDefaultLanguage marks a language as the tenant default. Response: $.tenant.update.id
func SetDefaultLanguage(tenantID, code string) api.Request {
	return op(`mutation SET_DEFAULT_LANGUAGE($id: ID!, $input: UpdateTenantInput!) {
		tenant { update(id: $id, input: $input) { id } }
	}`, map[string]any{"id": tenantID, "input": map[string]any{"defaults": map[string]any{"language": code}}})
}

// GetPriceVariants lists price variants. Response: $.priceVariant.getMany
func GetPriceVariants(tenantID string) api.Request {
	return op(`query GET_PRICE_VARIANTS($tenantId: ID!) {
		priceVariant { getMany(tenantId: $tenantId) { identifier name currency } }
	}`, map[string]any{"tenantId": tenantID})
}

// CreatePriceVariant creates a price variant. Response: $.priceVariant.create.identifier
func CreatePriceVariant(tenantID, identifier, name, currency string) api.Request {
	return op(`mutation CREATE_PRICE_VARIANT($input: CreatePriceVariantInput!) {
		priceVariant { create(input: $input) { identifier } }
	}`, map[string]any{"input": map[string]any{
		"tenantId":   tenantID,
		"identifier": identifier,
		"name":       name,
		"currency":   currency,
	}})
}

// GetStockLocations lists stock locations. Response: $.stockLocation.getMany
func GetStockLocations(tenantID string) api.Request {
	return op(`query GET_STOCK_LOCATIONS($tenantId: ID!) {
		stockLocation { getMany(tenantId: $tenantId) { identifier name } }
	}`, map[string]any{"tenantId": tenantID})
}

// CreateStockLocation creates a stock location. Response: $.stockLocation.create.identifier
func CreateStockLocation(tenantID, identifier, name string) api.Request {
	return op(`mutation CREATE_STOCK_LOCATION($input: CreateStockLocationInput!) {
		stockLocation { create(input: $input) { identifier } }
	}`, map[string]any{"input": map[string]any{"tenantId": tenantID, "identifier": identifier, "name": name}})
}

// GetVatTypes lists vat types. Response: $.tenant.get.vatTypes
func GetVatTypes(tenantID string) api.Request {
	return op(`query GET_VAT_TYPES($id: ID!) {
		tenant { get(id: $id) { vatTypes { id name percent } } }
	}`, map[string]any{"id": tenantID})
}

// CreateVatType creates a vat type. Response: $.vatType.create
func CreateVatType(tenantID, name string, percent float64) api.Request {
	return op(`mutation CREATE_VAT_TYPE($input: CreateVatTypeInput!) {
		vatType { create(input: $input) { id name percent } }
	}`, map[string]any{"input": map[string]any{"tenantId": tenantID, "name": name, "percent": percent}})
}

// GetSubscriptionPlans lists subscription plans. Response: $.subscriptionPlan.getMany
func GetSubscriptionPlans(tenantID string) api.Request {
	return op(`query GET_SUBSCRIPTION_PLANS($tenantId: ID!) {
		subscriptionPlan { getMany(tenantId: $tenantId) {
			identifier name
			periods { id name }
			meteredVariables { id identifier name }
		} }
	}`, map[string]any{"tenantId": tenantID})
}

// GetTopics lists every topic flat. Response: $.topic.getMany
func GetTopics(tenantID, language string) api.Request {
	return op(`query GET_TOPICS($tenantId: ID!, $language: String!) {
		topic { getMany(tenantId: $tenantId, language: $language) { id name path parentId } }
	}`, map[string]any{"tenantId": tenantID, "language": language})
}

// CreateTopic creates a topic under parentID. Response: $.topic.create
func CreateTopic(tenantID, language, name, parentID string) api.Request {
	input := map[string]any{"tenantId": tenantID, "name": name}
	if parentID != "" {
		input["parentId"] = parentID
	}
	return op(`mutation CREATE_TOPIC($input: CreateTopicInput!, $language: String!) {
		topic { create(input: $input, language: $language) { id name path parentId } }
	}`, map[string]any{"input": input, "language": language})
}

// GetGrids lists grids. Response: $.grid.getMany
func GetGrids(tenantID, language string) api.Request {
	return op(`query GET_GRIDS($tenantId: ID!, $language: String!) {
		grid { getMany(tenantId: $tenantId, language: $language) { id name } }
	}`, map[string]any{"tenantId": tenantID, "language": language})
}

// CreateGrid creates an empty grid. Response: $.grid.create
func CreateGrid(tenantID, language, name string) api.Request {
	return op(`mutation CREATE_GRID($input: CreateGridInput!, $language: String!) {
		grid { create(input: $input, language: $language) { id name } }
	}`, map[string]any{"input": map[string]any{"tenantId": tenantID, "name": name}, "language": language})
}

// UpdateShape replaces the name and components of a shape. Response: $.shape.update.identifier
func UpdateShape(tenantID, identifier string, input map[string]any) api.Request {
	return op(`mutation UPDATE_SHAPE($tenantId: ID!, $identifier: String!, $input: UpdateShapeInput!) {
		shape { update(tenantId: $tenantId, identifier: $identifier, input: $input) { identifier } }
	}`, map[string]any{"tenantId": tenantID, "identifier": identifier, "input": input})
}
