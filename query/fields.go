package query

// FieldCategory partitions the field names an info query may ask for.
type FieldCategory int

const (
	// FieldUnknown is any name outside the other categories.
	FieldUnknown FieldCategory = iota
	// FieldInfo names a field of the info object.
	FieldInfo
	// FieldSwagger names a top-level field of the document.
	FieldSwagger
	// FieldGeneral names an aggregate listing.
	FieldGeneral
)

func (c FieldCategory) String() string {
	switch c {
	case FieldInfo:
		return "info"
	case FieldSwagger:
		return "swagger"
	case FieldGeneral:
		return "general"
	}
	return "unknown"
}

// Aggregate listings.
const (
	ListPaths       = "paths"
	ListOperations  = "operations"
	ListDefinitions = "definitions"
)

var (
	infoFields    = []string{"description", "version", "title", "termsOfService", "contact", "license"}
	swaggerFields = []string{"host", "basePath", "schemes", "consumes", "produces", "security", "tags", "externalDocs"}
	generalData   = []string{ListPaths, ListOperations, ListDefinitions}

	categories = buildCategories()
)

func buildCategories() map[string]FieldCategory {
	m := make(map[string]FieldCategory)
	for _, f := range infoFields {
		m[f] = FieldInfo
	}
	for _, f := range swaggerFields {
		m[f] = FieldSwagger
	}
	for _, f := range generalData {
		m[f] = FieldGeneral
	}
	return m
}

// Classify returns the category of a field name. Matching is exact.
func Classify(field string) FieldCategory {
	return categories[field]
}

// FieldNames returns the names in category c in their canonical order.
func FieldNames(c FieldCategory) []string {
	var src []string
	switch c {
	case FieldInfo:
		src = infoFields
	case FieldSwagger:
		src = swaggerFields
	case FieldGeneral:
		src = generalData
	default:
		return nil
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}
