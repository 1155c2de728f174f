package accounting

import (
	"github.com/google/jsonschema-go/jsonschema"
)

func objectSchema(properties map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	if properties == nil {
		properties = map[string]*jsonschema.Schema{}
	}
	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

func stringProp(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: description}
}

func dateProp(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Format: "date", Description: description}
}

func enumProp(description string, values ...string) *jsonschema.Schema {
	enum := make([]any, 0, len(values))
	for _, value := range values {
		enum = append(enum, value)
	}
	return &jsonschema.Schema{Type: "string", Description: description, Enum: enum}
}

func numberProp(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "number", Description: description}
}

func integerProp(description string, minimum float64) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "integer", Description: description, Minimum: jsonschema.Ptr(minimum)}
}

func boolProp(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "boolean", Description: description}
}

func arrayProp(description string, items *jsonschema.Schema, minItems int) *jsonschema.Schema {
	schema := &jsonschema.Schema{Type: "array", Description: description, Items: items}
	if minItems > 0 {
		schema.MinItems = jsonschema.Ptr(minItems)
	}
	return schema
}

// listProperties are shared by every paged list action.
func listProperties(extra map[string]*jsonschema.Schema) map[string]*jsonschema.Schema {
	props := map[string]*jsonschema.Schema{
		"page":  integerProp("1-based page number; each page holds up to 100 records", 1),
		"all":   boolProp("Fetch every page and return the concatenated records"),
		"where": stringProp(`Xero filter expression, e.g. Status=="AUTHORISED"`),
		"order": stringProp("Sort expression, e.g. Date DESC"),
	}
	for key, value := range extra {
		props[key] = value
	}
	return props
}

func idSchema(field, description string) *jsonschema.Schema {
	return objectSchema(map[string]*jsonschema.Schema{field: stringProp(description)}, field)
}
