package mcpserver

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/MrWong99/netscout/internal/tools"
)

// wireType maps the internal parameter type tags onto JSON Schema wire type
// names.
func wireType(t tools.ParameterType) string {
	switch t {
	case tools.TypeString:
		return "string"
	case tools.TypeInteger:
		return "integer"
	case tools.TypeFloat:
		return "number"
	case tools.TypeBoolean:
		return "boolean"
	case tools.TypeList:
		return "array"
	case tools.TypeDict:
		return "object"
	default:
		return "string"
	}
}

// InferItemType derives the items type of an array parameter from its name
// when the declaration carries no element hint. The downstream schema
// validator requires an items object on every array.
func InferItemType(paramName string) string {
	lower := strings.ToLower(paramName)
	switch {
	case strings.Contains(lower, "server"):
		return "string"
	case strings.Contains(lower, "url"), strings.Contains(lower, "endpoint"):
		return "string"
	case strings.Contains(lower, "target"), strings.Contains(lower, "host"):
		return "object"
	case strings.Contains(lower, "tool"), strings.Contains(lower, "command"):
		return "string"
	case strings.Contains(lower, "port"):
		return "integer"
	default:
		return "string"
	}
}

// ExportSchema renders a tool's parameter declarations as a JSON Schema
// input-schema object: {"type": "object", "properties": {...},
// "required": [...]}.
func ExportSchema(md tools.Metadata) map[string]any {
	properties := map[string]any{}
	var required []string

	for name, info := range md.Parameters {
		prop := map[string]any{
			"type":        wireType(info.Type),
			"description": info.Description,
		}

		if info.Type == tools.TypeList {
			itemType := wireType(info.Elem)
			if info.Elem == "" {
				itemType = InferItemType(name)
			}
			prop["items"] = map[string]any{"type": itemType}
		}
		if info.Default != nil {
			prop["default"] = info.Default
		}
		if len(info.Choices) > 0 {
			prop["enum"] = info.Choices
		}
		if info.Minimum != nil {
			prop["minimum"] = *info.Minimum
		}
		if info.Maximum != nil {
			prop["maximum"] = *info.Maximum
		}

		properties[name] = prop
		if info.Required {
			required = append(required, name)
		}
	}
	sort.Strings(required)

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// schemaFromMap converts the exported map form into the SDK's schema type via
// a JSON round-trip. A conversion failure degrades to a bare object schema.
func schemaFromMap(m map[string]any) *jsonschema.Schema {
	data, err := json.Marshal(m)
	if err != nil {
		return &jsonschema.Schema{Type: "object"}
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return &jsonschema.Schema{Type: "object"}
	}
	return &s
}
